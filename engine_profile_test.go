package glassauth

import (
	"context"
	"errors"
	"testing"
)

func TestUpdateProfile(t *testing.T) {
	engine, st, mail := newTestEngine(t, testConfig())
	ctx := context.Background()

	user, _ := registerVerified(t, engine, mail, "a@example.com", "password1")

	updated, err := engine.UpdateProfile(ctx, user.ID, "  New   Name ", " New@Example.com ")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" || updated.Email != "new@example.com" {
		t.Fatalf("unexpected projection %+v", updated)
	}

	acc, err := st.FindByID(user.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if acc.Name != "New Name" || acc.Email != "new@example.com" {
		t.Fatalf("account not updated: %+v", acc)
	}
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	engine, _, mail := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerVerified(t, engine, mail, "taken@example.com", "password1")
	user, _ := registerVerified(t, engine, mail, "mine@example.com", "password1")

	if _, err := engine.UpdateProfile(ctx, user.ID, "Name", "taken@example.com"); !errors.Is(err, ErrEmailConflict) {
		t.Fatalf("expected ErrEmailConflict, got %v", err)
	}
}

func TestUpdateProfileKeepsOwnEmail(t *testing.T) {
	engine, _, mail := newTestEngine(t, testConfig())
	ctx := context.Background()

	user, _ := registerVerified(t, engine, mail, "mine@example.com", "password1")

	// unchanged email must not read as a conflict with itself
	if _, err := engine.UpdateProfile(ctx, user.ID, "Renamed", "Mine@Example.com"); err != nil {
		t.Fatalf("update with own email: %v", err)
	}
}

func TestUpdateProfileUnknownAccount(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())

	if _, err := engine.UpdateProfile(context.Background(), "no-such-id", "Name", "x@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUpdateProfileSupersedesUnverifiedHolder(t *testing.T) {
	engine, st, mail := newTestEngine(t, testConfig())
	ctx := context.Background()

	// abandoned unverified signup holding the address
	if _, err := engine.Register(ctx, "Abandoned", "a@example.com", "password1"); err != nil {
		t.Fatalf("register abandoned: %v", err)
	}
	user, _ := registerVerified(t, engine, mail, "b@example.com", "password1")

	if _, err := engine.UpdateProfile(ctx, user.ID, "Mover", "a@example.com"); err != nil {
		t.Fatalf("update onto unverified holder: %v", err)
	}

	// the stale unverified record is gone; exactly one holder remains
	all, err := st.ListAll()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	holders := 0
	for _, acc := range all {
		if acc.Email == "a@example.com" {
			holders++
			if acc.ID != user.ID {
				t.Fatalf("wrong holder survived: %+v", acc)
			}
		}
	}
	if holders != 1 {
		t.Fatalf("expected exactly one holder of the address, got %d", holders)
	}

	// the verified owner now blocks re-registration of the address
	if _, err := engine.Register(ctx, "C", "a@example.com", "password1"); !errors.Is(err, ErrEmailConflict) {
		t.Fatalf("expected ErrEmailConflict after the move, got %v", err)
	}

	// and no path mints a second verified owner
	verifiedOwners := 0
	all, _ = st.ListAll()
	for _, acc := range all {
		if acc.Email == "a@example.com" && acc.EmailVerified {
			verifiedOwners++
		}
	}
	if verifiedOwners != 1 {
		t.Fatalf("expected one verified owner, got %d", verifiedOwners)
	}
}

func TestUpdateProfileRefreshesActiveSession(t *testing.T) {
	engine, _, mail := newTestEngine(t, testConfig())
	ctx := context.Background()

	user, _ := registerVerified(t, engine, mail, "a@example.com", "password1")
	if _, err := engine.Login(ctx, "a@example.com", "password1", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := engine.UpdateProfile(ctx, user.ID, "Renamed", "renamed@example.com"); err != nil {
		t.Fatalf("update: %v", err)
	}

	current, err := engine.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current.Email != "renamed@example.com" || current.Name != "Renamed" {
		t.Fatalf("session not refreshed: %+v", current)
	}
}

func TestUpdateProfileLeavesOtherSessionsAlone(t *testing.T) {
	engine, st, mail := newTestEngine(t, testConfig())
	ctx := context.Background()

	owner, _ := registerVerified(t, engine, mail, "owner@example.com", "password1")
	other, _ := registerVerified(t, engine, mail, "other@example.com", "password1")

	if _, err := engine.Login(ctx, "owner@example.com", "password1", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	before, err := st.LoadSession()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}

	if _, err := engine.UpdateProfile(ctx, other.ID, "Other Renamed", "other2@example.com"); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, err := st.LoadSession()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if before != after {
		t.Fatal("editing another account must not touch the owner's session")
	}

	current, err := engine.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current.ID != owner.ID {
		t.Fatalf("session switched accounts: %+v", current)
	}
}
