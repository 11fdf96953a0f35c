package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newStore(t *testing.T) (*FileStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, path
}

func sampleAccount(id, email string) *Account {
	return &Account{
		ID:        id,
		Name:      "Name",
		Email:     email,
		Password:  "password1",
		CreatedAt: time.Now(),
	}
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s, _ := newStore(t)

	accounts, err := s.ListAll()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("expected empty store, got %d accounts", len(accounts))
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected corrupt file to fail open")
	}
}

func TestUpsertAndFind(t *testing.T) {
	s, _ := newStore(t)

	if err := s.Upsert(sampleAccount("id-1", "a@example.com")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	byEmail, err := s.FindByEmail("a@example.com")
	if err != nil || byEmail.ID != "id-1" {
		t.Fatalf("find by email: %+v err=%v", byEmail, err)
	}
	byID, err := s.FindByID("id-1")
	if err != nil || byID.Email != "a@example.com" {
		t.Fatalf("find by id: %+v err=%v", byID, err)
	}
	if _, err := s.FindByEmail("other@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	s, _ := newStore(t)

	acc := sampleAccount("id-1", "a@example.com")
	if err := s.Upsert(acc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	acc.Name = "Renamed"
	if err := s.Upsert(acc); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.FindByID("id-1")
	if err != nil || got.Name != "Renamed" {
		t.Fatalf("replacement not applied: %+v err=%v", got, err)
	}
	all, _ := s.ListAll()
	if len(all) != 1 {
		t.Fatalf("expected one account, got %d", len(all))
	}
}

func TestUpsertConflictOnVerifiedEmail(t *testing.T) {
	s, _ := newStore(t)

	verified := sampleAccount("id-1", "a@example.com")
	verified.EmailVerified = true
	if err := s.Upsert(verified); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.Upsert(sampleAccount("id-2", "a@example.com")); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUpsertSupersedesUnverifiedEmail(t *testing.T) {
	s, _ := newStore(t)

	if err := s.Upsert(sampleAccount("id-1", "a@example.com")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Upsert(sampleAccount("id-2", "a@example.com")); err != nil {
		t.Fatalf("superseding upsert: %v", err)
	}

	got, err := s.FindByEmail("a@example.com")
	if err != nil || got.ID != "id-2" {
		t.Fatalf("expected the new account, got %+v err=%v", got, err)
	}
	all, _ := s.ListAll()
	if len(all) != 1 {
		t.Fatalf("expected the old record replaced, got %d", len(all))
	}
}

func TestUpsertEmailMoveSupersedesUnverifiedHolder(t *testing.T) {
	s, _ := newStore(t)

	if err := s.Upsert(sampleAccount("id-1", "a@example.com")); err != nil {
		t.Fatalf("upsert unverified holder: %v", err)
	}
	mover := sampleAccount("id-2", "b@example.com")
	mover.EmailVerified = true
	if err := s.Upsert(mover); err != nil {
		t.Fatalf("upsert mover: %v", err)
	}

	// id-2 changes its email onto id-1's address
	mover.Email = "a@example.com"
	if err := s.Upsert(mover); err != nil {
		t.Fatalf("email move: %v", err)
	}

	got, err := s.FindByEmail("a@example.com")
	if err != nil || got.ID != "id-2" {
		t.Fatalf("expected id-2 to own the address, got %+v err=%v", got, err)
	}
	all, _ := s.ListAll()
	if len(all) != 1 {
		t.Fatalf("stale unverified holder must be removed, got %d records", len(all))
	}
}

func TestUpsertEmailMoveConflictsWithVerifiedHolder(t *testing.T) {
	s, _ := newStore(t)

	owner := sampleAccount("id-1", "a@example.com")
	owner.EmailVerified = true
	if err := s.Upsert(owner); err != nil {
		t.Fatalf("upsert owner: %v", err)
	}
	other := sampleAccount("id-2", "b@example.com")
	if err := s.Upsert(other); err != nil {
		t.Fatalf("upsert other: %v", err)
	}

	other.Email = "a@example.com"
	if err := s.Upsert(other); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict moving onto a verified address, got %v", err)
	}

	// the failed move left both records untouched
	got, err := s.FindByID("id-2")
	if err != nil || got.Email != "b@example.com" {
		t.Fatalf("failed move must not change the record: %+v err=%v", got, err)
	}
}

func TestUpsertNeverLeavesDuplicateEmails(t *testing.T) {
	s, _ := newStore(t)

	if err := s.Upsert(sampleAccount("id-1", "a@example.com")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Upsert(sampleAccount("id-2", "a@example.com")); err != nil {
		t.Fatalf("superseding upsert: %v", err)
	}
	// id-2 already holds the address; replacing it by ID must not
	// resurrect a second holder
	if err := s.Upsert(sampleAccount("id-2", "a@example.com")); err != nil {
		t.Fatalf("id replace: %v", err)
	}

	all, _ := s.ListAll()
	if len(all) != 1 {
		t.Fatalf("expected a single holder, got %d", len(all))
	}
}

func TestListAllPreservesOrder(t *testing.T) {
	s, _ := newStore(t)

	for _, id := range []string{"id-1", "id-2", "id-3"} {
		if err := s.Upsert(sampleAccount(id, id+"@example.com")); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	all, err := s.ListAll()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []string{"id-1", "id-2", "id-3"} {
		if all[i].ID != want {
			t.Fatalf("order broken at %d: got %s", i, all[i].ID)
		}
	}
}

func TestFindReturnsClones(t *testing.T) {
	s, _ := newStore(t)

	acc := sampleAccount("id-1", "a@example.com")
	acc.RecoveryCodes = []string{"AAAA-BBBB"}
	if err := s.Upsert(acc); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.FindByID("id-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	got.Name = "Mutated"
	got.RecoveryCodes[0] = "XXXX-XXXX"

	again, err := s.FindByID("id-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if again.Name != "Name" || again.RecoveryCodes[0] != "AAAA-BBBB" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s, _ := newStore(t)

	tok, err := s.LoadSession()
	if err != nil || tok != "" {
		t.Fatalf("expected empty session, got %q err=%v", tok, err)
	}

	if err := s.SaveSession("token-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	tok, err = s.LoadSession()
	if err != nil || tok != "token-1" {
		t.Fatalf("load: %q err=%v", tok, err)
	}

	if err := s.ClearSession(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	tok, _ = s.LoadSession()
	if tok != "" {
		t.Fatalf("session survived clear: %q", tok)
	}

	// clearing an already empty session is fine
	if err := s.ClearSession(); err != nil {
		t.Fatalf("idempotent clear: %v", err)
	}
}

func TestPendingRoundTrip(t *testing.T) {
	s, _ := newStore(t)

	p, err := s.Pending()
	if err != nil || p != nil {
		t.Fatalf("expected no pending, got %+v err=%v", p, err)
	}

	want := &PendingVerification{Email: "a@example.com", ExpiresAt: time.Now().Add(time.Minute)}
	if err := s.SetPending(want); err != nil {
		t.Fatalf("set: %v", err)
	}
	p, err = s.Pending()
	if err != nil || p == nil || p.Email != "a@example.com" {
		t.Fatalf("pending: %+v err=%v", p, err)
	}

	if err := s.ClearPending(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	p, _ = s.Pending()
	if p != nil {
		t.Fatalf("pending survived clear: %+v", p)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	s, path := newStore(t)

	acc := sampleAccount("id-1", "a@example.com")
	acc.RecoveryCodes = []string{"AAAA-BBBB", "CCCC-DDDD"}
	if err := s.Upsert(acc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.SaveSession("token-1"); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := s.SetPending(&PendingVerification{Email: "a@example.com", ExpiresAt: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("set pending: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	got, err := reopened.FindByID("id-1")
	if err != nil || len(got.RecoveryCodes) != 2 {
		t.Fatalf("account lost: %+v err=%v", got, err)
	}
	tok, _ := reopened.LoadSession()
	if tok != "token-1" {
		t.Fatalf("session lost: %q", tok)
	}
	p, _ := reopened.Pending()
	if p == nil || p.Email != "a@example.com" {
		t.Fatalf("pending lost: %+v", p)
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	s, path := newStore(t)

	if err := s.Upsert(sampleAccount("id-1", "a@example.com")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
