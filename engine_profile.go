package glassauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/liquidglass/glassauth/store"
)

// UpdateProfile changes the account's display name and email. A new
// email may not collide with another verified account. When the updated
// account owns the persisted session, the session record is re-signed
// so it reflects the new profile.
func (e *Engine) UpdateProfile(ctx context.Context, accountID, name, email string) (*SessionUser, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	acc, err := e.findAccount(accountID)
	if err != nil {
		return nil, err
	}

	normEmail, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if normEmail != acc.Email {
		other, err := e.accounts.FindByEmail(normEmail)
		switch {
		case err == nil:
			if other.ID != acc.ID && other.EmailVerified {
				return nil, ErrEmailConflict
			}
		case errors.Is(err, store.ErrNotFound):
		default:
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	acc.Name = normalizeName(name, e.config.App.DefaultDisplayName)
	acc.Email = normEmail

	if err := e.accounts.Upsert(acc); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := e.refreshSessionFor(acc); err != nil {
		return nil, err
	}

	e.emit(ctx, AuditEvent{EventType: "account.update", AccountID: acc.ID, Email: acc.Email, Success: true})
	return sessionUserFrom(acc), nil
}

// refreshSessionFor re-signs the persisted session when it belongs to
// acc, so a profile edit is visible on the next resume.
func (e *Engine) refreshSessionFor(acc *store.Account) error {
	tok, err := e.accounts.LoadSession()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if tok == "" {
		return nil
	}
	claims, err := e.tokens.Parse(tok)
	if err != nil || claims.Subject != acc.ID {
		return nil
	}
	if _, err := e.establishSession(acc); err != nil {
		return err
	}
	return nil
}
