package glassauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liquidglass/glassauth/store"
)

// Register creates an unverified account, generates its recovery codes
// and starts the email verification flow. The recovery codes in the
// result are shown to the user once; only the store retains them.
//
// Registering over an abandoned unverified account with the same email
// supersedes it. A verified account with the email is a conflict.
func (e *Engine) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	normEmail, err := normalizeEmail(email)
	if err != nil {
		e.emit(ctx, AuditEvent{EventType: "account.register", Email: email, Error: err.Error()})
		return nil, err
	}
	if len(password) < e.config.App.MinPasswordLength {
		e.emit(ctx, AuditEvent{EventType: "account.register", Email: normEmail, Error: ErrWeakPassword.Error()})
		return nil, ErrWeakPassword
	}

	if existing, err := e.accounts.FindByEmail(normEmail); err == nil && existing.EmailVerified {
		e.emit(ctx, AuditEvent{EventType: "account.register", Email: normEmail, Error: ErrEmailConflict.Error()})
		return nil, ErrEmailConflict
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	codes, err := newRecoveryCodes(e.config.Recovery.Count, e.config.Recovery.GroupLength)
	if err != nil {
		return nil, err
	}

	acc := &store.Account{
		ID:            uuid.NewString(),
		Name:          normalizeName(name, e.config.App.DefaultDisplayName),
		Email:         normEmail,
		Password:      password,
		CreatedAt:     time.Now(),
		RecoveryCodes: codes,
	}

	if err := e.accounts.Upsert(acc); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.metrics.Registration()
	e.emit(ctx, AuditEvent{EventType: "account.register", AccountID: acc.ID, Email: acc.Email, Success: true})

	result := &RegisterResult{User: sessionUserFrom(acc), RecoveryCodes: codes}
	if err := e.startVerification(ctx, acc); err != nil {
		if !errors.Is(err, ErrDeliveryFailed) {
			return nil, err
		}
		// The account exists and its codes must still reach the user;
		// the delivery problem rides in the result and the caller
		// retries through ResendVerification.
		result.DeliveryError = err
	}
	return result, nil
}
