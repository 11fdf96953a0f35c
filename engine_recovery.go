package glassauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/liquidglass/glassauth/store"
)

// RecoverAccount resets the password using a recovery code. On success
// two-factor is forcibly disabled and both the shared secret and the
// full recovery set are rotated, so the used code and its siblings are
// all dead. The fresh codes are returned for the user to store.
func (e *Engine) RecoverAccount(ctx context.Context, email, recoveryCode, newPassword string) (*RecoveryResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	normEmail, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	acc, err := e.accounts.FindByEmail(normEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if len(newPassword) < e.config.App.MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if _, ok := consumeRecoveryCode(acc.RecoveryCodes, recoveryCode); !ok {
		e.metrics.InvalidCode()
		e.emit(ctx, AuditEvent{EventType: "account.recover", AccountID: acc.ID, Email: acc.Email, Error: ErrInvalidRecoveryCode.Error()})
		return nil, ErrInvalidRecoveryCode
	}

	secret, err := newTwoFactorSecret()
	if err != nil {
		return nil, err
	}
	codes, err := newRecoveryCodes(e.config.Recovery.Count, e.config.Recovery.GroupLength)
	if err != nil {
		return nil, err
	}

	acc.Password = newPassword
	acc.TwoFactorEnabled = false
	acc.TwoFactorSecret = secret
	acc.RecoveryCodes = codes

	if err := e.accounts.Upsert(acc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.metrics.RecoveryUsed()
	e.emit(ctx, AuditEvent{EventType: "account.recover", AccountID: acc.ID, Email: acc.Email, Success: true})

	return &RecoveryResult{
		RecoveryCodes: codes,
		Message:       "password reset; two-factor authentication was disabled and new recovery codes were issued",
	}, nil
}
