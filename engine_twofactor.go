package glassauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liquidglass/glassauth/store"
)

// EnableTwoFactor turns on two-factor login for the account. An
// existing shared secret is kept so an authenticator app enrolled
// during a previous enable keeps working; recovery codes are always
// rotated. The result carries a currently valid code for enrollment
// confirmation in the UI.
func (e *Engine) EnableTwoFactor(ctx context.Context, accountID string) (*TwoFactorSetup, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	acc, err := e.findAccount(accountID)
	if err != nil {
		return nil, err
	}
	if acc.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	if acc.TwoFactorSecret == "" {
		secret, err := newTwoFactorSecret()
		if err != nil {
			return nil, err
		}
		acc.TwoFactorSecret = secret
	}

	codes, err := newRecoveryCodes(e.config.Recovery.Count, e.config.Recovery.GroupLength)
	if err != nil {
		return nil, err
	}
	acc.TwoFactorEnabled = true
	acc.RecoveryCodes = codes

	if err := e.accounts.Upsert(acc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.emit(ctx, AuditEvent{EventType: "twofactor.enable", AccountID: acc.ID, Email: acc.Email, Success: true})
	return &TwoFactorSetup{
		Secret:        acc.TwoFactorSecret,
		RecoveryCodes: codes,
		CurrentCode:   e.codes.Generate(acc.TwoFactorSecret, time.Now()),
	}, nil
}

// DisableTwoFactor turns two-factor off, rotating the shared secret and
// the recovery codes so stale copies of either are worthless. Disabling
// an account that has it off already is a no-op.
func (e *Engine) DisableTwoFactor(ctx context.Context, accountID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	acc, err := e.findAccount(accountID)
	if err != nil {
		return err
	}
	if !acc.TwoFactorEnabled {
		return nil
	}

	secret, err := newTwoFactorSecret()
	if err != nil {
		return err
	}
	codes, err := newRecoveryCodes(e.config.Recovery.Count, e.config.Recovery.GroupLength)
	if err != nil {
		return err
	}

	acc.TwoFactorEnabled = false
	acc.TwoFactorSecret = secret
	acc.RecoveryCodes = codes

	if err := e.accounts.Upsert(acc); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.emit(ctx, AuditEvent{EventType: "twofactor.disable", AccountID: acc.ID, Email: acc.Email, Success: true})
	return nil
}

// RegenerateRecoveryCodes replaces the account's recovery codes and
// returns the new set.
func (e *Engine) RegenerateRecoveryCodes(ctx context.Context, accountID string) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	acc, err := e.findAccount(accountID)
	if err != nil {
		return nil, err
	}

	codes, err := newRecoveryCodes(e.config.Recovery.Count, e.config.Recovery.GroupLength)
	if err != nil {
		return nil, err
	}
	acc.RecoveryCodes = codes

	if err := e.accounts.Upsert(acc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.emit(ctx, AuditEvent{EventType: "twofactor.regenerate_codes", AccountID: acc.ID, Email: acc.Email, Success: true})
	return codes, nil
}

func (e *Engine) findAccount(accountID string) (*store.Account, error) {
	acc, err := e.accounts.FindByID(accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return acc, nil
}
