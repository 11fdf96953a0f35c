package glassauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liquidglass/glassauth/store"
)

// startVerification issues a fresh random code for acc and emails it.
// The code is only recorded after the send succeeds, so a failed send
// leaves no dangling pending state.
func (e *Engine) startVerification(ctx context.Context, acc *store.Account) error {
	code, err := newVerificationCode(e.config.Verification.Digits)
	if err != nil {
		return err
	}

	if err := e.mail.Send(ctx, acc.Email, code, acc.Name); err != nil {
		e.metrics.DeliveryFailure()
		e.emit(ctx, AuditEvent{EventType: "verification.send", AccountID: acc.ID, Email: acc.Email, Error: err.Error()})
		return fmt.Errorf("%w: %v (check the address and your network connection)", ErrDeliveryFailed, err)
	}

	expiry := time.Now().Add(e.config.Verification.TTL)
	acc.VerificationCode = code
	acc.VerificationExpiry = expiry
	if err := e.accounts.Upsert(acc); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := e.accounts.SetPending(&store.PendingVerification{Email: acc.Email, ExpiresAt: expiry}); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.metrics.VerificationSent()
	e.emit(ctx, AuditEvent{EventType: "verification.send", AccountID: acc.ID, Email: acc.Email, Success: true})
	return nil
}

// ConfirmEmail checks the emailed code and marks the account verified.
// Confirming an already verified account succeeds idempotently.
func (e *Engine) ConfirmEmail(ctx context.Context, email, code string) (*SessionUser, error) {
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

	if acc.EmailVerified {
		return sessionUserFrom(acc), nil
	}
	if acc.VerificationCode == "" {
		return nil, ErrNoPendingCode
	}
	if time.Now().After(acc.VerificationExpiry) {
		e.emit(ctx, AuditEvent{EventType: "verification.confirm", AccountID: acc.ID, Email: acc.Email, Error: ErrCodeExpired.Error()})
		return nil, ErrCodeExpired
	}
	if code != acc.VerificationCode {
		e.metrics.InvalidCode()
		e.emit(ctx, AuditEvent{EventType: "verification.confirm", AccountID: acc.ID, Email: acc.Email, Error: ErrCodeMismatch.Error()})
		return nil, ErrCodeMismatch
	}

	acc.EmailVerified = true
	acc.VerificationCode = ""
	acc.VerificationExpiry = time.Time{}
	if err := e.accounts.Upsert(acc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := e.accounts.ClearPending(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.metrics.VerificationConfirmed()
	e.emit(ctx, AuditEvent{EventType: "verification.confirm", AccountID: acc.ID, Email: acc.Email, Success: true})
	return sessionUserFrom(acc), nil
}

// ResendVerification issues and emails a fresh code, replacing any
// earlier one.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	normEmail, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	acc, err := e.accounts.FindByEmail(normEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if acc.EmailVerified {
		return ErrAlreadyVerified
	}

	return e.startVerification(ctx, acc)
}
