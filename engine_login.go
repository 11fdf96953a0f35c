package glassauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liquidglass/glassauth/store"
)

// Login checks the credentials and lands on one of three outcomes:
// a session, a needs-verification signal for an unverified email, or a
// pending two-factor challenge. Unknown emails and wrong passwords are
// indistinguishable to the caller.
//
// When two-factor is enabled and code is non-empty, the code is checked
// inline and no challenge is issued.
func (e *Engine) Login(ctx context.Context, email, password, code string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	normEmail, err := normalizeEmail(email)
	if err != nil {
		e.metrics.Login("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	acc, err := e.accounts.FindByEmail(normEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.metrics.Login("invalid_credentials")
			e.emit(ctx, AuditEvent{EventType: "login", Email: normEmail, Error: ErrInvalidCredentials.Error()})
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if acc.Password != password {
		e.metrics.Login("invalid_credentials")
		e.emit(ctx, AuditEvent{EventType: "login", AccountID: acc.ID, Email: acc.Email, Error: ErrInvalidCredentials.Error()})
		return nil, ErrInvalidCredentials
	}

	if !acc.EmailVerified {
		e.metrics.Login("needs_verification")
		e.emit(ctx, AuditEvent{EventType: "login", AccountID: acc.ID, Email: acc.Email, Success: true,
			Metadata: map[string]string{"outcome": "needs_verification"}})
		return &LoginResult{Status: LoginNeedsVerification, Email: acc.Email}, nil
	}

	if acc.TwoFactorEnabled {
		if code != "" {
			if !e.codes.Verify(acc.TwoFactorSecret, code, time.Now()) {
				e.metrics.InvalidCode()
				e.emit(ctx, AuditEvent{EventType: "login", AccountID: acc.ID, Email: acc.Email, Error: ErrInvalidCode.Error()})
				return nil, ErrInvalidCode
			}
			return e.loginSucceed(ctx, acc)
		}
		return e.issueChallenge(ctx, acc)
	}

	return e.loginSucceed(ctx, acc)
}

func (e *Engine) loginSucceed(ctx context.Context, acc *store.Account) (*LoginResult, error) {
	user, err := e.establishSession(acc)
	if err != nil {
		return nil, err
	}
	e.metrics.Login("success")
	e.emit(ctx, AuditEvent{EventType: "login", AccountID: acc.ID, Email: acc.Email, Success: true})
	return &LoginResult{Status: LoginSuccess, User: user}, nil
}

func (e *Engine) issueChallenge(ctx context.Context, acc *store.Account) (*LoginResult, error) {
	id := uuid.NewString()
	ttl := e.config.Challenge.TTL
	rec := &challenge{
		AccountID: acc.ID,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	if err := e.challenges.Save(ctx, id, rec, ttl); err != nil {
		return nil, err
	}

	hint := "enter the code from your authenticator, or a recovery code"
	if e.config.Challenge.IncludeCodeInHint {
		hint = fmt.Sprintf("%s (current code: %s)", hint, e.codes.Generate(acc.TwoFactorSecret, time.Now()))
	}

	e.metrics.ChallengeIssued()
	e.metrics.Login("challenge")
	e.emit(ctx, AuditEvent{EventType: "challenge.issue", AccountID: acc.ID, Email: acc.Email, Success: true})

	return &LoginResult{
		Status:      LoginTwoFactorRequired,
		ChallengeID: id,
		Hint:        hint,
	}, nil
}

// VerifyChallenge completes a pending two-factor login with either a
// one-time code or a recovery code. A non-empty recovery code wins over
// the one-time code. The challenge is consumed only on success; a wrong
// code leaves it live for another attempt until it expires.
func (e *Engine) VerifyChallenge(ctx context.Context, challengeID, code, recoveryCode string) (*SessionUser, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.challenges.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	acc, err := e.accounts.FindByID(rec.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _ = e.challenges.Delete(ctx, challengeID)
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if recoveryCode != "" {
		remaining, ok := consumeRecoveryCode(acc.RecoveryCodes, recoveryCode)
		if !ok {
			e.metrics.InvalidCode()
			e.emit(ctx, AuditEvent{EventType: "challenge.verify", AccountID: acc.ID, Error: ErrInvalidRecoveryCode.Error()})
			return nil, ErrInvalidRecoveryCode
		}
		acc.RecoveryCodes = remaining
		if len(acc.RecoveryCodes) == 0 {
			fresh, err := newRecoveryCodes(e.config.Recovery.Count, e.config.Recovery.GroupLength)
			if err != nil {
				return nil, err
			}
			acc.RecoveryCodes = fresh
		}
		if err := e.accounts.Upsert(acc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		e.metrics.RecoveryUsed()
	} else {
		if !e.codes.Verify(acc.TwoFactorSecret, code, time.Now()) {
			e.metrics.InvalidCode()
			e.emit(ctx, AuditEvent{EventType: "challenge.verify", AccountID: acc.ID, Error: ErrInvalidCode.Error()})
			return nil, ErrInvalidCode
		}
	}

	deleted, err := e.challenges.Delete(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// lost the race to a concurrent verify
		return nil, ErrChallengeNotFound
	}

	user, err := e.establishSession(acc)
	if err != nil {
		return nil, err
	}

	e.metrics.ChallengeVerified()
	e.emit(ctx, AuditEvent{EventType: "challenge.verify", AccountID: acc.ID, Email: acc.Email, Success: true})
	return user, nil
}
