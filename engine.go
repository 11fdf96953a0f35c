package glassauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liquidglass/glassauth/mailer"
	"github.com/liquidglass/glassauth/store"
	"github.com/liquidglass/glassauth/token"
)

// Engine is the authentication core. Construct it through New();
// the zero value is not usable.
type Engine struct {
	config Config

	accounts   AccountStore
	challenges challengeStore
	codes      CodeSource
	tokens     *token.Manager
	mail       mailer.Sender
	audit      *auditDispatcher
	metrics    *metrics

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// Close stops the sweeper and flushes the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.sweepStop != nil {
		select {
		case <-e.sweepStop:
		default:
			close(e.sweepStop)
			<-e.sweepDone
		}
	}
	e.audit.Close()
}

func (e *Engine) startSweeper() {
	e.sweepStop = make(chan struct{})
	e.sweepDone = make(chan struct{})

	go func() {
		defer close(e.sweepDone)
		ticker := time.NewTicker(e.config.Challenge.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.challenges.Sweep(context.Background())
			case <-e.sweepStop:
				return
			}
		}
	}()
}

// CurrentUser returns the account behind the persisted session, or
// ErrSessionNotFound when there is no usable session. A token whose
// account no longer exists clears the stale session record.
func (e *Engine) CurrentUser(ctx context.Context) (*SessionUser, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	tok, err := e.accounts.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if tok == "" {
		return nil, ErrSessionNotFound
	}

	claims, err := e.tokens.Parse(tok)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	acc, err := e.accounts.FindByID(claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = e.accounts.ClearSession()
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.emit(ctx, AuditEvent{EventType: "session.resume", AccountID: acc.ID, Email: acc.Email, Success: true})
	return sessionUserFrom(acc), nil
}

// Logout clears the persisted session. Clearing an absent session is
// not an error; a failed store write is.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.accounts.ClearSession(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.emit(ctx, AuditEvent{EventType: "session.logout", Success: true})
	return nil
}

// establishSession signs a fresh token for acc and persists it.
func (e *Engine) establishSession(acc *store.Account) (*SessionUser, error) {
	tok, err := e.tokens.Create(acc.ID, acc.Name, acc.Email, acc.CreatedAt, acc.EmailVerified, acc.TwoFactorEnabled)
	if err != nil {
		return nil, err
	}
	if err := e.accounts.SaveSession(tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return sessionUserFrom(acc), nil
}

func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	e.audit.Emit(ctx, event)
}

func sessionUserFrom(acc *store.Account) *SessionUser {
	return &SessionUser{
		ID:               acc.ID,
		Name:             acc.Name,
		Email:            acc.Email,
		CreatedAt:        acc.CreatedAt,
		EmailVerified:    acc.EmailVerified,
		TwoFactorEnabled: acc.TwoFactorEnabled,
	}
}

// normalizeEmail lowercases and trims; anything without an "@" between
// non-empty halves is rejected.
func normalizeEmail(email string) (string, error) {
	out := strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(out, "@")
	if at <= 0 || at == len(out)-1 {
		return "", ErrInvalidEmail
	}
	return out, nil
}

// normalizeName collapses internal whitespace runs and falls back to
// the configured placeholder for empty input.
func normalizeName(name, fallback string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return fallback
	}
	return strings.Join(fields, " ")
}
