// Package store persists account state to a single JSON file.
//
// The file is the application's only durable state: the ordered account
// list, the active session token (if any), and a pending-verification
// hint used to resume an interrupted signup. Writes go through a
// temp-file rename so a crash never leaves a torn file behind.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrConflict is returned when an upsert would shadow a verified account's email.
	ErrConflict = errors.New("email already registered")
)

// Account is the durable record for one registered user. Secrets
// (password, two-factor secret, codes) live here in plain form; the
// store is a local single-user file, not a server-side credential DB.
type Account struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Password         string    `json:"password"`
	CreatedAt        time.Time `json:"created_at"`
	EmailVerified    bool      `json:"email_verified"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorSecret  string    `json:"two_factor_secret,omitempty"`
	RecoveryCodes    []string  `json:"recovery_codes,omitempty"`

	VerificationCode   string    `json:"verification_code,omitempty"`
	VerificationExpiry time.Time `json:"verification_expiry,omitempty"`
}

// Clone returns a deep copy so callers can mutate freely before Upsert.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.RecoveryCodes = append([]string(nil), a.RecoveryCodes...)
	return &out
}

// PendingVerification marks a signup whose email confirmation is still
// outstanding, so the flow can be resumed after a restart.
type PendingVerification struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type state struct {
	Accounts      []*Account           `json:"accounts"`
	ActiveSession string               `json:"active_session,omitempty"`
	Pending       *PendingVerification `json:"pending_verification,omitempty"`
}

// FileStore is a mutex-guarded JSON file repository. It assumes a
// single process owns the file; there is no cross-process locking.
type FileStore struct {
	path string

	mu sync.Mutex
	st state
}

// Open loads the state file at path, creating parent directories as
// needed. A missing file yields an empty store; a corrupt file is an
// error rather than a silent reset.
func Open(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &FileStore{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.st); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(&s.st, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

// FindByEmail matches on the already-normalized email.
func (s *FileStore) FindByEmail(email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.st.Accounts {
		if a.Email == email {
			return a.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// FindByID looks up an account by its identifier.
func (s *FileStore) FindByID(id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.st.Accounts {
		if a.ID == id {
			return a.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// ListAll returns the accounts in insertion order.
func (s *FileStore) ListAll() ([]*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Account, 0, len(s.st.Accounts))
	for _, a := range s.st.Accounts {
		out = append(out, a.Clone())
	}
	return out, nil
}

// Upsert inserts or replaces an account and flushes to disk.
//
// The store keeps at most one record per email. An account whose email
// collides with a verified record (other than itself) fails with
// ErrConflict, whether it is new or an existing record changing its
// email. Colliding unverified records are superseded and removed,
// matching the signup flow where an abandoned registration may be
// retried with the same address.
func (s *FileStore) Upsert(acc *Account) error {
	if acc == nil || acc.ID == "" {
		return errors.New("account id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.st.Accounts {
		if existing.ID != acc.ID && existing.Email == acc.Email && existing.EmailVerified {
			return ErrConflict
		}
	}

	// Replace the record with acc's ID and drop any stale unverified
	// holder of acc's email, in one pass. acc lands in the earliest of
	// those slots so insertion order stays stable.
	out := make([]*Account, 0, len(s.st.Accounts)+1)
	inserted := false
	for _, existing := range s.st.Accounts {
		if existing.ID == acc.ID || existing.Email == acc.Email {
			if !inserted {
				out = append(out, acc.Clone())
				inserted = true
			}
			continue
		}
		out = append(out, existing)
	}
	if !inserted {
		out = append(out, acc.Clone())
	}

	s.st.Accounts = out
	return s.flushLocked()
}

// SaveSession persists the active session token.
func (s *FileStore) SaveSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.ActiveSession = token
	return s.flushLocked()
}

// LoadSession returns the persisted session token, empty if none.
func (s *FileStore) LoadSession() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.st.ActiveSession, nil
}

// ClearSession removes the active session token.
func (s *FileStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.ActiveSession == "" {
		return nil
	}
	s.st.ActiveSession = ""
	return s.flushLocked()
}

// SetPending records the outstanding email verification.
func (s *FileStore) SetPending(p *PendingVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.Pending = p
	return s.flushLocked()
}

// Pending returns the outstanding verification hint, nil if none.
func (s *FileStore) Pending() (*PendingVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.Pending == nil {
		return nil, nil
	}
	p := *s.st.Pending
	return &p, nil
}

// ClearPending removes the verification hint.
func (s *FileStore) ClearPending() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.Pending == nil {
		return nil
	}
	s.st.Pending = nil
	return s.flushLocked()
}
