package glassauth

import (
	"time"

	"github.com/liquidglass/glassauth/store"
)

// Account is the durable account record, stored by the repository.
type Account = store.Account

// AccountStore is the durable repository the engine runs against.
// *store.FileStore satisfies it; tests substitute in-memory fakes.
type AccountStore interface {
	FindByEmail(email string) (*store.Account, error)
	FindByID(id string) (*store.Account, error)
	ListAll() ([]*store.Account, error)
	Upsert(acc *store.Account) error

	SaveSession(token string) error
	LoadSession() (string, error)
	ClearSession() error

	SetPending(p *store.PendingVerification) error
	Pending() (*store.PendingVerification, error)
	ClearPending() error
}

// CodeSource produces and checks windowed one-time codes. The default
// implementation is deterministic and unhardened; substitute a real
// TOTP primitive for production use.
type CodeSource interface {
	Generate(secret string, at time.Time) string
	Verify(secret, code string, now time.Time) bool
}

// SessionUser is the authenticated account projection handed to callers.
type SessionUser struct {
	ID               string
	Name             string
	Email            string
	CreatedAt        time.Time
	EmailVerified    bool
	TwoFactorEnabled bool
}

// LoginStatus discriminates the three terminal outcomes of a successful
// credential check.
type LoginStatus int

const (
	// LoginSuccess means a session was established.
	LoginSuccess LoginStatus = iota
	// LoginNeedsVerification means the email is still unverified.
	LoginNeedsVerification
	// LoginTwoFactorRequired means a challenge was issued.
	LoginTwoFactorRequired
)

// LoginResult is the outcome of Login.
type LoginResult struct {
	Status LoginStatus

	// User is set on LoginSuccess.
	User *SessionUser

	// Email is set on LoginNeedsVerification: the address awaiting its code.
	Email string

	// ChallengeID and Hint are set on LoginTwoFactorRequired.
	ChallengeID string
	Hint        string
}

// RegisterResult is the outcome of Register: the new account projection
// plus its freshly generated recovery codes, shown once.
//
// DeliveryError is non-nil when the account was created but the
// verification email could not be sent; it wraps ErrDeliveryFailed and
// the caller retries through ResendVerification.
type RegisterResult struct {
	User          *SessionUser
	RecoveryCodes []string
	DeliveryError error
}

// TwoFactorSetup is returned by EnableTwoFactor so the UI can show the
// shared secret, the recovery codes and a currently valid code.
type TwoFactorSetup struct {
	Secret        string
	RecoveryCodes []string
	CurrentCode   string
}

// RecoveryResult is returned by RecoverAccount after a successful reset.
type RecoveryResult struct {
	RecoveryCodes []string
	Message       string
}
