// Package token signs and parses the locally persisted session record.
//
// The token is a tamper-evidence measure for the state file, not a
// server-side credential: there is no server to revoke it, so expiry and
// signature are the only checks.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minSecretBytes = 32

// ErrTokenInvalid covers malformed, mis-signed, and expired tokens.
var ErrTokenInvalid = errors.New("invalid session token")

// Config configures the HS256 session token manager.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// SessionClaims is the account projection embedded in the token.
// Subject carries the account ID. No secrets are ever included.
type SessionClaims struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Verified  bool      `json:"verified"`
	TwoFactor bool      `json:"two_factor"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a single HS256 key.
type Manager struct {
	config Config
}

// NewManager validates the config and returns a manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	return &Manager{config: cfg}, nil
}

// Create signs a session token for the given account projection.
func (m *Manager) Create(accountID, name, email string, createdAt time.Time, verified, twoFactor bool) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Name:      name,
		Email:     email,
		CreatedAt: createdAt,
		Verified:  verified,
		TwoFactor: twoFactor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.config.Secret)
}

// Parse verifies the signature and expiry and returns the claims.
func (m *Manager) Parse(tokenStr string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := tok.Claims.(*SessionClaims)
	if !ok || !tok.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
