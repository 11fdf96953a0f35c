package glassauth

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full engine configuration tree. Zero values are filled
// from defaultConfig; Validate runs at build time.
type Config struct {
	App          AppConfig
	Code         CodeConfig
	Verification VerificationConfig
	Challenge    ChallengeConfig
	Recovery     RecoveryConfig
	Session      SessionConfig
	SMTP         SMTPConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// AppConfig names the application and sets account policy knobs.
type AppConfig struct {
	Name               string `env:"APP_NAME"`
	MinPasswordLength  int
	DefaultDisplayName string
}

// CodeConfig controls the windowed one-time code primitive.
type CodeConfig struct {
	Digits int
	Window time.Duration
	Skew   int
}

// VerificationConfig controls the email verification codes.
type VerificationConfig struct {
	Digits int
	TTL    time.Duration
}

// ChallengeConfig controls pending two-factor login challenges.
type ChallengeConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration

	// IncludeCodeInHint keeps the demo-friendly behavior of embedding a
	// currently valid code in the challenge hint. Turn off outside demos.
	IncludeCodeInHint bool

	// RedisPrefix namespaces challenge keys when a redis client is supplied.
	RedisPrefix string
}

// RecoveryConfig controls single-use recovery codes.
type RecoveryConfig struct {
	Count       int
	GroupLength int
}

// SessionConfig controls the signed persisted session record.
type SessionConfig struct {
	Secret string `env:"SESSION_SECRET"`
	TTL    time.Duration
	Issuer string
}

// SMTPConfig mirrors the SMTP_* environment surface. An empty Host
// selects the logging dev mailer.
type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"SMTP_FROM"`
	UseTLS   bool          `env:"SMTP_USE_TLS"`
	UseSSL   bool          `env:"SMTP_USE_SSL"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT"`
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls prometheus counter registration.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

func defaultConfig() Config {
	return Config{
		App: AppConfig{
			Name:               "App",
			MinPasswordLength:  6,
			DefaultDisplayName: "User",
		},
		Code: CodeConfig{
			Digits: 6,
			Window: 30 * time.Second,
			Skew:   1,
		},
		Verification: VerificationConfig{
			Digits: 6,
			TTL:    15 * time.Minute,
		},
		Challenge: ChallengeConfig{
			TTL:               3 * time.Minute,
			SweepInterval:     30 * time.Second,
			IncludeCodeInHint: true,
			RedisPrefix:       "gac",
		},
		Recovery: RecoveryConfig{
			Count:       6,
			GroupLength: 4,
		},
		Session: SessionConfig{
			// Stable development secret so the persisted session survives
			// restarts out of the box. Override via SESSION_SECRET.
			Secret: "glassauth-local-development-secret-0",
			TTL:    30 * 24 * time.Hour,
			Issuer: "glassauth",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "glassauth",
		},
	}
}

// ConfigFromEnv layers environment bindings over the defaults.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.App.MinPasswordLength < 1 {
		return errors.New("App.MinPasswordLength must be at least 1")
	}
	if c.Code.Digits < 4 || c.Code.Digits > 10 {
		return errors.New("Code.Digits must be between 4 and 10")
	}
	if c.Code.Window <= 0 {
		return errors.New("Code.Window must be positive")
	}
	if c.Code.Skew < 0 {
		return errors.New("Code.Skew must not be negative")
	}
	if c.Verification.Digits < 4 || c.Verification.Digits > 10 {
		return errors.New("Verification.Digits must be between 4 and 10")
	}
	if c.Verification.TTL <= 0 {
		return errors.New("Verification.TTL must be positive")
	}
	if c.Challenge.TTL <= 0 {
		return errors.New("Challenge.TTL must be positive")
	}
	if c.Challenge.SweepInterval <= 0 {
		return errors.New("Challenge.SweepInterval must be positive")
	}
	if c.Recovery.Count < 1 {
		return errors.New("Recovery.Count must be at least 1")
	}
	if c.Recovery.GroupLength < 2 {
		return errors.New("Recovery.GroupLength must be at least 2")
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("Session.Secret must be at least 32 bytes")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session.TTL must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("Audit.BufferSize must be at least 1")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a full copy.
	return cfg
}
