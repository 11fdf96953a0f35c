package glassauth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/liquidglass/glassauth/mailer"
	"github.com/liquidglass/glassauth/token"
)

// Builder assembles an Engine. A builder is single-use.
type Builder struct {
	config Config
	redis  *redis.Client

	accounts  AccountStore
	mail      mailer.Sender
	codes     CodeSource
	auditSink AuditSink
	registry  prometheus.Registerer

	built bool
}

// New returns a builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the required account repository.
func (b *Builder) WithStore(s AccountStore) *Builder {
	b.accounts = s
	return b
}

// WithMailer overrides the sender derived from the SMTP config.
func (b *Builder) WithMailer(m mailer.Sender) *Builder {
	b.mail = m
	return b
}

// WithRedis switches the challenge registry to redis-backed storage.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCodeSource overrides the one-time code primitive.
func (b *Builder) WithCodeSource(c CodeSource) *Builder {
	b.codes = c
	return b
}

// WithAuditSink sets the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsRegistry registers counters on reg instead of the
// prometheus default registerer.
func (b *Builder) WithMetricsRegistry(reg prometheus.Registerer) *Builder {
	b.registry = reg
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}

	tokens, err := token.NewManager(token.Config{
		Secret: []byte(cfg.Session.Secret),
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		accounts: b.accounts,
		tokens:   tokens,
	}

	if b.codes != nil {
		engine.codes = b.codes
	} else {
		engine.codes = newWindowCodes(cfg.Code)
	}

	if b.mail != nil {
		engine.mail = b.mail
	} else {
		engine.mail = mailer.NewSenderFromConfig(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			UseTLS:   cfg.SMTP.UseTLS,
			UseSSL:   cfg.SMTP.UseSSL,
			Timeout:  cfg.SMTP.Timeout,
			AppName:  cfg.App.Name,
		})
	}

	if b.redis != nil {
		engine.challenges = newRedisChallengeStore(b.redis, cfg.Challenge.RedisPrefix)
	} else {
		engine.challenges = newMemoryChallengeStore()
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = newMetrics(cfg.Metrics, b.registry)
	engine.startSweeper()

	b.built = true
	return engine, nil
}
