package glassauth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the engine's prometheus counters. A nil receiver
// (metrics disabled) is safe on every method.
type metrics struct {
	registrations      prometheus.Counter
	logins             *prometheus.CounterVec
	challengesIssued   prometheus.Counter
	challengesVerified prometheus.Counter
	invalidCodes       prometheus.Counter
	recoveryUsed       prometheus.Counter
	verificationsSent  prometheus.Counter
	verificationsOK    prometheus.Counter
	deliveryFailures   prometheus.Counter
}

func newMetrics(cfg MetricsConfig, reg prometheus.Registerer) *metrics {
	if !cfg.Enabled {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &metrics{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "registrations_total",
			Help:      "Accounts registered.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "logins_total",
			Help:      "Login attempts by terminal result.",
		}, []string{"result"}),
		challengesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "challenges_issued_total",
			Help:      "Two-factor challenges issued.",
		}),
		challengesVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "challenges_verified_total",
			Help:      "Two-factor challenges completed.",
		}),
		invalidCodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "invalid_codes_total",
			Help:      "Rejected one-time and recovery codes.",
		}),
		recoveryUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "recovery_codes_used_total",
			Help:      "Recovery codes consumed.",
		}),
		verificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "verification_emails_sent_total",
			Help:      "Verification codes dispatched.",
		}),
		verificationsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "verifications_confirmed_total",
			Help:      "Email verifications confirmed.",
		}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "delivery_failures_total",
			Help:      "Verification email delivery failures.",
		}),
	}

	reg.MustRegister(
		m.registrations,
		m.logins,
		m.challengesIssued,
		m.challengesVerified,
		m.invalidCodes,
		m.recoveryUsed,
		m.verificationsSent,
		m.verificationsOK,
		m.deliveryFailures,
	)

	return m
}

func (m *metrics) Registration() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *metrics) Login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *metrics) ChallengeIssued() {
	if m != nil {
		m.challengesIssued.Inc()
	}
}

func (m *metrics) ChallengeVerified() {
	if m != nil {
		m.challengesVerified.Inc()
	}
}

func (m *metrics) InvalidCode() {
	if m != nil {
		m.invalidCodes.Inc()
	}
}

func (m *metrics) RecoveryUsed() {
	if m != nil {
		m.recoveryUsed.Inc()
	}
}

func (m *metrics) VerificationSent() {
	if m != nil {
		m.verificationsSent.Inc()
	}
}

func (m *metrics) VerificationConfirmed() {
	if m != nil {
		m.verificationsOK.Inc()
	}
}

func (m *metrics) DeliveryFailure() {
	if m != nil {
		m.deliveryFailures.Inc()
	}
}
