// Command glassauth-demo runs the full account lifecycle against a
// throwaway state file: register, confirm the email, log in, enable
// two-factor, complete a challenge with a recovery code, and print the
// engine counters at the end.
//
// Configuration comes from the environment (optionally a .env file).
// With no SMTP_HOST set, verification codes go to the process log.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/liquidglass/glassauth"
	"github.com/liquidglass/glassauth/store"
)

// captureSender records the last code instead of sending mail, so the
// demo can complete the verification flow without an inbox.
type captureSender struct {
	lastCode string
}

func (c *captureSender) Send(_ context.Context, email, code, _ string) error {
	c.lastCode = code
	log.Printf("demo: verification code for %s: %s", email, code)
	return nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := glassauth.ConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dir, err := os.MkdirTemp("", "glassauth-demo-*")
	if err != nil {
		log.Fatalf("tempdir: %v", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "state.json"))
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	mail := &captureSender{}
	registry := prometheus.NewRegistry()

	engine, err := glassauth.New().
		WithConfig(cfg).
		WithStore(st).
		WithMailer(mail).
		WithMetricsRegistry(registry).
		WithAuditSink(glassauth.NewJSONWriterSink(os.Stderr)).
		Build()
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()

	reg, err := engine.Register(ctx, "Demo User", "demo@example.com", "hunter22")
	if err != nil {
		log.Fatalf("register: %v", err)
	}
	fmt.Printf("registered %s (%s)\n", reg.User.Email, reg.User.ID)

	if _, err := engine.ConfirmEmail(ctx, reg.User.Email, mail.lastCode); err != nil {
		log.Fatalf("confirm: %v", err)
	}
	fmt.Println("email confirmed")

	res, err := engine.Login(ctx, reg.User.Email, "hunter22", "")
	if err != nil || res.Status != glassauth.LoginSuccess {
		log.Fatalf("login: %v (status %v)", err, res)
	}
	fmt.Println("logged in")

	setup, err := engine.EnableTwoFactor(ctx, reg.User.ID)
	if err != nil {
		log.Fatalf("enable 2fa: %v", err)
	}
	fmt.Printf("two-factor enabled, %d recovery codes issued\n", len(setup.RecoveryCodes))

	if err := engine.Logout(ctx); err != nil {
		log.Fatalf("logout: %v", err)
	}

	res, err = engine.Login(ctx, reg.User.Email, "hunter22", "")
	if err != nil || res.Status != glassauth.LoginTwoFactorRequired {
		log.Fatalf("login with 2fa: %v", err)
	}
	fmt.Printf("challenge issued: %s\n", res.Hint)

	user, err := engine.VerifyChallenge(ctx, res.ChallengeID, "", setup.RecoveryCodes[0])
	if err != nil {
		log.Fatalf("verify challenge: %v", err)
	}
	fmt.Printf("challenge passed, session for %s\n", user.Email)

	families, err := registry.Gather()
	if err != nil {
		log.Fatalf("gather: %v", err)
	}
	fmt.Println("counters:")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			fmt.Printf("  %s%s = %.0f\n", mf.GetName(), labels, m.GetCounter().GetValue())
		}
	}
}
