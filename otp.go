package glassauth

import (
	"crypto/subtle"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"
)

// windowCodes is the default CodeSource: a deterministic code derived
// from the secret and a 30-second time window. It is reproducible on
// any machine with a reasonably synchronized clock and is not a
// hardened TOTP implementation.
type windowCodes struct {
	digits int
	window time.Duration
	skew   int
}

func newWindowCodes(cfg CodeConfig) *windowCodes {
	if cfg.Digits <= 0 {
		cfg.Digits = 6
	}
	if cfg.Window < time.Second {
		cfg.Window = 30 * time.Second
	}
	return &windowCodes{
		digits: cfg.Digits,
		window: cfg.Window,
		skew:   cfg.Skew,
	}
}

func (w *windowCodes) codeAt(secret string, windowIndex int64) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(secret))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(strconv.FormatInt(windowIndex, 10)))

	mod := uint64(1)
	for i := 0; i < w.digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", w.digits, h.Sum64()%mod)
}

// Generate returns the code for the window containing at.
func (w *windowCodes) Generate(secret string, at time.Time) string {
	return w.codeAt(secret, at.Unix()/int64(w.window/time.Second))
}

// Verify accepts the current window plus or minus the configured skew.
// Input is trimmed and must be exactly the configured digit count.
func (w *windowCodes) Verify(secret, code string, now time.Time) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != w.digits || !isDigits(trimmed) {
		return false
	}
	if secret == "" {
		return false
	}

	base := now.Unix() / int64(w.window/time.Second)
	for step := -w.skew; step <= w.skew; step++ {
		idx := base + int64(step)
		if idx < 0 {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(w.codeAt(secret, idx)), []byte(trimmed)) == 1 {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
