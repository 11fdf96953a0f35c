package glassauth

import (
	"crypto/rand"
	"encoding/base32"
	"math/big"
	"strings"
)

// Alphabet without 0/O/1/I so codes survive being read aloud or
// written down.
const recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const twoFactorSecretBytes = 20

// newRecoveryCodes generates count codes of two groups joined by a
// hyphen, e.g. "F3QK-X9ZM".
func newRecoveryCodes(count, groupLen int) ([]string, error) {
	codes := make([]string, 0, count)
	max := big.NewInt(int64(len(recoveryAlphabet)))

	for i := 0; i < count; i++ {
		var b strings.Builder
		b.Grow(groupLen*2 + 1)
		for j := 0; j < groupLen*2; j++ {
			if j == groupLen {
				b.WriteByte('-')
			}
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return nil, err
			}
			b.WriteByte(recoveryAlphabet[n.Int64()])
		}
		codes = append(codes, b.String())
	}
	return codes, nil
}

// canonicalRecoveryCode uppercases and strips spaces and hyphens so
// user input matches regardless of formatting.
func canonicalRecoveryCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if r == ' ' || r == '-' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// consumeRecoveryCode removes the first stored code matching input,
// returning the remaining set and whether a match was found.
func consumeRecoveryCode(stored []string, input string) ([]string, bool) {
	want := canonicalRecoveryCode(input)
	if want == "" {
		return stored, false
	}
	for i, c := range stored {
		if canonicalRecoveryCode(c) == want {
			out := make([]string, 0, len(stored)-1)
			out = append(out, stored[:i]...)
			out = append(out, stored[i+1:]...)
			return out, true
		}
	}
	return stored, false
}

// newTwoFactorSecret returns a random base32 shared secret.
func newTwoFactorSecret() (string, error) {
	raw := make([]byte, twoFactorSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return enc.EncodeToString(raw), nil
}

// newVerificationCode returns a random decimal code of the given width.
// It is independent of the windowed code primitive on purpose: the
// emailed code must stay valid for its full TTL.
func newVerificationCode(digits int) (string, error) {
	var b strings.Builder
	b.Grow(digits)
	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
