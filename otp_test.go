package glassauth

import (
	"testing"
	"time"
)

func testCodes() *windowCodes {
	return newWindowCodes(CodeConfig{Digits: 6, Window: 30 * time.Second, Skew: 1})
}

func TestGenerateIsDeterministicWithinWindow(t *testing.T) {
	w := testCodes()
	base := time.Unix(1_700_000_010, 0)

	a := w.Generate("secret", base)
	b := w.Generate("secret", base.Add(5*time.Second))
	if a != b {
		t.Fatalf("codes within one window differ: %s vs %s", a, b)
	}
	if len(a) != 6 {
		t.Fatalf("expected 6 digits, got %q", a)
	}
	if !isDigits(a) {
		t.Fatalf("expected numeric code, got %q", a)
	}
}

func TestGenerateChangesAcrossWindowsAndSecrets(t *testing.T) {
	w := testCodes()
	base := time.Unix(1_700_000_010, 0)

	if w.Generate("secret", base) == w.Generate("secret", base.Add(60*time.Second)) {
		t.Fatal("codes two windows apart should differ")
	}
	if w.Generate("secret-a", base) == w.Generate("secret-b", base) {
		t.Fatal("codes for different secrets should differ")
	}
}

func TestVerifyAcceptsAdjacentWindows(t *testing.T) {
	w := testCodes()
	now := time.Unix(1_700_000_045, 0)

	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		code := w.Generate("secret", now.Add(offset))
		if !w.Verify("secret", code, now) {
			t.Fatalf("code at offset %v rejected", offset)
		}
	}

	old := w.Generate("secret", now.Add(-90*time.Second))
	if w.Verify("secret", old, now) {
		t.Fatal("code three windows back accepted")
	}
}

func TestVerifyRejectsBeyondSkew(t *testing.T) {
	w := testCodes()
	now := time.Unix(1_700_000_045, 0)

	// two windows out in either direction is past the one-window skew
	for _, offset := range []time.Duration{-60 * time.Second, 60 * time.Second} {
		code := w.Generate("secret", now.Add(offset))
		if w.Verify("secret", code, now) {
			t.Fatalf("code at offset %v accepted", offset)
		}
	}
}

func TestVerifyTrimsWhitespace(t *testing.T) {
	w := testCodes()
	now := time.Unix(1_700_000_045, 0)

	code := w.Generate("secret", now)
	if !w.Verify("secret", "  "+code+"\n", now) {
		t.Fatal("whitespace-wrapped code rejected")
	}
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	w := testCodes()
	now := time.Unix(1_700_000_045, 0)

	for _, bad := range []string{"", "12345", "1234567", "12a456", "abcdef"} {
		if w.Verify("secret", bad, now) {
			t.Fatalf("malformed code %q accepted", bad)
		}
	}

	code := w.Generate("", now)
	if w.Verify("", code, now) {
		t.Fatal("empty secret must never verify")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	w := testCodes()
	now := time.Unix(1_700_000_045, 0)

	code := w.Generate("secret-a", now)
	if w.Verify("secret-b", code, now) {
		t.Fatal("code for another secret accepted")
	}
}
