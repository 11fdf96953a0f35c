package glassauth

import "errors"

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailConflict is returned when a verified account already owns the email.
	ErrEmailConflict = errors.New("email already registered")
	// ErrWeakPassword is returned when a password is shorter than the minimum.
	ErrWeakPassword = errors.New("password too short")
	// ErrInvalidEmail is returned when an email fails normalization checks.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrAccountNotFound is returned by lookups that name their target.
	ErrAccountNotFound = errors.New("account not found")
	// ErrChallengeNotFound covers unknown, expired and already-used challenges.
	ErrChallengeNotFound = errors.New("challenge not found or expired")
	// ErrInvalidCode is returned for a wrong one-time code.
	ErrInvalidCode = errors.New("invalid code")
	// ErrInvalidRecoveryCode is returned when no stored recovery code matches.
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
	// ErrNoPendingCode is returned when confirming an email with no code issued.
	ErrNoPendingCode = errors.New("no verification code pending")
	// ErrCodeMismatch is returned when the verification code does not match.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrCodeExpired is returned when the verification code is past its expiry.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrAlreadyVerified is returned when resending a code to a verified account.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrTwoFactorAlreadyEnabled is returned by EnableTwoFactor on an enabled account.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor already enabled")
	// ErrDeliveryFailed wraps email transport failures.
	ErrDeliveryFailed = errors.New("verification email delivery failed")
	// ErrPersistence wraps account store write failures.
	ErrPersistence = errors.New("account store write failed")
	// ErrSessionNotFound is returned when no valid session is persisted.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEngineNotReady is returned when the engine was not built correctly.
	ErrEngineNotReady = errors.New("engine not initialized")
)
