// Package glassauth is the account and two-factor authentication core
// of a local, single-user application: password registration with
// deferred email verification, windowed one-time login codes, pending
// two-factor challenges, single-use recovery codes, and a JSON-file
// account repository with a signed persisted session record.
//
// Engine methods are safe for concurrent use after construction through
// [Builder.Build]. The engine owns a background sweeper for expired
// challenges and an optional audit dispatcher; call [Engine.Close] to
// stop both.
//
// # Trust model
//
// This is a local-first core, not a hardened identity server. Passwords
// are stored as entered, one-time codes are deterministic rather than
// RFC 6238 TOTP, and the persisted session is tamper-evident (signed)
// but not revocable. Each of these is a deliberate boundary: swap in a
// real hash, a real TOTP source via [CodeSource], and a server-side
// session when the surrounding application grows a server.
package glassauth
