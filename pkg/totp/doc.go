// Package totp implements the authenticator-app side of two-factor
// authentication: RFC 6238 secret provisioning, enrollment URIs, time-windowed
// code verification and single-use recovery codes.
//
// # Architecture
//
//   • Engine – otp.go wraps github.com/pquerna/otp for secret generation and
//     per-step code computation, and adds constant-time verification across a
//     configurable skew window (±2 steps of 30 seconds by default).
//
//   • RecoveryVault – recovery.go creates human-typable backup codes
//     (XXXX-XXXX, no ambiguous characters), hashes them with bcrypt on a
//     bounded worker pool and consumes them one at a time.
//
// Encrypting secrets at rest is handled by package secrets.
//
// # Usage
//
//	engine := totp.NewEngine(totp.WithIssuer("Acme"))
//	enr, _ := engine.GenerateSecret("alice@example.com")
//	// render enr.URI as a QR code, keep enr.Secret on the client until confirmation
//	ok := engine.Verify(enr.Secret, "123456")
//
//	vault := totp.NewRecoveryVault()
//	codes, _ := vault.Generate(vault.Count())
//	hashes, _ := vault.HashAll(ctx, codes)
//	hashes, ok = vault.Consume(hashes, codes[0])
//
// # Error Handling
//
// Verification never errors: malformed codes or secrets fail the check.
// Generation and hashing return package sentinels (ErrMissingAccountName,
// ErrInvalidRecoveryCodeCount, ...) joined with the underlying cause.
//
// # See Also
//
//   • RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   • RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
package totp
