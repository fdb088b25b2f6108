// Package secrets provides authenticated encryption for small secrets stored
// at rest, such as TOTP shared keys.
//
// A single process-wide Cipher is built from the configured master key. The
// key material is validated (present, at least MinMasterKeyLength characters)
// and stretched with scrypt using a fixed application salt exactly once, in
// New. Encryption uses AES-256-GCM with a fresh random nonce per call; the
// nonce and authentication tag travel with the ciphertext, so decryption only
// needs the master key.
//
// # Usage
//
//	c, err := secrets.New(os.Getenv("TWO_FACTOR_MASTER_KEY"))
//	if err != nil {
//		log.Fatal(err) // missing or short key must abort startup
//	}
//
//	sealed, _ := c.Encrypt("JBSWY3DPEHPK3PXP")
//	plain, err := c.Decrypt(sealed)
//
// # Error Handling
//
// Errors are package sentinels, optionally joined with the underlying cause:
// ErrMasterKeyMissing, ErrMasterKeyTooShort, ErrInvalidCiphertext and
// ErrDecryptionFailed (tampered data or wrong key).
package secrets
