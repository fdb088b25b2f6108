package secrets

import "errors"

var (
	// Key material errors
	ErrMasterKeyMissing  = errors.New("master key is not configured")
	ErrMasterKeyTooShort = errors.New("master key is too short")

	// Encryption/decryption errors
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	// Key derivation errors
	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
