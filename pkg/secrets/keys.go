package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	// KeySize is the derived key size for AES-256.
	KeySize = 32

	// MinMasterKeyLength is the minimum accepted length of the configured master key.
	MinMasterKeyLength = 32

	// Application-specific salt. Changing it invalidates every stored secret.
	derivationSalt = "enrollhub-two-factor-secrets-v1"

	// scrypt cost parameters (N=2^15, r=8, p=1), run once per process.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ValidateMasterKey reports whether the configured key material can be used.
func ValidateMasterKey(masterKey string) error {
	masterKey = strings.TrimSpace(masterKey)
	if masterKey == "" {
		return ErrMasterKeyMissing
	}
	if len(masterKey) < MinMasterKeyLength {
		return fmt.Errorf("%w: got %d characters, need at least %d",
			ErrMasterKeyTooShort, len(masterKey), MinMasterKeyLength)
	}
	return nil
}

func deriveKey(masterKey string) ([]byte, error) {
	key, err := scrypt.Key([]byte(masterKey), []byte(derivationSalt), scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}

// GenerateMasterKey returns 48 random bytes encoded as base64, suitable for
// the TWO_FACTOR_MASTER_KEY environment variable.
func GenerateMasterKey() (string, error) {
	b := make([]byte, 48)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrKeyDerivationFailed, err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
