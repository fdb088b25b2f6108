package totp

import (
	"context"
	"crypto/rand"
	"errors"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/enrollhub/twofa/pkg/async"
)

const (
	DefaultRecoveryCodeCount = 10
	DefaultRecoveryHashCost  = bcrypt.DefaultCost

	// recoveryAlphabet has 32 symbols without 0/O and 1/I, so byte%32 is unbiased.
	recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	recoveryHalf     = 4
)

// RecoveryVault generates, hashes and consumes single-use backup codes.
// Codes look like "K7QX-M2PA"; only their bcrypt hashes are ever stored.
type RecoveryVault struct {
	count   int
	cost    int
	workers int
}

type RecoveryOption func(*RecoveryVault)

// WithRecoveryCodeCount sets how many codes Generate produces by default.
func WithRecoveryCodeCount(n int) RecoveryOption {
	return func(v *RecoveryVault) {
		if n > 0 {
			v.count = n
		}
	}
}

// WithHashCost sets the bcrypt cost factor.
func WithHashCost(cost int) RecoveryOption {
	return func(v *RecoveryVault) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			v.cost = cost
		}
	}
}

// WithHashWorkers bounds how many codes are hashed in parallel.
func WithHashWorkers(n int) RecoveryOption {
	return func(v *RecoveryVault) {
		v.workers = n
	}
}

func NewRecoveryVault(opts ...RecoveryOption) *RecoveryVault {
	v := &RecoveryVault{
		count: DefaultRecoveryCodeCount,
		cost:  DefaultRecoveryHashCost,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Count returns the default batch size.
func (v *RecoveryVault) Count() int {
	return v.count
}

// Generate creates count cryptographically random codes.
func (v *RecoveryVault) Generate(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidRecoveryCodeCount
	}

	codes := make([]string, count)
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; {
		code, err := randomRecoveryCode()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes[i] = code
		i++
	}
	return codes, nil
}

// HashAll hashes every code independently on a bounded worker pool.
// The result is aligned with the input.
func (v *RecoveryVault) HashAll(ctx context.Context, codes []string) ([]string, error) {
	return async.Map(ctx, codes, v.workers, func(_ context.Context, code string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(NormalizeRecoveryCode(code)), v.cost)
		if err != nil {
			return "", errors.Join(ErrFailedToHashRecoveryCode, err)
		}
		return string(hash), nil
	})
}

// Consume looks for a hash matching the submitted code, scanning in insertion
// order. On a match it returns a new slice without that entry. Otherwise the
// original slice is returned unchanged with ok=false.
func (v *RecoveryVault) Consume(hashes []string, submitted string) (remaining []string, ok bool) {
	code := NormalizeRecoveryCode(submitted)
	if !ValidRecoveryCode(code) {
		return hashes, false
	}

	for i, hash := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil {
			return slices.Delete(slices.Clone(hashes), i, i+1), true
		}
	}
	return hashes, false
}

// NormalizeRecoveryCode upper-cases the input, drops whitespace and restores
// the dash when the user typed the code without it.
func NormalizeRecoveryCode(code string) string {
	code = strings.ToUpper(strings.Join(strings.Fields(code), ""))
	if len(code) == 2*recoveryHalf && !strings.Contains(code, "-") {
		code = code[:recoveryHalf] + "-" + code[recoveryHalf:]
	}
	return code
}

// ValidRecoveryCode reports whether code is in canonical XXXX-XXXX form.
func ValidRecoveryCode(code string) bool {
	if len(code) != 2*recoveryHalf+1 || code[recoveryHalf] != '-' {
		return false
	}
	for i, r := range code {
		if i == recoveryHalf {
			continue
		}
		if !strings.ContainsRune(recoveryAlphabet, r) {
			return false
		}
	}
	return true
}

func randomRecoveryCode() (string, error) {
	buf := make([]byte, 2*recoveryHalf)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrFailedToGenerateRecoveryCode, err)
	}

	var sb strings.Builder
	sb.Grow(len(buf) + 1)
	for i, b := range buf {
		if i == recoveryHalf {
			sb.WriteByte('-')
		}
		sb.WriteByte(recoveryAlphabet[int(b)%len(recoveryAlphabet)])
	}
	return sb.String(), nil
}
