package totp_test

import (
	"context"
	"strings"
	"testing"

	"github.com/enrollhub/twofa/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newVault() *totp.RecoveryVault {
	return totp.NewRecoveryVault(totp.WithHashCost(bcrypt.MinCost))
}

func TestGenerateRecoveryCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{name: "Generate 10 codes", count: 10},
		{name: "Generate 1 code", count: 1},
		{name: "Generate 0 codes", count: 0, wantErr: true},
		{name: "Generate negative codes", count: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			codes, err := newVault().Generate(tt.count)
			if tt.wantErr {
				assert.ErrorIs(t, err, totp.ErrInvalidRecoveryCodeCount)
				assert.Nil(t, codes)
				return
			}

			require.NoError(t, err)
			assert.Len(t, codes, tt.count)

			seen := make(map[string]bool)
			for _, code := range codes {
				assert.Regexp(t, `^[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`, code)
				assert.True(t, totp.ValidRecoveryCode(code))
				assert.False(t, seen[code], "Duplicate code found")
				seen[code] = true
			}
		})
	}
}

func TestNormalizeRecoveryCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"ABCD-EFGH", "ABCD-EFGH"},
		{"abcd-efgh", "ABCD-EFGH"},
		{"  abcdefgh ", "ABCD-EFGH"},
		{"ABCD EFGH", "ABCD-EFGH"},
		{"ABC", "ABC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, totp.NormalizeRecoveryCode(tt.in), tt.in)
	}

	assert.False(t, totp.ValidRecoveryCode("ABC0-EFGH"), "0 is ambiguous")
	assert.False(t, totp.ValidRecoveryCode("ABCDEFGHJ"))
	assert.False(t, totp.ValidRecoveryCode(""))
}

func TestHashAll(t *testing.T) {
	t.Parallel()
	vault := newVault()
	codes, err := vault.Generate(5)
	require.NoError(t, err)

	hashes, err := vault.HashAll(context.Background(), codes)
	require.NoError(t, err)
	require.Len(t, hashes, len(codes))

	for i, hash := range hashes {
		assert.NotContains(t, hash, codes[i])
		assert.True(t, strings.HasPrefix(hash, "$2"), "bcrypt hash expected")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(codes[i])))
	}

	again, err := vault.HashAll(context.Background(), codes[:1])
	require.NoError(t, err)
	assert.NotEqual(t, hashes[0], again[0], "hashes are salted")
}

func TestConsumeIsSingleUse(t *testing.T) {
	t.Parallel()
	vault := newVault()

	codes, err := vault.Generate(10)
	require.NoError(t, err)
	hashes, err := vault.HashAll(context.Background(), codes)
	require.NoError(t, err)

	remaining, ok := vault.Consume(hashes, codes[3])
	require.True(t, ok)
	assert.Len(t, remaining, 9)
	assert.Len(t, hashes, 10, "input slice is not modified")
	assert.NotContains(t, remaining, hashes[3])

	again, ok := vault.Consume(remaining, codes[3])
	assert.False(t, ok)
	assert.Equal(t, remaining, again)

	// Other codes still work against the reduced list.
	next, ok := vault.Consume(remaining, strings.ToLower(strings.ReplaceAll(codes[7], "-", "")))
	require.True(t, ok)
	assert.Len(t, next, 8)
}

func TestConsumeNoMatch(t *testing.T) {
	t.Parallel()
	vault := newVault()

	codes, err := vault.Generate(3)
	require.NoError(t, err)
	hashes, err := vault.HashAll(context.Background(), codes)
	require.NoError(t, err)

	for _, bad := range []string{"", "nope", "AAAA-AAAA", codes[0] + "X"} {
		if bad == codes[0] || bad == codes[1] || bad == codes[2] {
			continue
		}
		remaining, ok := vault.Consume(hashes, bad)
		assert.False(t, ok, bad)
		assert.Equal(t, hashes, remaining)
	}

	remaining, ok := vault.Consume(nil, codes[0])
	assert.False(t, ok)
	assert.Empty(t, remaining)
}

func TestRecoveryVaultOptions(t *testing.T) {
	t.Parallel()
	assert.Equal(t, totp.DefaultRecoveryCodeCount, totp.NewRecoveryVault().Count())
	assert.Equal(t, 12, totp.NewRecoveryVault(totp.WithRecoveryCodeCount(12)).Count())
	assert.Equal(t, totp.DefaultRecoveryCodeCount, totp.NewRecoveryVault(totp.WithRecoveryCodeCount(0)).Count())
}
