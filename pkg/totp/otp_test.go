package totp_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/enrollhub/twofa/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestGenerateSecret(t *testing.T) {
	t.Parallel()
	engine := totp.NewEngine(totp.WithIssuer("Acme Enrollment"))

	enr, err := engine.GenerateSecret("alice@example.com")
	require.NoError(t, err)

	assert.Regexp(t, totp.ValidateSecretKeyRegex, enr.Secret)
	assert.GreaterOrEqual(t, len(enr.Secret), 32, "160 bits need at least 32 base32 characters")
	assert.True(t, totp.ValidSecret(enr.Secret))

	u, err := url.Parse(enr.URI)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Contains(t, u.Path, "alice@example.com")
	assert.Equal(t, enr.Secret, u.Query().Get("secret"))
	assert.Equal(t, "Acme Enrollment", u.Query().Get("issuer"))

	other, err := engine.GenerateSecret("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, enr.Secret, other.Secret)
}

func TestGenerateSecretValidation(t *testing.T) {
	t.Parallel()

	_, err := totp.NewEngine().GenerateSecret("  ")
	assert.ErrorIs(t, err, totp.ErrMissingAccountName)

	_, err = totp.NewEngine(totp.WithIssuer("")).GenerateSecret("bob")
	assert.ErrorIs(t, err, totp.ErrMissingIssuer)
}

func TestVerifyWindow(t *testing.T) {
	t.Parallel()
	engine := totp.NewEngine(totp.WithClock(fixedClock))
	enr, err := engine.GenerateSecret("alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"now", 0, true},
		{"30s ago", -30 * time.Second, true},
		{"30s ahead", 30 * time.Second, true},
		{"60s ago", -60 * time.Second, true},
		{"60s ahead", 60 * time.Second, true},
		{"90s ago", -90 * time.Second, false},
		{"90s ahead", 90 * time.Second, false},
		{"5 minutes ago", -5 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, err := engine.CodeAt(enr.Secret, fixedNow.Add(tt.offset))
			require.NoError(t, err)

			// A code from a rejected step could coincide with an accepted one.
			if !tt.want {
				for i := -2; i <= 2; i++ {
					accepted, err := engine.CodeAt(enr.Secret, fixedNow.Add(time.Duration(i*30)*time.Second))
					require.NoError(t, err)
					if accepted == code {
						t.Skip("code collision between steps")
					}
				}
			}

			assert.Equal(t, tt.want, engine.Verify(enr.Secret, code))
		})
	}
}

func TestVerifyCustomWindow(t *testing.T) {
	t.Parallel()
	engine := totp.NewEngine(totp.WithClock(fixedClock), totp.WithWindow(0))
	enr, err := engine.GenerateSecret("alice")
	require.NoError(t, err)

	now, err := engine.CodeAt(enr.Secret, fixedNow)
	require.NoError(t, err)
	assert.True(t, engine.Verify(enr.Secret, now))
	assert.Equal(t, 0, engine.Window())
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	t.Parallel()
	engine := totp.NewEngine(totp.WithClock(fixedClock))
	enr, err := engine.GenerateSecret("alice")
	require.NoError(t, err)

	code, err := engine.CodeAt(enr.Secret, fixedNow)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		code   string
	}{
		{"empty code", enr.Secret, ""},
		{"five digits", enr.Secret, code[:5]},
		{"seven digits", enr.Secret, code + "0"},
		{"letters", enr.Secret, "12a456"},
		{"spaces inside", enr.Secret, code[:3] + " " + code[3:]},
		{"invalid secret", "not-a-secret!", code},
		{"empty secret", "", code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, engine.Verify(tt.secret, tt.code))
		})
	}
}

func TestVerifyAcceptsLowercaseSecretAndPaddedCode(t *testing.T) {
	t.Parallel()
	engine := totp.NewEngine(totp.WithClock(fixedClock))
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

	code, err := engine.CodeAt(secret, fixedNow)
	require.NoError(t, err)

	assert.True(t, engine.Verify("jbswy3dpehpk3pxpjbswy3dpehpk3pxp", " "+code+" "))
}

func TestCodeAtKnownVector(t *testing.T) {
	t.Parallel()
	// RFC 6238 appendix B, SHA1 seed "12345678901234567890", truncated to 6 digits.
	secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	engine := totp.NewEngine()

	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, tt := range tests {
		code, err := engine.CodeAt(secret, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.want, code)
	}
}

func TestCodeAtInvalidSecret(t *testing.T) {
	t.Parallel()
	_, err := totp.NewEngine().CodeAt("1nv@lid", fixedNow)
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)
}
