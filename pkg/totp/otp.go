package totp

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	DefaultDigits     = 6  // Standard 6-digit TOTP codes
	DefaultPeriod     = 30 // 30-second time step (RFC 6238 standard)
	DefaultWindow     = 2  // Accept ±2 steps of clock skew
	DefaultSecretSize = 20 // 160-bit secret (RFC 4226 recommendation)
)

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	codeRegex = regexp.MustCompile(`^\d{6}$`)
)

// Enrollment is the material handed to a principal when they start enrolling
// an authenticator app.
type Enrollment struct {
	Secret string // Base32-encoded shared secret, no padding
	URI    string // otpauth:// URI for QR rendering
}

// Engine generates and verifies RFC 6238 codes.
type Engine struct {
	issuer string
	window int
	now    func() time.Time
}

type EngineOption func(*Engine)

// WithIssuer sets the issuer embedded in enrollment URIs.
func WithIssuer(issuer string) EngineOption {
	return func(e *Engine) {
		e.issuer = issuer
	}
}

// WithWindow sets how many time steps before and after the current one are accepted.
func WithWindow(steps int) EngineOption {
	return func(e *Engine) {
		if steps >= 0 {
			e.window = steps
		}
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		issuer: "EnrollHub",
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the configured skew tolerance in steps.
func (e *Engine) Window() int {
	return e.window
}

// GenerateSecret creates a fresh random secret and the matching enrollment URI
// for the given account label (usually an email address).
func (e *Engine) GenerateSecret(label string) (Enrollment, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Enrollment{}, ErrMissingAccountName
	}
	if e.issuer == "" {
		return Enrollment{}, ErrMissingIssuer
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: label,
		Period:      DefaultPeriod,
		SecretSize:  DefaultSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		Rand:        rand.Reader,
	})
	if err != nil {
		return Enrollment{}, errors.Join(ErrFailedToGenerateSecretKey, err)
	}

	return Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// Verify reports whether code matches the secret at the current step or any
// step within the window. Every offset is computed and compared so the
// timing does not reveal which one matched. Malformed codes or secrets
// simply fail.
func (e *Engine) Verify(secret, code string) bool {
	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return false
	}
	secret = normalizeSecret(secret)
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return false
	}

	now := e.now()
	match := 0
	for i := -e.window; i <= e.window; i++ {
		expected, err := e.CodeAt(secret, now.Add(time.Duration(i*DefaultPeriod)*time.Second))
		if err != nil {
			return false
		}
		match |= subtle.ConstantTimeCompare([]byte(expected), []byte(code))
	}
	return match == 1
}

// CodeAt returns the code for the time step containing t.
func (e *Engine) CodeAt(secret string, t time.Time) (string, error) {
	secret = normalizeSecret(secret)
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return "", ErrInvalidSecret
	}

	code, err := totp.GenerateCodeCustom(secret, t, totp.ValidateOpts{
		Period:    DefaultPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	return code, nil
}

// ValidSecret reports whether s looks like a Base32 secret of at least 160 bits.
func ValidSecret(s string) bool {
	s = normalizeSecret(s)
	return ValidateSecretKeyRegex.MatchString(s) && len(strings.TrimRight(s, "=")) >= 32
}

func normalizeSecret(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
