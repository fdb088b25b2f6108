package twofactor

import (
	"strings"

	"github.com/enrollhub/twofa/pkg/verification"
)

// Kind discriminates the principal tables sharing this service.
type Kind string

const (
	KindUser                 Kind = "user"
	KindOrganizationEmployee Kind = "organization_employee"
)

// Kinds lists every supported principal kind.
var Kinds = []Kind{KindUser, KindOrganizationEmployee}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindUser, KindOrganizationEmployee:
		return true
	}
	return false
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

// Principal is an identity of either kind. The service never assumes the
// kinds share storage; it always carries both parts.
type Principal struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// NewPrincipal builds a Principal and validates it.
func NewPrincipal(kind Kind, id string) (Principal, error) {
	p := Principal{Kind: kind, ID: strings.TrimSpace(id)}
	return p, p.Validate()
}

// Validate checks both parts of the principal.
func (p Principal) Validate() error {
	if !p.Kind.Valid() {
		return ErrUnknownKind
	}
	if p.ID == "" {
		return ErrInvalidPrincipal
	}
	return nil
}

func (p Principal) String() string {
	return string(p.Kind) + ":" + p.ID
}

func (p Principal) subject() verification.Subject {
	return verification.Subject{Kind: string(p.Kind), ID: p.ID}
}

func principalFromSubject(s verification.Subject) (Principal, error) {
	p := Principal{Kind: Kind(s.Kind), ID: s.ID}
	return p, p.Validate()
}
