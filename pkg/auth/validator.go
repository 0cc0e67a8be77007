package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"slices"
	"time"
)

// ClientSubject is the synthetic client id placed on every grant.
const ClientSubject = "puch-client"

// WildcardScope grants access to every tool.
const WildcardScope = "*"

// ErrEmptySecret is returned when a validator is built without a secret.
var ErrEmptySecret = errors.New("auth: secret must not be empty")

// AccessGrant is issued for a successfully validated credential.
type AccessGrant struct {
	Subject   string     `json:"subject"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil: never expires
}

// HasScope reports whether the grant covers scope.
func (g *AccessGrant) HasScope(scope string) bool {
	if g == nil {
		return false
	}
	return slices.Contains(g.Scopes, WildcardScope) || slices.Contains(g.Scopes, scope)
}

// Validator checks presented tokens against one configured secret.
type Validator struct {
	digest [sha256.Size]byte
}

// NewValidator creates a validator for secret.
func NewValidator(secret string) (*Validator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Validator{digest: sha256.Sum256([]byte(secret))}, nil
}

// Validate returns a grant when token matches the secret. Both sides are
// hashed first so the comparison time does not depend on token length.
func (v *Validator) Validate(token string) (*AccessGrant, bool) {
	if v == nil || token == "" {
		return nil, false
	}
	presented := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(presented[:], v.digest[:]) != 1 {
		return nil, false
	}
	return &AccessGrant{
		Subject: ClientSubject,
		Scopes:  []string{WildcardScope},
	}, true
}
