package auth

import (
	"context"
	"net/http"
	"strings"
)

type grantContextKey struct{}

// WithGrant attaches a grant to ctx.
func WithGrant(ctx context.Context, g *AccessGrant) context.Context {
	return context.WithValue(ctx, grantContextKey{}, g)
}

// GrantFromContext returns the grant attached by WithGrant, or nil.
func GrantFromContext(ctx context.Context) *AccessGrant {
	g, _ := ctx.Value(grantContextKey{}).(*AccessGrant)
	return g
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively; anything else yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// TokenFromRequest reads the bearer token from r's Authorization header.
func TokenFromRequest(r *http.Request) string {
	return BearerToken(r.Header.Get("Authorization"))
}
