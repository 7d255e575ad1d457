package utils

import (
	"context"

	"lab-booking/internal/authz"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
	TokenKey     contextKey = "token"
)

// SetPrincipal stores the authenticated principal for downstream handlers.
func SetPrincipal(ctx context.Context, p *authz.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipal returns the principal set by the auth middleware, or nil.
func GetPrincipal(ctx context.Context) *authz.Principal {
	p, _ := ctx.Value(PrincipalKey).(*authz.Principal)
	return p
}

// GetTokenFromContext mendapatkan session token dari context
func GetTokenFromContext(ctx context.Context) (string, bool) {
	tokenVal := ctx.Value(TokenKey)
	if tokenVal == nil {
		return "", false
	}

	token, ok := tokenVal.(string)
	return token, ok
}

// SetTokenContext menambahkan session token ke context
func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
