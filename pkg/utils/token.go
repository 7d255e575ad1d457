package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims ties a signed token to a server-side session (the jti), so
// that logging out revokes the token before it expires.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func SignAccessToken(cfg JWTConfig, userID, sessionToken uuid.UUID, role string, expiresAt time.Time) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("jwt secret not configured")
	}

	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        sessionToken.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

func ParseAccessToken(cfg JWTConfig, tokenString string) (*AccessClaims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &AccessClaims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, fmt.Errorf("invalid session id in token: %w", err)
	}

	return claims, nil
}
