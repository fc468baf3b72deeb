package auth

import (
	"context"
	"errors"
	"strings"
)

var ErrForbidden = errors.New("forbidden")

// Verifier checks bearer tokens issued by the hosted auth provider.
// RS256 tokens carrying a kid are checked against JWKS when configured;
// everything else falls back to the shared HS256 secret.
type Verifier struct {
	Secret   string
	JWKS     *JWKSClient
	Audience string
	// Allowed restricts access to these emails (case-insensitive) when non-empty.
	Allowed []string
}

func (v *Verifier) Configured() bool {
	return v != nil && (v.Secret != "" || v.JWKS != nil)
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if !v.Configured() || token == "" {
		return nil, ErrInvalidToken
	}
	header, err := ParseHeader(token)
	if err != nil {
		return nil, err
	}

	var claims *Claims
	if v.JWKS != nil && header.Alg == "RS256" && header.Kid != "" {
		pub, err := v.JWKS.Get(ctx, header.Kid)
		if err != nil {
			return nil, ErrInvalidToken
		}
		claims, err = VerifyRS256(token, pub)
		if err != nil {
			return nil, err
		}
	} else {
		if header.Alg != "HS256" {
			return nil, ErrInvalidToken
		}
		claims, err = ParseAndVerifyHS256(token, v.Secret)
		if err != nil {
			return nil, err
		}
	}

	if v.Audience != "" && claims.Aud != v.Audience {
		return nil, ErrInvalidToken
	}
	if !v.allows(claims.Email) {
		return nil, ErrForbidden
	}
	return claims, nil
}

func (v *Verifier) allows(email string) bool {
	if len(v.Allowed) == 0 {
		return true
	}
	email = strings.TrimSpace(email)
	for _, a := range v.Allowed {
		if strings.EqualFold(a, email) {
			return true
		}
	}
	return false
}

type claimsKey struct{}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
