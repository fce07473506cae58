package oidc

import (
	"context"
	"fmt"

	"github.com/kcarante/thinktasker/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier verifies JWT tokens against a single configured issuer
type Verifier struct {
	jwksManager *JWKSManager
	provider    *Provider
	audience    string
}

// NewVerifier creates a new JWT verifier
func NewVerifier(jwksManager *JWKSManager, provider *Provider, audience string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		provider:    provider,
		audience:    audience,
	}
}

// Verify verifies a JWT token and extracts claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	jwksURL, err := v.provider.JWKSURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve JWKS URL: %w", err)
	}

	keys, err := v.jwksManager.GetJWKS(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	// Parse and verify signature plus time-based claims
	token, err := jwt.Parse([]byte(tokenString), jwt.WithKeySet(keys), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	if token.Issuer() != v.provider.Issuer() {
		return nil, fmt.Errorf("token issuer mismatch: expected %s, got %s", v.provider.Issuer(), token.Issuer())
	}

	if v.audience != "" {
		found := false
		for _, aud := range token.Audience() {
			if aud == v.audience {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("token audience mismatch: expected %s", v.audience)
		}
	}

	// Extract claims
	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}
	if auds := token.Audience(); len(auds) > 0 {
		claims.Aud = auds[0]
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}

	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	return claims, nil
}
