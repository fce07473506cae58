package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Provider resolves endpoint metadata for a single OIDC issuer.
type Provider struct {
	issuer string

	mu      sync.Mutex
	jwksURL string
}

// NewProvider creates a provider for the given issuer
func NewProvider(issuer string) *Provider {
	return &Provider{issuer: strings.TrimRight(issuer, "/")}
}

// Issuer returns the configured issuer
func (p *Provider) Issuer() string {
	return p.issuer
}

// JWKSURL returns the issuer's JWKS endpoint, resolved once via the OIDC
// discovery document and cached for the process lifetime.
func (p *Provider) JWKSURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.jwksURL != "" {
		return p.jwksURL, nil
	}

	discoveryURL := p.issuer + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create discovery request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var discovery struct {
		JWKSUri string `json:"jwks_uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&discovery); err != nil {
		return "", fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if discovery.JWKSUri == "" {
		return "", fmt.Errorf("discovery document missing jwks_uri")
	}

	p.jwksURL = discovery.JWKSUri
	return p.jwksURL, nil
}
