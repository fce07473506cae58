package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	// DefaultTimeout is the default timeout for Graph API calls
	DefaultTimeout = 30 * time.Second
)

// Client talks to the Microsoft Graph API using application permissions.
// Tokens are acquired through the client credentials flow and refreshed
// automatically by the underlying oauth2 transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates a Graph client for the given Entra ID tenant
func NewClient(ctx context.Context, tenantID, clientID, clientSecret string, logger *zap.Logger) *Client {
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}

	httpClient := cc.Client(ctx)
	httpClient.Timeout = DefaultTimeout

	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		logger:     logger,
	}
}

// NewClientWithHTTP creates a Graph client with a custom HTTP client and
// base URL. Used by tests to point at a local server.
func NewClientWithHTTP(httpClient *http.Client, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// apiError is the error envelope Graph returns on failures
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doJSON performs a request with an optional JSON body and decodes the
// JSON response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode graph response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx Graph response into a Go error
func (c *Client) decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope apiError
	if json.Unmarshal(data, &envelope) == nil && envelope.Error.Code != "" {
		return fmt.Errorf("graph API error (status %d, code %s): %s",
			resp.StatusCode, envelope.Error.Code, envelope.Error.Message)
	}
	return fmt.Errorf("graph API error (status %d): %s", resp.StatusCode, string(data))
}
