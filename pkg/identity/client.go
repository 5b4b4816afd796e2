package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aaracollective/storefront-backend/pkg/auth"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var (
	errSecretKeyRequired = errors.New("identity secret key is required")
	errBaseURLRequired   = errors.New("identity api url is required")
)

// Client reads and updates user records through the identity provider's backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the directory client for the given API root and backend secret.
func NewClient(baseURL, secretKey string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, errBaseURLRequired
	}
	trimmedKey := strings.TrimSpace(secretKey)
	if trimmedKey == "" {
		return nil, errSecretKeyRequired
	}

	client := &Client{
		baseURL:    trimmedURL,
		secretKey:  trimmedKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// UserMetadata fetches the metadata buckets stored for userID. An unknown
// user is reported as unauthorized since the lookup backs request auth.
func (c *Client) UserMetadata(ctx context.Context, userID string) (*auth.UserMetadata, error) {
	var meta auth.UserMetadata
	if err := c.do(ctx, http.MethodGet, userID, "", nil, &meta); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity user not found")
		}
		return nil, err
	}
	return &meta, nil
}

// UpdateUserMetadata merges public into the user's public metadata.
func (c *Client) UpdateUserMetadata(ctx context.Context, userID string, public map[string]any) error {
	body := map[string]any{"public_metadata": public}
	return c.do(ctx, http.MethodPatch, userID, "/metadata", body, nil)
}

func (c *Client) do(ctx context.Context, method, userID, suffix string, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode identity request")
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := fmt.Sprintf("%s/users/%s%s", c.baseURL, url.PathEscape(trimmed), suffix)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build identity request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute identity request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "identity user not found")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "identity request failed")
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode identity response")
	}
	return nil
}
