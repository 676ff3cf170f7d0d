package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned when the hub rejects the access token.
	ErrUnauthorized = errors.New("hass: unauthorized")
	// ErrNoToken is returned when neither the request nor the config carries a token.
	ErrNoToken = errors.New("hass: no access token")
)

// Client is a minimal Home Assistant REST client.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient constructs a client for cfg.
func NewClient(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.timeout()},
	}, nil
}

// CallService invokes POST /api/services/{domain}/{service}.
func (c *Client) CallService(ctx context.Context, token, domain, service string, data map[string]any) error {
	path := fmt.Sprintf("/api/services/%s/%s", domain, service)
	return c.doJSON(ctx, token, http.MethodPost, path, data, nil)
}

// Ping checks that the API answers with the given token.
func (c *Client) Ping(ctx context.Context, token string) error {
	return c.doJSON(ctx, token, http.MethodGet, "/api/", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, token, method, path string, body any, out any) error {
	if token == "" {
		token = c.token
	}
	if token == "" {
		return ErrNoToken
	}
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hass: %s %s: http %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
