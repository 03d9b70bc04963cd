// Package bitly is a minimal client for the Bitly v4 shorten endpoint.
package bitly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MikhailRaia/shortlink/internal/model"
)

// DefaultEndpoint is the Bitly v4 shorten endpoint.
const DefaultEndpoint = "https://api-ssl.bitly.com/v4/shorten"

const maxResponseSize = 1 << 20

// ErrShortenFailed wraps every transport, status or decoding failure.
var ErrShortenFailed = errors.New("shorten failed")

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the shorten endpoint. Empty keeps DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithDefaultDomain sets the domain used when a request carries none.
func WithDefaultDomain(domain string) Option {
	return func(c *Client) { c.defaultDomain = domain }
}

// WithTimeout sets a client-level timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client calls the Bitly API with a bearer token supplied at construction.
type Client struct {
	token         string
	endpoint      string
	defaultDomain string
	httpClient    *http.Client
}

// NewClient creates a Client authenticated with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type shortenBody struct {
	LongURL string `json:"long_url"`
	Domain  string `json:"domain,omitempty"`
}

type shortenReply struct {
	Link string `json:"link"`
	ID   string `json:"id"`
}

type errorReply struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

// Shorten submits req to Bitly and returns the short link.
func (c *Client) Shorten(ctx context.Context, req model.ShortenRequest) (model.ShortenResult, error) {
	domain := strings.TrimSpace(req.Domain)
	if domain == "" {
		domain = c.defaultDomain
	}

	body, err := json.Marshal(shortenBody{
		LongURL: req.LongURL,
		Domain:  domain,
	})
	if err != nil {
		return model.ShortenResult{}, fmt.Errorf("%w: marshal request: %v", ErrShortenFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.ShortenResult{}, fmt.Errorf("%w: create request: %v", ErrShortenFailed, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.ShortenResult{}, fmt.Errorf("%w: http request: %v", ErrShortenFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return model.ShortenResult{}, fmt.Errorf("%w: read response: %v", ErrShortenFailed, err)
	}

	// 200 means the link already existed, 201 that it was created.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return model.ShortenResult{}, fmt.Errorf("%w: %s", ErrShortenFailed, describeError(resp.StatusCode, respBody))
	}

	var reply shortenReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return model.ShortenResult{}, fmt.Errorf("%w: unmarshal response: %v", ErrShortenFailed, err)
	}

	if reply.Link == "" {
		return model.ShortenResult{}, fmt.Errorf("%w: response has no link", ErrShortenFailed)
	}

	return model.ShortenResult{ShortLink: reply.Link}, nil
}

func describeError(status int, body []byte) string {
	var e errorReply
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		if e.Description != "" {
			return fmt.Sprintf("status %d: %s (%s)", status, e.Message, e.Description)
		}
		return fmt.Sprintf("status %d: %s", status, e.Message)
	}
	return fmt.Sprintf("status %d: %s", status, strings.TrimSpace(string(body)))
}
