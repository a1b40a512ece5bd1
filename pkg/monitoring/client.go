// Package monitoring talks to the Yandex Cloud Monitoring data read API.
package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ReadPath is the REST path of the data read call.
const ReadPath = "/monitoring/v2/data/read"

// Reader defines the interface for reading metrics from the monitoring API.
// This abstraction allows for easier testing and dependency injection.
type Reader interface {
	Read(ctx context.Context, folderID string, req ReadRequest) (*ReadResponse, error)
	Check(ctx context.Context) error
}

// TokenSource hands out IAM tokens for outgoing calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// APIError represents a failed call to the monitoring API.
type APIError struct {
	StatusCode int
	Msg        string
	Body       string // Response body of a rejected call, trimmed
	Err        error  // Wrapped error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("monitoring api error: %s: %v", e.Msg, e.Err)
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("monitoring api error: %s: bad http status: %d: %s", e.Msg, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("monitoring api error: %s: bad http status: %d", e.Msg, e.StatusCode)
	default:
		return fmt.Sprintf("monitoring api error: %s", e.Msg)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the service rejected the credentials.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

var _ Reader = (*Client)(nil)

// Client is a Reader over a resty client whose base URL points at the read
// endpoint.
type Client struct {
	rest    *resty.Client
	tokens  TokenSource
	limiter *rate.Limiter
}

// NewClient wraps rest. A nil limiter disables throttling.
func NewClient(rest *resty.Client, tokens TokenSource, limiter *rate.Limiter) *Client {
	return &Client{rest: rest, tokens: tokens, limiter: limiter}
}

// Read fetches the metrics selected by req from folderID.
func (c *Client) Read(ctx context.Context, folderID string, req ReadRequest) (*ReadResponse, error) {
	if folderID == "" {
		return nil, &APIError{Msg: "folder ID cannot be empty"}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &APIError{Msg: "rate limit wait", Err: err}
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, &APIError{Msg: "get token", Err: err}
	}

	var result ReadResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("folderId", folderID).
		SetBody(req).
		SetResult(&result).
		Post("")
	if err != nil {
		return nil, &APIError{Msg: "metrics read", Err: err}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &APIError{StatusCode: resp.StatusCode(), Msg: "metrics read", Body: strings.TrimSpace(resp.String())}
	}
	return &result, nil
}

// Check verifies the endpoint is reachable with the current credentials.
func (c *Client) Check(ctx context.Context) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &APIError{Msg: "get token", Err: err}
	}
	resp, err := c.rest.R().SetContext(ctx).SetAuthToken(token).Head("")
	if err != nil {
		return &APIError{Msg: "api check", Err: err}
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return &APIError{StatusCode: resp.StatusCode(), Msg: "api check"}
	}
	return nil
}
