// Package identity validates session cookies against a Kratos-style identity
// service. The client is rebuilt from the live configuration on reload, so an
// identity endpoint change takes effect without a restart.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SessionCookie is the cookie name carrying the session token.
const SessionCookie = "ory_kratos_session"

// ErrNotInitialized reports use of an unbound identity client.
var ErrNotInitialized = errors.New("identity: client is not initialized")

// ErrSessionInvalid reports a session the identity service rejected.
var ErrSessionInvalid = errors.New("identity: session is invalid")

// Options configures an identity client.
type Options struct {
	// Addr is the base URL of the identity service, e.g. "http://kratos:4433".
	Addr string

	// HTTPClient overrides the default client; mainly for tests.
	HTTPClient *http.Client
}

// Client validates sessions against one identity service.
type Client struct {
	addr string
	http *http.Client
}

// New creates an identity client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		addr: strings.TrimRight(opts.Addr, "/"),
		http: httpClient,
	}
}

// Addr returns the configured identity service address.
func (c *Client) Addr() string {
	if c == nil {
		return ""
	}
	return c.addr
}

// ValidateSession checks the given session cookie value with the identity
// service. It returns nil for a live session, ErrSessionInvalid when the
// service rejects it, and ErrNotInitialized on a nil client.
func (c *Client) ValidateSession(ctx context.Context, cookie string) error {
	if c == nil || c.http == nil {
		return ErrNotInitialized
	}
	if cookie == "" {
		return fmt.Errorf("identity: session cookie is missing: %w", ErrSessionInvalid)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.addr+"/sessions/whoami", nil)
	if err != nil {
		return fmt.Errorf("identity: failed to build whoami request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity: whoami request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("identity: whoami returned status %d: %w", resp.StatusCode, ErrSessionInvalid)
	}
	return nil
}
