package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/credentials"
)

// DefaultTimeout bounds each request when New is given zero.
const DefaultTimeout = 10 * time.Second

// State is one entity as returned by /api/states.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged time.Time      `json:"last_changed,omitzero"`
	LastUpdated time.Time      `json:"last_updated,omitzero"`
}

// Client calls the Home Assistant REST API.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	httpClient *http.Client
}

// New creates a client whose requests time out after timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// NewWithHTTPClient wraps an existing *http.Client.
func NewWithHTTPClient(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// CallService invokes a service on an entity domain.
//
// Parameters:
//   - ctx: Context for cancellation
//   - cred: Base URL and bearer token
//   - domain: Service domain, e.g. "light"
//   - service: Service name, e.g. "turn_on"
//   - data: JSON request body, typically {"entity_id": ...}
//
// Returns:
//   - int: HTTP status code on success (200 or 201)
//   - error: ErrTimeout, ErrConnection or *StatusError
func (c *Client) CallService(ctx context.Context, cred credentials.Credential, domain, service string, data map[string]any) (int, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("encoding service data: %w", err)
	}

	path := "/api/services/" + url.PathEscape(domain) + "/" + url.PathEscape(service)
	resp, err := c.do(ctx, cred, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// States returns every entity state.
func (c *Client) States(ctx context.Context, cred credentials.Credential) ([]State, error) {
	resp, err := c.do(ctx, cred, http.MethodGet, "/api/states", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var states []State
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return nil, fmt.Errorf("%w: decoding states: %w", ErrInvalidResponse, err)
	}
	return states, nil
}

// State returns a single entity state.
func (c *Client) State(ctx context.Context, cred credentials.Credential, entityID string) (*State, error) {
	resp, err := c.do(ctx, cred, http.MethodGet, "/api/states/"+url.PathEscape(entityID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var st State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("%w: decoding state of %s: %w", ErrInvalidResponse, entityID, err)
	}
	return &st, nil
}

// Ping verifies the API is reachable and the token is accepted.
func (c *Client) Ping(ctx context.Context, cred credentials.Credential) error {
	resp, err := c.do(ctx, cred, http.MethodGet, "/api/", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do sends the request and returns the response only for 200/201. Any other
// status is consumed into a *StatusError.
func (c *Client) do(ctx context.Context, cred credentials.Credential, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, cred.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrConnection, err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	return resp, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrConnection, err)
}
