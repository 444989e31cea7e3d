package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/worldsnap-go/internal/infra/buildinfo"
)

// DefaultTimeout bounds a whole request. Snapshot and restore requests wait
// for the copy to finish, so it is generous.
const DefaultTimeout = 15 * time.Minute

// envelope mirrors the server's response envelope.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   struct {
		ServerStatus   string `json:"server_status"`
		RestartWarning string `json:"restart_warning"`
		SafetySnapshot string `json:"safety_snapshot"`
	} `json:"details"`
}

// APIError is an error envelope returned by the server.
type APIError struct {
	StatusCode   int
	Code         string
	Message      string
	RequestID    string
	ServerStatus string
	// Set when a failed create or restore also failed to restart the
	// server or had already written a safety snapshot.
	RestartWarning string
	SafetySnapshot string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*http.Client)

// WithTLSConfig sets the TLS config used for https servers.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *http.Client) {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = cfg
		c.Transport = t
	}
}

// NewHTTPClient creates a new HTTP client. A server without a scheme is
// reached over plain http. A zero timeout uses DefaultTimeout.
func NewHTTPClient(server string, timeout time.Duration, opts ...ClientOption) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{Timeout: timeout}
	for _, opt := range opts {
		opt(client)
	}

	return &HTTPClient{
		baseURL: baseURL,
		client:  client,
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the envelope data into target.
func (c *HTTPClient) Get(ctx context.Context, path string, target any) error {
	return c.do(ctx, http.MethodGet, path, nil, target)
}

// Post performs a POST request with an optional JSON body and decodes the
// envelope data into target.
func (c *HTTPClient) Post(ctx context.Context, path string, body, target any) error {
	return c.do(ctx, http.MethodPost, path, body, target)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, target any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent("worldsnap-cli"))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return ParseResponse(resp, target)
}

// ParseResponse decodes an envelope from resp and closes its body. The data
// member is decoded into target when target is non-nil.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.RequestID = env.RequestID
			apiErr.ServerStatus = env.Details.ServerStatus
			apiErr.RestartWarning = env.Details.RestartWarning
			apiErr.SafetySnapshot = env.Details.SafetySnapshot
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}
