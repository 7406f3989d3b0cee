package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/roster/internal/metrics"
)

const maxResponseBytes = 10 << 20

var errInvalidBaseURL = errors.New("base url must be an absolute http or https url")

// Client talks to the employee REST backend. It holds no credentials; use
// WithSession to obtain a client scoped to a signed-in user.
type Client struct {
	origin  string
	http    *http.Client
	metrics *metrics.Metrics
}

// NewClient validates the backend origin and creates a client with the given
// request timeout.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err == nil && ((parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "") {
		err = errInvalidBaseURL
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	return &Client{
		origin:  strings.TrimRight(parsed.String(), "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
	}, nil
}

// Origin is the configured backend base URL without a trailing slash.
func (c *Client) Origin() string {
	return c.origin
}

// ImageURL resolves a server-relative image path. An empty path means no image.
func (c *Client) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.origin + "/" + strings.TrimLeft(path, "/")
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", fmt.Errorf("failed to encode login request: %w", err)
	}

	var reply struct {
		Token string `json:"token"`
	}
	err = c.do(ctx, request{
		operation:   "login",
		method:      http.MethodPost,
		path:        "/api/auth/login",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
	}, &reply)
	if err != nil {
		return "", err
	}
	if reply.Token == "" {
		return "", fmt.Errorf("%w: login reply carried no token", ErrUnauthorized)
	}

	return reply.Token, nil
}

// Ping reports whether the backend answers HTTP at all. Any status below 500
// counts as reachable, since the probe is unauthenticated.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+"/api/employees", nil)
	if err != nil {
		return fmt.Errorf("failed to build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

type request struct {
	operation   string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.origin+r.path, r.body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", r.operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.BackendDuration.WithLabelValues(r.operation).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(r.operation, "error").Inc()
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.metrics.BackendRequests.WithLabelValues(r.operation, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read %s response: %w", ErrUnavailable, r.operation, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %w", ErrUnauthorized, &APIError{StatusCode: resp.StatusCode, Message: serverMessage(body)})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: serverMessage(body)}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r.operation, err)
	}

	return nil
}

// serverMessage pulls the human message out of an error body. The backend
// uses "message"; some proxies answer with "error".
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}
