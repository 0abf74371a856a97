// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	HeaderRequestID = "X-Request-ID"
	maxLoggedBody   = 512
)

// RequestHook mutates an outgoing request before it is sent.
type RequestHook func(req *http.Request)

// BearerToken attaches an Authorization header. An empty token leaves the request untouched.
func BearerToken(token string) RequestHook {
	return func(req *http.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// RequestID stamps every request with a fresh uuid unless the caller already set one.
func RequestID() RequestHook {
	return func(req *http.Request) {
		if req.Header.Get(HeaderRequestID) == "" {
			req.Header.Set(HeaderRequestID, uuid.NewString())
		}
	}
}

// TraceContext injects the span context of the request into its headers.
func TraceContext() RequestHook {
	return func(req *http.Request) {
		otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	}
}

// Client is a base URL bound HTTP client with request hooks and error response logging.
type Client struct {
	httpClient *http.Client
	baseURL    string
	hooks      []RequestHook
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger, hooks ...RequestHook) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		hooks:   hooks,
		logger:  log,
	}
}

// NewRequest builds a request for path relative to the base URL.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	return req, nil
}

// Do runs the hooks, sends req and records its duration under endpoint.
// Responses outside 2xx are logged with a body excerpt; the body stays readable for the caller.
func (c *Client) Do(req *http.Request, endpoint string) (*http.Response, error) {
	for _, hook := range c.hooks {
		hook(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		logger.FromContext(req.Context(), c.logger).Error("backend request failed", map[string]interface{}{
			"endpoint":  endpoint,
			"method":    req.Method,
			"requestId": req.Header.Get(HeaderRequestID),
			"error":     err,
		})
		return nil, err
	}
	metrics.BackendRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logErrorResponse(req, resp, endpoint)
	}
	return resp, nil
}

func (c *Client) logErrorResponse(req *http.Request, resp *http.Response, endpoint string) {
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	excerpt := string(body)
	if len(excerpt) > maxLoggedBody {
		excerpt = excerpt[:maxLoggedBody]
	}
	logger.FromContext(req.Context(), c.logger).Warn("backend returned error response", map[string]interface{}{
		"endpoint":  endpoint,
		"method":    req.Method,
		"status":    resp.StatusCode,
		"requestId": req.Header.Get(HeaderRequestID),
		"body":      excerpt,
	})
}
