package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/pkg/auth"
)

// TooManyRequestsError represents rate limiting signal from the backend.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Is lets callers treat rate limiting as a transient failure.
func (e TooManyRequestsError) Is(target error) bool {
	return target == domainErrors.ErrUnavailable
}

// Options tunes the HTTP client.
type Options struct {
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// HTTPClient talks to the marketplace backend REST API.
type HTTPClient struct {
	baseURL     *url.URL
	httpClient  *http.Client
	credentials auth.CredentialProvider
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// envelope mirrors the {success, data, message} wrapper of every response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NewHTTPClient creates a backend client.
func NewHTTPClient(baseURL string, credentials auth.CredentialProvider, logger *slog.Logger, opts Options) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("backend url must be absolute")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if credentials == nil {
		credentials = auth.NewStaticCredentials("")
	}
	return &HTTPClient{
		baseURL:     parsed,
		credentials: credentials,
		limiter:     rate.NewLimiter(limit, opts.Burst),
		logger:      logger,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}, nil
}

func (c *HTTPClient) endpoint(query url.Values, segments ...string) string {
	endpoint := *c.baseURL
	raw := []string{"/", endpoint.Path}
	escaped := []string{"/", endpoint.EscapedPath()}
	for _, s := range segments {
		raw = append(raw, s)
		escaped = append(escaped, url.PathEscape(s))
	}
	endpoint.Path = path.Join(raw...)
	endpoint.RawPath = path.Join(escaped...)
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String()
}

// do performs a request and decodes envelope data into out when out is not nil.
// It reports whether the envelope carried non-null data.
func (c *HTTPClient) do(ctx context.Context, method, endpoint string, payload any, out any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%w: rate limiter: %v", domainErrors.ErrUnavailable, err)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return false, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.credentials.Token(ctx)
	switch {
	case err == nil:
		req.Header.Set("Authorization", "Bearer "+token)
	case errors.Is(err, auth.ErrNoCredentials):
	default:
		return false, fmt.Errorf("resolve credentials: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: %v", domainErrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: read body: %v", domainErrors.ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return false, TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Error("backend request failed",
			slog.String("method", method),
			slog.String("url", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)),
		)
		return false, fmt.Errorf("%w: backend error: %s", domainErrors.ErrUnavailable, resp.Status)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return false, fmt.Errorf("%w: decode response: %v", domainErrors.ErrUnavailable, err)
		}
	} else {
		env.Success = resp.StatusCode < http.StatusMultipleChoices
	}

	if !env.Success || resp.StatusCode >= http.StatusMultipleChoices {
		return false, &domainErrors.RemoteError{Kind: kindForStatus(resp.StatusCode), Message: env.Message}
	}

	hasData := len(env.Data) > 0 && string(env.Data) != "null"
	if out != nil && hasData {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return false, fmt.Errorf("%w: decode data: %v", domainErrors.ErrUnavailable, err)
		}
	}
	return hasData, nil
}

func kindForStatus(code int) error {
	switch code {
	case http.StatusNotFound:
		return domainErrors.ErrNotFound
	case http.StatusConflict:
		return domainErrors.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domainErrors.ErrInvalidArgument
	default:
		return domainErrors.ErrRejected
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
