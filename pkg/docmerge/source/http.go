package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
	"github.com/randalmurphal/docmerge/pkg/docmerge/observability"
)

// MaxTemplateBytes caps the size of a fetched template.
const MaxTemplateBytes = 8 << 20

// HTTPSource fetches templates from <baseURL>/<key>.
//
// 404 and 410 map to NotFoundError. 408, 429 and 5xx are retried with
// backoff. Any other non-2xx status is a permanent HTTPError.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	retry   docerr.RetryConfig
	timeout time.Duration
	logger  *slog.Logger
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the client. Default: http.DefaultClient.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// WithRetry sets the retry policy. Default: errors.DefaultRetry.
func WithRetry(cfg docerr.RetryConfig) HTTPOption {
	return func(s *HTTPSource) {
		s.retry = cfg
	}
}

// WithTimeout bounds each request attempt. Default: 10s.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.timeout = d
	}
}

// WithHTTPLogger logs every retried fetch. Default: no logging.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(s *HTTPSource) {
		s.logger = logger
	}
}

// NewHTTPSource creates an HTTPSource for baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, docerr.Malformed("new http source", "base URL must be absolute http(s), got %q", baseURL)
	}

	s := &HTTPSource{
		baseURL: baseURL,
		client:  http.DefaultClient,
		retry:   docerr.DefaultRetry,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	endpoint, err := url.JoinPath(s.baseURL, key)
	if err != nil {
		return "", docerr.Malformed("load template", "cannot build URL for %q: %v", key, err)
	}

	retry := s.retry
	next := retry.OnRetry
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		observability.LogFetchRetry(s.logger, key, attempt, err, wait)
		observability.AddSpanEvent(ctx, "template.fetch.retry", observability.AttrRetryAttempt.Int(attempt))
		if next != nil {
			next(attempt, err, wait)
		}
	}

	res := docerr.WithRetryContext(ctx, retry, func(ctx context.Context) (string, error) {
		return s.fetch(ctx, endpoint, key)
	})
	if res.Err != nil {
		return "", fmt.Errorf("fetch template %s: %w", key, res.Err)
	}
	return res.Value, nil
}

func (s *HTTPSource) fetch(ctx context.Context, endpoint, key string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", docerr.Permanent(err, "build request")
	}
	req.Header.Set("Accept", "text/html, text/plain;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", docerr.Transient(err, "request template")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", docerr.TemplateNotFound(key)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &docerr.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Endpoint:   endpoint,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxTemplateBytes+1))
	if err != nil {
		return "", docerr.Transient(err, "read template body")
	}
	if len(data) > MaxTemplateBytes {
		return "", &docerr.CorruptContentError{Key: key, Reason: fmt.Sprintf("larger than %d bytes", MaxTemplateBytes)}
	}

	text := string(data)
	if err := CheckContent(key, text); err != nil {
		return "", err
	}
	return text, nil
}
