package source

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
)

func fastRetry() docerr.RetryConfig {
	return docerr.NewRetryConfig(
		docerr.WithMaxAttempts(3),
		docerr.WithInitialBackoff(time.Millisecond),
		docerr.WithMaxBackoff(5*time.Millisecond),
		docerr.WithJitter(0),
	)
}

func TestNewHTTPSource_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "templates", "ftp://host/x", "http://"} {
		_, err := NewHTTPSource(u)
		assert.True(t, docerr.IsContractViolation(err), "url %q", u)
	}
}

func TestHTTPSource_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/templates/contract.html":
			_, _ = w.Write([]byte("<p>{{naam}}</p>"))
		case "/templates/binary.html":
			_, _ = w.Write([]byte{0x00, 0x01, 0x02})
		case "/templates/forbidden.html":
			w.WriteHeader(http.StatusForbidden)
		case "/templates/gone.html":
			w.WriteHeader(http.StatusGone)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL+"/templates", WithRetry(fastRetry()))
	require.NoError(t, err)
	ctx := context.Background()

	text, err := src.Load(ctx, "contract.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>{{naam}}</p>", text)

	_, err = src.Load(ctx, "missing.html")
	assert.Equal(t, docerr.CategoryNotFound, docerr.Categorize(err))

	_, err = src.Load(ctx, "gone.html")
	assert.Equal(t, docerr.CategoryNotFound, docerr.Categorize(err))

	_, err = src.Load(ctx, "binary.html")
	assert.Equal(t, docerr.CategoryCorrupt, docerr.Categorize(err))

	_, err = src.Load(ctx, "forbidden.html")
	require.Error(t, err)
	assert.Equal(t, docerr.CategoryPermanent, docerr.Categorize(err))

	_, err = src.Load(ctx, "../x.html")
	assert.True(t, docerr.IsContractViolation(err))
}

func TestHTTPSource_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, WithRetry(fastRetry()))
	require.NoError(t, err)

	text, err := src.Load(context.Background(), "a.html")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSource_LogsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var hooked atomic.Int32
	retry := fastRetry()
	retry.OnRetry = func(int, error, time.Duration) { hooked.Add(1) }

	src, err := NewHTTPSource(srv.URL, WithRetry(retry), WithHTTPLogger(logger))
	require.NoError(t, err)

	_, err = src.Load(context.Background(), "a.html")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "template fetch failed, retrying")
	assert.Contains(t, buf.String(), "template=a.html")
	assert.Contains(t, buf.String(), "attempt=1")
	assert.Equal(t, int32(1), hooked.Load())
}

func TestHTTPSource_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, WithRetry(fastRetry()))
	require.NoError(t, err)

	_, err = src.Load(context.Background(), "a.html")
	require.Error(t, err)
	assert.True(t, docerr.IsRetryable(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSource_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, WithRetry(fastRetry()))
	require.NoError(t, err)

	_, err = src.Load(context.Background(), "a.html")
	assert.True(t, docerr.IsFallbackEligible(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPSource_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	src, err := NewHTTPSource(srv.URL,
		WithRetry(docerr.NoRetry),
		WithTimeout(20*time.Millisecond),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	_, err = src.Load(context.Background(), "a.html")
	require.Error(t, err)
	assert.True(t, docerr.IsRetryable(err))
}
