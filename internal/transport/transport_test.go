package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpseo/internal/config"
	"wpseo/internal/logger"
)

func fastPolicy(attempts int) config.RetryPolicy {
	return config.RetryPolicy{
		MaxAttempts:       attempts,
		InitialDelayMs:    0,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func getRequest(url string) RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	}
}

func TestExecutor_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WP-TotalPages", "3")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	exec := NewExecutor(fastPolicy(3), logger.Discard())

	resp, err := exec.Do(context.Background(), getRequest(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3", resp.Header.Get("X-WP-TotalPages"))
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestExecutor_RetriesTransientStatus(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	exec := NewExecutor(fastPolicy(3), nil)

	resp, err := exec.Do(context.Background(), getRequest(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExecutor_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	exec := NewExecutor(fastPolicy(3), logger.Discard())

	_, err := exec.Do(context.Background(), getRequest(srv.URL))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExecutor_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"rest_not_logged_in"}`))
	}))
	defer srv.Close()

	exec := NewExecutor(fastPolicy(3), logger.Discard())

	_, err := exec.Do(context.Background(), getRequest(srv.URL))
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Contains(t, err.Error(), "rest_not_logged_in")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExecutor_RetriesNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var builds int32

	exec := NewExecutor(fastPolicy(2), logger.Discard())

	_, err := exec.Do(context.Background(), func(ctx context.Context) (*http.Request, error) {
		atomic.AddInt32(&builds, 1)
		return http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempt 2/2")
	assert.Equal(t, int32(2), atomic.LoadInt32(&builds))
}

func TestExecutor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewExecutor(fastPolicy(3), logger.Discard())

	_, err := exec.Do(ctx, getRequest("http://127.0.0.1:1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatusCode_NonStatusError(t *testing.T) {
	assert.Equal(t, 0, StatusCode(errors.New("boom")))
}
