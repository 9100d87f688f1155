// Package transport executes HTTP requests with the configured retry policy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"wpseo/internal/config"
	"wpseo/internal/logger"
)

// ErrUnexpectedStatus indicates an HTTP response with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// maxBodyBytes bounds how much of any response is read into memory.
const maxBodyBytes = 10 * 1024 * 1024

// StatusError carries the status code and a body excerpt of a failed response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}

	return fmt.Sprintf("%s: %d: %s", ErrUnexpectedStatus, e.StatusCode, body)
}

// Unwrap lets errors.Is match ErrUnexpectedStatus.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}

	return 0
}

// Response is a fully read HTTP response.
type Response struct {
	Header     http.Header
	Body       []byte
	StatusCode int
}

// RequestFunc builds a fresh request for every attempt so bodies can be replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Executor sends requests, retrying transient failures.
type Executor struct {
	client *http.Client
	policy config.RetryPolicy
	logger *logger.Logger
}

// NewExecutor creates an executor with a client timeout taken from the policy.
func NewExecutor(policy config.RetryPolicy, log *logger.Logger) *Executor {
	return NewExecutorWithClient(&http.Client{Timeout: policy.GetTimeout()}, policy, log)
}

// NewExecutorWithClient creates an executor around a custom client (useful for testing).
func NewExecutorWithClient(client *http.Client, policy config.RetryPolicy, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.Discard()
	}

	return &Executor{
		client: client,
		policy: policy,
		logger: log,
	}
}

// backoff turns the retry policy into a go-retry backoff.
// Attempts are counted so the total number of calls never exceeds MaxAttempts.
func (e *Executor) backoff() retry.Backoff {
	attempt := 0
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return e.policy.GetRetryDelay(attempt), false
	})

	retries := e.policy.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}

	return retry.WithMaxRetries(uint64(retries), next)
}

// Do runs build and sends the request until it succeeds, fails permanently,
// or the retry budget is exhausted. Non-2xx responses come back as *StatusError.
func (e *Executor) Do(ctx context.Context, build RequestFunc) (*Response, error) {
	attempt := 0

	return retry.DoValue(ctx, e.backoff(), func(ctx context.Context) (*Response, error) {
		attempt++

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			e.logger.Debug(fmt.Sprintf("Request failed (attempt %d/%d): %v", attempt, e.policy.MaxAttempts, err),
				"method", req.Method, "url", redact(req))

			return nil, retry.RetryableError(fmt.Errorf("request failed (attempt %d/%d): %w", attempt, e.policy.MaxAttempts, err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, retry.RetryableError(fmt.Errorf("failed to read response body: %w", err))
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}

			if isRetryableStatus(resp.StatusCode) {
				e.logger.Debug(fmt.Sprintf("Retryable status %d (attempt %d/%d)", resp.StatusCode, attempt, e.policy.MaxAttempts),
					"method", req.Method, "url", redact(req))

				return nil, retry.RetryableError(statusErr)
			}

			return nil, statusErr
		}

		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
		}, nil
	})
}

// redact drops the query string, which may carry an API key.
func redact(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""

	return u.String()
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, // 408
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	}

	return false
}
