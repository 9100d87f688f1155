package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpseo/internal/config"
	"wpseo/internal/logger"
	"wpseo/internal/transport"
)

func replyWith(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
				"finishReason": "STOP",
			},
		},
	})

	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	exec := transport.NewExecutor(config.RetryPolicy{MaxAttempts: 3, BackoffMultiplier: 1, TimeoutSec: 5}, logger.Discard())

	return NewClientWithOptions(srv.URL+"/v1beta", "test-key", "gemini-pro", Options{MaxKeywordWords: 6, MaxDescriptionChars: 160}, exec, logger.Discard())
}

func TestGenerateKeyword(t *testing.T) {
	var prompt string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)

		var req generateRequest
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		prompt = req.Contents[0].Parts[0].Text

		_, _ = w.Write([]byte(replyWith(`"Coffee Makers"`)))
	})

	keyword, err := client.GenerateKeyword(context.Background(), "Best Coffee Makers", "We review drip machines.")
	require.NoError(t, err)
	assert.Equal(t, "Coffee Makers", keyword)
	assert.Contains(t, prompt, `Title: "Best Coffee Makers"`)
	assert.Contains(t, prompt, "2-3 word SEO keyword phrase")
}

func TestGenerateKeyword_TooLong(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(replyWith("the very best home espresso machines under budget")))
	})

	_, err := client.GenerateKeyword(context.Background(), "t", "e")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, ErrKeywordTooLong)
}

func TestGenerateKeyword_Blocked(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := client.GenerateKeyword(context.Background(), "t", "e")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestGenerateKeyword_NoCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := client.GenerateKeyword(context.Background(), "t", "e")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateKeyword_RetriesThenFails(t *testing.T) {
	var calls int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
	})

	_, err := client.GenerateKeyword(context.Background(), "t", "e")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, transport.ErrUnexpectedStatus)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerateMetaDescription(t *testing.T) {
	var prompt string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		prompt = req.Contents[0].Parts[0].Text

		_, _ = w.Write([]byte(replyWith("Meta description: \"Find the best coffee makers for every budget.\"")))
	})

	description, err := client.GenerateMetaDescription(context.Background(), "Best Coffee Makers", "coffee makers", "excerpt")
	require.NoError(t, err)
	assert.Equal(t, "Find the best coffee makers for every budget.", description)
	assert.Contains(t, prompt, `Include this exact keyword phrase: "coffee makers"`)
	assert.Contains(t, prompt, "Maximum length: 160 characters")
}

func TestGenerateMetaDescription_Truncates(t *testing.T) {
	long := strings.Repeat("word ", 60)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, replyWith(long))
	})

	description, err := client.GenerateMetaDescription(context.Background(), "t", "k", "e")
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(description)), 160)
	assert.True(t, strings.HasSuffix(description, "..."))
}

func TestCleanKeyword(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"coffee makers", "coffee makers", nil},
		{"Keyword: espresso machines", "espresso machines", nil},
		{"```\n**pour over coffee**\n```", "pour over coffee", nil},
		{"  \n\"cold brew\"\nBecause it is popular.", "cold brew", nil},
		{"", "", ErrEmptyResponse},
		{"\"\"", "", ErrEmptyResponse},
		{"one two three four five six seven", "", ErrKeywordTooLong},
	}

	for _, tt := range tests {
		got, err := cleanKeyword(tt.in, 6)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "input %q", tt.in)
			continue
		}

		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "Brew better coffee at home.", cleanDescription("  \"Brew better coffee at home.\"  ", 160))
	assert.Equal(t, "Brew better coffee.", cleanDescription("Description: Brew better coffee.", 160))
	assert.Equal(t, "", cleanDescription("   ", 160))
}
