// Package gemini provides a text generation client for the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"wpseo/internal/config"
	"wpseo/internal/logger"
	"wpseo/internal/transport"
	"wpseo/pkg/utils"
)

// Generation errors.
var (
	ErrEmptyResponse  = errors.New("empty response from model")
	ErrBlocked        = errors.New("prompt blocked by model")
	ErrKeywordTooLong = errors.New("generated keyword exceeds word limit")
	ErrGeneration     = errors.New("text generation failed")
)

// Options bound the generated output.
type Options struct {
	MaxKeywordWords     int
	MaxDescriptionChars int
}

// Client generates SEO keywords and meta descriptions.
type Client struct {
	exec     *transport.Executor
	apiKey   string
	model    string
	endpoint string
	opts     Options
	logger   *logger.Logger
}

// NewClient creates a client from the immutable run configuration.
func NewClient(cfg *config.Config, exec *transport.Executor, log *logger.Logger) *Client {
	return NewClientWithOptions(cfg.Gemini.Endpoint, cfg.Gemini.APIKey, cfg.Gemini.Model, Options{
		MaxKeywordWords:     cfg.Generation.MaxKeywordWords,
		MaxDescriptionChars: cfg.Generation.MaxDescriptionChars,
	}, exec, log)
}

// NewClientWithOptions creates a client for an explicit endpoint (useful for testing).
func NewClientWithOptions(endpoint, apiKey, model string, opts Options, exec *transport.Executor, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}

	if opts.MaxKeywordWords < 1 {
		opts.MaxKeywordWords = 6
	}

	if opts.MaxDescriptionChars < 10 {
		opts.MaxDescriptionChars = 160
	}

	return &Client{
		exec:     exec,
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimRight(endpoint, "/"),
		opts:     opts,
		logger:   log,
	}
}

// GenerateKeyword asks for a 2-3 word focus keyword for the post.
func (c *Client) GenerateKeyword(ctx context.Context, title, excerpt string) (string, error) {
	text, err := c.generate(ctx, buildKeywordPrompt(title, excerpt), 32)
	if err != nil {
		return "", err
	}

	keyword, err := cleanKeyword(text, c.opts.MaxKeywordWords)
	if err != nil {
		return "", fmt.Errorf("%w: %w (response: %q)", ErrGeneration, err, text)
	}

	return keyword, nil
}

// GenerateMetaDescription asks for a meta description that includes keyword.
// The result is truncated to the configured length; a missing keyword is accepted.
func (c *Client) GenerateMetaDescription(ctx context.Context, title, keyword, excerpt string) (string, error) {
	text, err := c.generate(ctx, buildDescriptionPrompt(title, keyword, excerpt, c.opts.MaxDescriptionChars), 256)
	if err != nil {
		return "", err
	}

	description := cleanDescription(text, c.opts.MaxDescriptionChars)
	if description == "" {
		return "", fmt.Errorf("%w: %w", ErrGeneration, ErrEmptyResponse)
	}

	return description, nil
}

func buildKeywordPrompt(title, excerpt string) string {
	var sb strings.Builder

	sb.WriteString("Analyze this WordPress blog post and identify the most relevant 2-3 word SEO keyword phrase that:\n")
	sb.WriteString("1. Accurately represents the main topic\n")
	sb.WriteString("2. Has search value\n")
	sb.WriteString("3. Is naturally usable in titles and descriptions\n\n")
	sb.WriteString(fmt.Sprintf("Title: %q\n", title))
	sb.WriteString(fmt.Sprintf("Content snippet: %q\n\n", excerpt))
	sb.WriteString("Output ONLY the keyword phrase, nothing else.")

	return sb.String()
}

func buildDescriptionPrompt(title, keyword, excerpt string, maxChars int) string {
	var sb strings.Builder

	sb.WriteString("Write a compelling meta description for a WordPress blog post.\n\n")
	sb.WriteString(fmt.Sprintf("Title: %q\n", title))
	sb.WriteString(fmt.Sprintf("Content snippet: %q\n\n", excerpt))
	sb.WriteString("Requirements:\n")
	sb.WriteString(fmt.Sprintf("- Maximum length: %d characters\n", maxChars))
	sb.WriteString(fmt.Sprintf("- Include this exact keyword phrase: %q\n", keyword))
	sb.WriteString("- Focus on enticing readers to click\n")
	sb.WriteString("- Be concise and informative\n")
	sb.WriteString("- Use active voice\n")
	sb.WriteString("- Output ONLY the meta description text, nothing else")

	return sb.String()
}

// cleanKeyword reduces a model answer to a plain phrase.
func cleanKeyword(text string, maxWords int) (string, error) {
	line := firstLine(stripFences(text))

	// "Keyword: coffee makers"
	if _, after, ok := strings.Cut(line, ":"); ok {
		line = after
	}

	keyword := utils.NormalizeWhitespace(utils.TrimWrapping(line))
	if keyword == "" {
		return "", ErrEmptyResponse
	}

	if utils.WordCount(keyword) > maxWords {
		return "", ErrKeywordTooLong
	}

	return keyword, nil
}

// cleanDescription trims labels and wrapping quotes, then enforces the length bound.
func cleanDescription(text string, maxChars int) string {
	description := utils.NormalizeWhitespace(stripFences(text))

	lower := strings.ToLower(description)
	for _, label := range []string{"meta description:", "description:"} {
		if strings.HasPrefix(lower, label) {
			description = strings.TrimSpace(description[len(label):])
			break
		}
	}

	description = strings.Trim(description, "\"'“”`")

	return utils.TruncateRunes(description, maxChars, "...")
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	return strings.TrimSpace(text)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
	}

	return ""
}

type generateRequest struct {
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	Contents         []content         `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
	Candidates []struct {
		FinishReason string  `json:"finishReason,omitempty"`
		Content      content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     0.4,
			MaxOutputTokens: maxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)

	resp, err := c.exec.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, err
		}

		utils.ApplyHeaders(req, utils.BuildHeaders(map[string]string{
			"Content-Type":   "application/json",
			"x-goog-api-key": c.apiKey,
		}))

		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	var apiResp generateResponse
	if err := json.Unmarshal(resp.Body, &apiResp); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %w", ErrGeneration, err)
	}

	if apiResp.PromptFeedback != nil && apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %w: %s", ErrGeneration, ErrBlocked, apiResp.PromptFeedback.BlockReason)
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("%w: %w", ErrGeneration, ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, p := range apiResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: %w", ErrGeneration, ErrEmptyResponse)
	}

	c.logger.Debug("Model responded", "model", c.model, "finish_reason", apiResp.Candidates[0].FinishReason, "chars", len(text))

	return text, nil
}
