// Package ai talks to an OpenRouter-compatible chat-completions endpoint.
// The provider is treated as a black box that turns a prompt into text;
// nothing here interprets the text beyond digging it out of the response
// envelope.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when the provider credential is absent.
// Callers that are about to perform destructive work check Configured
// first so this never surfaces after a mutation.
var ErrNotConfigured = errors.New("ai provider is not configured")

// UpstreamError reports a non-success status from the provider, keeping
// the upstream status code so the caller can decide how to map it.
type UpstreamError struct {
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai provider failed with status %d: %s", e.StatusCode, e.Detail)
}

// ModelParams selects the model and sampling knobs for one kind of
// generation. Layout and content generation use different budgets.
type ModelParams struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Request is a single completion request.
type Request struct {
	Params ModelParams
	Prompt string
}

// Client is the completion surface the generators depend on.
type Client interface {
	// Configured reports whether a credential is present, without
	// issuing a request.
	Configured() bool

	// Complete sends the prompt and returns the raw response text.
	// The text is untrusted; run it through the extract package.
	Complete(ctx context.Context, req Request) (string, error)
}

// Config carries the provider endpoint settings.
type Config struct {
	URL     string
	Key     string
	Referer string
	Title   string
	Timeout time.Duration
}

// HTTPClient is the production Client backed by net/http.
type HTTPClient struct {
	cfg Config
	hc  *http.Client
}

func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &HTTPClient{
		cfg: cfg,
		hc:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Configured() bool {
	return c.cfg.Key != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Content string          `json:"content"`
	Error   json.RawMessage `json:"error"`
}

func (c *HTTPClient) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(completionRequest{
		Model:       req.Params.Model,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		MaxTokens:   req.Params.MaxTokens,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}

	r.Header.Set("Authorization", "Bearer "+c.cfg.Key)
	r.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		r.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		r.Header.Set("X-Title", c.cfg.Title)
	}

	w, err := c.hc.Do(r)
	if err != nil {
		return "", &UpstreamError{StatusCode: http.StatusBadGateway, Detail: err.Error()}
	}
	defer w.Body.Close()

	raw, err := io.ReadAll(w.Body)
	if err != nil {
		return "", &UpstreamError{StatusCode: http.StatusBadGateway, Detail: err.Error()}
	}

	var resp completionResponse
	if err := json.Unmarshal(raw, &resp); err != nil && w.StatusCode < 300 {
		return "", &UpstreamError{StatusCode: w.StatusCode, Detail: "unreadable provider response"}
	}

	if w.StatusCode < 200 || w.StatusCode >= 300 {
		return "", &UpstreamError{StatusCode: w.StatusCode, Detail: errorDetail(resp.Error, w.StatusCode)}
	}

	text := responseText(resp)
	if text == "" {
		return "", &UpstreamError{StatusCode: http.StatusBadGateway, Detail: "no content received"}
	}

	return text, nil
}

// responseText mirrors the shapes the provider is known to answer with:
// chat choices first, then legacy text choices, then a bare content field.
func responseText(resp completionResponse) string {
	if len(resp.Choices) > 0 {
		if c := resp.Choices[0].Message.Content; c != "" {
			return c
		}
		if t := resp.Choices[0].Text; t != "" {
			return t
		}
	}
	return resp.Content
}

func errorDetail(raw json.RawMessage, status int) string {
	if len(raw) > 0 {
		var structured struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &structured); err == nil && structured.Message != "" {
			return structured.Message
		}

		var plain string
		if err := json.Unmarshal(raw, &plain); err == nil && plain != "" {
			return plain
		}
	}
	return fmt.Sprintf("provider request failed with status %d", status)
}
