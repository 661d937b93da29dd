// Package openai implements the chat-style provider adapter against any
// OpenAI-compatible chat-completion endpoint (OpenAI itself, GitHub
// Models, or a self-hosted gateway).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/notegrove/notegrove/llm"
)

const (
	DefaultEndpoint         = "https://api.openai.com/v1"
	defaultTimeout          = 60 * time.Second
	defaultMaxResponseBytes = 4 << 20
)

type Client struct {
	Endpoint string
	APIKey   string

	// HTTP may be replaced in tests. Timeout applies per request.
	HTTP             *http.Client
	Timeout          time.Duration
	MaxResponseBytes int64
}

func New(endpoint, apiKey string) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint:         strings.TrimRight(endpoint, "/"),
		APIKey:           apiKey,
		HTTP:             &http.Client{Timeout: defaultTimeout},
		Timeout:          defaultTimeout,
		MaxResponseBytes: defaultMaxResponseBytes,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []llm.Message `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	TopP           float64       `json:"top_p,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat issues a single chat-completion request. There is no retry loop:
// chat endpoints do not report a loading state, so transient handling is
// left to the caller.
func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return llm.Result{}, fmt.Errorf("openai: %w: empty api key", llm.ErrUnauthorized)
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	}
	if req.ForceJSON {
		body.ResponseFormat = &respFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Result{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return llm.Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return llm.Result{}, fmt.Errorf("openai: %w: %v", llm.ErrTimeout, err)
		}
		return llm.Result{}, fmt.Errorf("openai: %w: %v", llm.ErrUpstream, err)
	}
	defer resp.Body.Close()

	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = defaultMaxResponseBytes
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return llm.Result{}, fmt.Errorf("openai: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return llm.Result{}, fmt.Errorf("openai: %w: status %d", llm.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return llm.Result{}, fmt.Errorf("openai: %w: status %d", llm.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return llm.Result{}, fmt.Errorf("openai: %w: status %d: %s", llm.ErrUpstream, resp.StatusCode, truncate(raw, 512))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Result{}, fmt.Errorf("openai: %w: undecodable body: %s", llm.ErrMalformedResponse, truncate(raw, 512))
	}
	if parsed.Error != nil {
		return llm.Result{}, fmt.Errorf("openai: %w: %s", llm.ErrUpstream, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return llm.Result{}, fmt.Errorf("openai: %w: empty choices: %s", llm.ErrMalformedResponse, truncate(raw, 512))
	}

	return llm.Result{
		Text: parsed.Choices[0].Message.Content,
		Usage: llm.Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
		Duration: time.Since(start),
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
