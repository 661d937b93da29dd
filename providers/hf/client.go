// Package hf implements the inference-style provider adapter against the
// Hugging Face Inference API. Hosted inference models report a loading
// state while they warm up, so every call runs inside a bounded retry
// loop; see callModel.
package hf

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
	DefaultBaseURL = "https://api-inference.huggingface.co/models/"
	DefaultModel   = "google/flan-t5-large"

	defaultTimeout    = 30 * time.Second
	defaultRetryCount = 3

	// Provider-suggested warmup waits are clamped so a bad estimate
	// cannot stall a request for minutes.
	maxLoadingWait   = 20 * time.Second
	transientBackoff = 5 * time.Second
)

type Client struct {
	BaseURL string
	APIKey  string

	// HTTP and Sleep may be replaced in tests.
	HTTP       *http.Client
	Sleep      func(time.Duration)
	Timeout    time.Duration
	RetryCount int
}

func New(apiKey string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		APIKey:     apiKey,
		HTTP:       &http.Client{Timeout: defaultTimeout},
		Sleep:      time.Sleep,
		Timeout:    defaultTimeout,
		RetryCount: defaultRetryCount,
	}
}

type GenerateParams struct {
	MaxNewTokens int
	Temperature  float64
}

type generatePayload struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type loadingReply struct {
	EstimatedTime *float64 `json:"estimated_time"`
}

// Generate runs a text-generation call and normalizes the reply to a
// plain string.
func (c *Client) Generate(ctx context.Context, model, prompt string, p GenerateParams) (string, error) {
	if p.MaxNewTokens <= 0 {
		p.MaxNewTokens = 200
	}
	raw, err := c.callModel(ctx, model, generatePayload{
		Inputs: prompt,
		Parameters: generateParameters{
			MaxNewTokens:   p.MaxNewTokens,
			Temperature:    p.Temperature,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}
	return normalizeGenerated(raw)
}

// Chat simulates chat completion on a text-generation model by
// flattening role-tagged messages into a single transcript prompt.
func (c *Client) Chat(ctx context.Context, model string, messages []llm.Message, p GenerateParams) (string, error) {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			b.WriteString("System: ")
		case llm.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return c.Generate(ctx, model, b.String(), p)
}

type translatePayload struct {
	Inputs string `json:"inputs"`
}

// Translate calls a translation model. opus-mt "mul-en" variants take the
// text as-is; other variants need a ">>code<<" target prefix.
func (c *Client) Translate(ctx context.Context, model, text, targetCode string) (string, error) {
	inputs := text
	if !strings.Contains(strings.ToLower(model), "mul-en") && !strings.EqualFold(targetCode, "en") {
		inputs = fmt.Sprintf(">>%s<< %s", targetCode, text)
	}
	raw, err := c.callModel(ctx, model, translatePayload{Inputs: inputs})
	if err != nil {
		return "", err
	}
	return normalizeTranslated(raw)
}

// callModel posts one payload to the inference endpoint with the retry
// policy: a loading reply sleeps for the provider-suggested wait (clamped
// to maxLoadingWait) and retries; timeouts retry; 429/503 without a wait
// hint back off a fixed 5s and retry; anything else fails immediately.
// The budget covers attempts of every kind.
func (c *Client) callModel(ctx context.Context, model string, payload any) (json.RawMessage, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("hf: %w: empty api key", llm.ErrUnauthorized)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("hf: marshal payload: %w", err)
	}

	retries := c.RetryCount
	if retries <= 0 {
		retries = defaultRetryCount
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		raw, status, err := c.post(ctx, model, body)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
				lastErr = fmt.Errorf("hf: %w: %v", llm.ErrTimeout, err)
				continue
			}
			return nil, fmt.Errorf("hf: %w: %v", llm.ErrUpstream, err)
		}

		switch {
		case status >= 200 && status < 300:
			return raw, nil
		case status == http.StatusServiceUnavailable:
			var lr loadingReply
			if json.Unmarshal(raw, &lr) == nil && lr.EstimatedTime != nil {
				wait := time.Duration(*lr.EstimatedTime * float64(time.Second))
				if wait > maxLoadingWait || wait <= 0 {
					wait = maxLoadingWait
				}
				lastErr = fmt.Errorf("hf: %w: model loading", llm.ErrUnavailable)
				sleep(wait)
				continue
			}
			lastErr = fmt.Errorf("hf: %w: status %d", llm.ErrUnavailable, status)
			sleep(transientBackoff)
			continue
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("hf: %w: status %d", llm.ErrUnavailable, status)
			sleep(transientBackoff)
			continue
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, fmt.Errorf("hf: %w: status %d", llm.ErrUnauthorized, status)
		default:
			return nil, fmt.Errorf("hf: %w: status %d: %s", llm.ErrUpstream, status, snippet(raw))
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("hf: %w: retry budget exhausted", llm.ErrUnavailable)
	}
	return nil, fmt.Errorf("%w (after %d attempts)", lastErr, retries)
}

func (c *Client) post(ctx context.Context, model string, body []byte) (json.RawMessage, int, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	url := strings.TrimRight(base, "/") + "/" + model

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}

// normalizeGenerated accepts the four documented reply shapes:
// [{"generated_text": s}], [s], {"generated_text": s}, or a bare string.
func normalizeGenerated(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("hf: %w: %s", llm.ErrMalformedResponse, snippet(raw))
	}
	switch t := v.(type) {
	case []any:
		if len(t) > 0 {
			if m, ok := t[0].(map[string]any); ok {
				if s, ok := m["generated_text"].(string); ok {
					return strings.TrimSpace(s), nil
				}
			}
			if s, ok := t[0].(string); ok {
				return strings.TrimSpace(s), nil
			}
		}
	case map[string]any:
		if s, ok := t["generated_text"].(string); ok {
			return strings.TrimSpace(s), nil
		}
	case string:
		return strings.TrimSpace(t), nil
	}
	return "", fmt.Errorf("hf: %w: %s", llm.ErrMalformedResponse, snippet(raw))
}

// normalizeTranslated additionally accepts translation_text, which opus-mt
// models emit instead of generated_text.
func normalizeTranslated(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("hf: %w: %s", llm.ErrMalformedResponse, snippet(raw))
	}
	switch t := v.(type) {
	case []any:
		if len(t) > 0 {
			if m, ok := t[0].(map[string]any); ok {
				for _, key := range []string{"translation_text", "generated_text"} {
					if s, ok := m[key].(string); ok {
						return strings.TrimSpace(s), nil
					}
				}
			}
			if s, ok := t[0].(string); ok {
				return strings.TrimSpace(s), nil
			}
		}
	case map[string]any:
		for _, key := range []string{"translation_text", "generated_text"} {
			if s, ok := t[key].(string); ok {
				return strings.TrimSpace(s), nil
			}
		}
	case string:
		return strings.TrimSpace(t), nil
	}
	return "", fmt.Errorf("hf: %w: %s", llm.ErrMalformedResponse, snippet(raw))
}

func isClientTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
