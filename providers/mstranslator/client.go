// Package mstranslator implements the translation adapter against the
// Microsoft Translator v3 REST API.
package mstranslator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/notegrove/notegrove/llm"
)

const (
	DefaultEndpoint = "https://api.cognitive.microsofttranslator.com/translate"
	DefaultRegion   = "global"

	defaultTimeout = 15 * time.Second
)

// languageCodes maps common language names to BCP-47 codes. Unrecognized
// names fall back to their lowercased two-letter prefix.
var languageCodes = map[string]string{
	"english":    "en",
	"chinese":    "zh",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
}

// LanguageCode resolves a human language name to a two-letter code.
func LanguageCode(name string) string {
	name = strings.TrimSpace(name)
	if code, ok := languageCodes[strings.ToLower(name)]; ok {
		return code
	}
	lower := strings.ToLower(name)
	if len(lower) > 2 {
		lower = lower[:2]
	}
	return lower
}

type Client struct {
	Endpoint string
	APIKey   string
	Region   string

	// HTTP may be replaced in tests.
	HTTP    *http.Client
	Timeout time.Duration
}

func New(apiKey string) *Client {
	return &Client{
		Endpoint: DefaultEndpoint,
		APIKey:   apiKey,
		Region:   DefaultRegion,
		HTTP:     &http.Client{Timeout: defaultTimeout},
		Timeout:  defaultTimeout,
	}
}

type translateItem struct {
	Text string `json:"text"`
}

type translateReply struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate sends the text once (no retries) and returns the first
// translation. The target language may be a name ("Spanish") or a code.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", fmt.Errorf("mstranslator: %w: empty api key", llm.ErrUnauthorized)
	}

	body, err := json.Marshal([]translateItem{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("mstranslator: marshal request: %w", err)
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	q := url.Values{}
	q.Set("api-version", "3.0")
	q.Set("to", LanguageCode(targetLanguage))

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.APIKey)
	region := c.Region
	if region == "" {
		region = DefaultRegion
	}
	req.Header.Set("Ocp-Apim-Subscription-Region", region)

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("mstranslator: %w: %v", llm.ErrTimeout, err)
		}
		return "", fmt.Errorf("mstranslator: %w: %v", llm.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("mstranslator: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("mstranslator: %w: status %d", llm.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return "", fmt.Errorf("mstranslator: %w: status %d", llm.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("mstranslator: %w: status %d: %s", llm.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var replies []translateReply
	if err := json.Unmarshal(raw, &replies); err != nil {
		return "", fmt.Errorf("mstranslator: %w: %s", llm.ErrMalformedResponse, strings.TrimSpace(string(raw)))
	}
	if len(replies) == 0 || len(replies[0].Translations) == 0 {
		return "", fmt.Errorf("mstranslator: %w: empty translations: %s", llm.ErrMalformedResponse, strings.TrimSpace(string(raw)))
	}
	return replies[0].Translations[0].Text, nil
}
