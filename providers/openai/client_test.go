package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/notegrove/notegrove/llm"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func fakeResponse(status int, body string) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	}
}

func TestClient_NormalResponseParsed(t *testing.T) {
	validJSON := `{"choices":[{"message":{"content":"hello"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`

	c := New("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: fakeResponse(200, validJSON)}

	res, err := c.Chat(context.Background(), llm.Request{
		Model:    "test",
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.Text != "hello" {
		t.Fatalf("expected text %q, got %q", "hello", res.Text)
	}
	if res.Usage.TotalTokens != 2 {
		t.Fatalf("expected total tokens 2, got %d", res.Usage.TotalTokens)
	}
}

func TestClient_ResponseBodyTruncated(t *testing.T) {
	// Build a response body larger than the limit.
	const limit int64 = 256
	bigBody := strings.Repeat("x", int(limit)+100)

	c := New("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: fakeResponse(200, bigBody)}
	c.MaxResponseBytes = limit

	// Chat will fail to decode truncated JSON, but the key thing is
	// that io.ReadAll did not read more than limit bytes.
	_, err := c.Chat(context.Background(), llm.Request{
		Model:    "test",
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClient_NonJSONBodyIsMalformed(t *testing.T) {
	c := New("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: fakeResponse(200, "this is not json at all")}

	_, err := c.Chat(context.Background(), llm.Request{Model: "test"})
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if !strings.Contains(err.Error(), "this is not json at all") {
		t.Fatalf("expected raw body in error, got: %v", err)
	}
}

func TestClient_EmptyChoicesIsMalformed(t *testing.T) {
	c := New("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: fakeResponse(200, `{"choices":[]}`)}

	_, err := c.Chat(context.Background(), llm.Request{Model: "test"})
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{401, llm.ErrUnauthorized},
		{403, llm.ErrUnauthorized},
		{429, llm.ErrUnavailable},
		{503, llm.ErrUnavailable},
		{500, llm.ErrUpstream},
	}
	for _, tc := range cases {
		c := New("http://fake.test", "key")
		c.HTTP = &http.Client{Transport: fakeResponse(tc.status, `{}`)}

		_, err := c.Chat(context.Background(), llm.Request{Model: "test"})
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestClient_EmptyKeyFailsBeforeNetwork(t *testing.T) {
	called := false
	c := New("http://fake.test", "")
	c.HTTP = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("should not be reached")
	})}

	_, err := c.Chat(context.Background(), llm.Request{Model: "test"})
	if !errors.Is(err, llm.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if called {
		t.Fatal("expected no network attempt with empty key")
	}
}

func TestClient_ForceJSONSetsResponseFormat(t *testing.T) {
	var seenBody string
	c := New("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		return fakeResponse(200, `{"choices":[{"message":{"content":"{}"}}]}`)(r)
	})}

	_, err := c.Chat(context.Background(), llm.Request{Model: "test", ForceJSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(seenBody, `"response_format":{"type":"json_object"}`) {
		t.Fatalf("expected response_format in request body, got: %s", seenBody)
	}
}
