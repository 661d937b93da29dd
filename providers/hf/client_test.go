package hf

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/notegrove/notegrove/llm"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(rt roundTripFunc) (*Client, *[]time.Duration) {
	slept := &[]time.Duration{}
	c := New("key")
	c.HTTP = &http.Client{Transport: rt}
	c.Sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return c, slept
}

func TestGenerate_LoadingRetriesThenSucceeds(t *testing.T) {
	calls := 0
	c, slept := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return jsonResponse(503, `{"estimated_time": 2.0}`), nil
		}
		return jsonResponse(200, `[{"generated_text":"  done  "}]`), nil
	})

	out, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "done" {
		t.Fatalf("expected %q, got %q", "done", out)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", calls)
	}
	var total time.Duration
	for _, d := range *slept {
		total += d
	}
	if total != 4*time.Second {
		t.Fatalf("expected 4s total sleep, got %v", total)
	}
}

func TestGenerate_LoadingWaitClamped(t *testing.T) {
	calls := 0
	c, slept := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(503, `{"estimated_time": 120.0}`), nil
		}
		return jsonResponse(200, `[{"generated_text":"ok"}]`), nil
	})

	if _, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*slept) != 1 || (*slept)[0] != 20*time.Second {
		t.Fatalf("expected a single 20s sleep, got %v", *slept)
	}
}

func TestGenerate_RetryBudgetExhausted(t *testing.T) {
	calls := 0
	c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(503, `{"estimated_time": 1.0}`), nil
	})

	_, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{})
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestGenerate_TransientBackoffOn429(t *testing.T) {
	calls := 0
	c, slept := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(429, `{"error":"rate limited"}`), nil
		}
		return jsonResponse(200, `["plain result"]`), nil
	})

	out, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "plain result" {
		t.Fatalf("expected %q, got %q", "plain result", out)
	}
	if len(*slept) != 1 || (*slept)[0] != 5*time.Second {
		t.Fatalf("expected a single 5s backoff, got %v", *slept)
	}
}

func TestGenerate_NonTransientFailsImmediately(t *testing.T) {
	calls := 0
	c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(500, `{"error":"boom"}`), nil
	})

	_, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{})
	if !errors.Is(err, llm.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestGenerate_UnauthorizedFailsImmediately(t *testing.T) {
	calls := 0
	c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(401, `{"error":"bad key"}`), nil
	})

	_, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{})
	if !errors.Is(err, llm.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestGenerate_ResponseShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"list of objects", `[{"generated_text":"a"}]`, "a"},
		{"list of strings", `["b"]`, "b"},
		{"object", `{"generated_text":"c"}`, "c"},
		{"bare string", `"d"`, "d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
				return jsonResponse(200, tc.body), nil
			})
			out, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, out)
			}
		})
	}
}

func TestGenerate_UnexpectedShapeIsMalformed(t *testing.T) {
	c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"unexpected":"shape"}`), nil
	})

	_, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{})
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGenerate_EmptyKeyFailsBeforeNetwork(t *testing.T) {
	called := false
	c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("should not be reached")
	})
	c.APIKey = ""

	_, err := c.Generate(context.Background(), "test/model", "hi", GenerateParams{})
	if !errors.Is(err, llm.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if called {
		t.Fatal("expected no network attempt with empty key")
	}
}

func TestChat_FlattensMessages(t *testing.T) {
	var seenBody string
	c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		return jsonResponse(200, `[{"generated_text":"ok"}]`), nil
	})

	_, err := c.Chat(context.Background(), "test/model", []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hello"},
	}, GenerateParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"System: be brief", "User: hello", "Assistant:"} {
		if !strings.Contains(seenBody, want) {
			t.Fatalf("expected flattened prompt to contain %q, got: %s", want, seenBody)
		}
	}
}

func TestTranslate_TargetPrefixAndShape(t *testing.T) {
	var seenBody string
	c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		return jsonResponse(200, `[{"translation_text":"hola"}]`), nil
	})

	out, err := c.Translate(context.Background(), "Helsinki-NLP/opus-mt-en-mul", "hello", "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hola" {
		t.Fatalf("expected %q, got %q", "hola", out)
	}
	if !strings.Contains(seenBody, ">>es<< hello") {
		t.Fatalf("expected target-language prefix in inputs, got: %s", seenBody)
	}
}

func TestTranslate_MulEnModelSkipsPrefix(t *testing.T) {
	var seenBody string
	c, _ := newTestClient(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		return jsonResponse(200, `[{"translation_text":"hello"}]`), nil
	})

	if _, err := c.Translate(context.Background(), "Helsinki-NLP/opus-mt-mul-en", "hola", "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(seenBody, ">>") {
		t.Fatalf("expected no language prefix for mul-en model, got: %s", seenBody)
	}
}
