// Package jsonutil recovers structured JSON from free-form model output.
// Model replies are supposed to be raw JSON, but in practice arrive
// wrapped in prose, code fences, or with minor syntax damage.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/quailyquaily/uniai"
)

var (
	ErrEmptyInput = errors.New("empty model output")

	// ErrUnparsable marks output from which no JSON object could be
	// recovered. Match with errors.Is; the raw text travels on the
	// concrete *UnparsableError.
	ErrUnparsable = errors.New("no json object recovered")
)

// UnparsableError keeps the original model output so the route boundary
// can surface it for diagnosis. The raw response is never dropped.
type UnparsableError struct {
	Raw string
	Err error
}

func (e *UnparsableError) Error() string {
	return fmt.Sprintf("unparsable structure: %v", e.Err)
}

func (e *UnparsableError) Is(target error) bool { return target == ErrUnparsable }

func (e *UnparsableError) Unwrap() error { return e.Err }

// FindJSONPayload recovers a JSON object from raw model text. It tries,
// in order: the full string as-is, the greedy first-to-last brace span,
// then uniai's candidate collection, non-JSON line stripping, and repair.
// The first variant that parses to an object wins; scalars and arrays are
// rejected because the extraction contract is a five-field object.
func FindJSONPayload(text string) ([]byte, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, &UnparsableError{Raw: text, Err: ErrEmptyInput}
	}

	var lastErr error
	for _, cand := range candidates(raw) {
		if cand == "" {
			continue
		}
		var tmp map[string]any
		if err := json.Unmarshal([]byte(cand), &tmp); err != nil {
			lastErr = err
			continue
		}
		if tmp == nil {
			lastErr = errors.New("json null is not an object")
			continue
		}
		return []byte(cand), nil
	}
	if lastErr == nil {
		lastErr = ErrEmptyInput
	}
	return nil, &UnparsableError{Raw: text, Err: lastErr}
}

// DecodeWithFallback finds a JSON payload and unmarshals it into dst.
// Fields missing from the payload keep dst's zero values; that is the
// caller's tolerance policy, not an error here.
func DecodeWithFallback(text string, dst any) error {
	data, err := FindJSONPayload(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &UnparsableError{Raw: text, Err: err}
	}
	return nil
}

func candidates(raw string) []string {
	out := make([]string, 0, 8)
	seen := make(map[string]bool, 8)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	add(raw)
	add(braceSpan(raw))

	if cands, err := uniai.CollectJSONCandidates(raw); err == nil {
		for _, c := range cands {
			add(c)
		}
	}
	for _, c := range uniai.FindJSONSnippets(raw) {
		add(c)
	}
	add(uniai.StripNonJSONLines(raw))
	add(uniai.AttemptJSONRepair(raw))
	if span := braceSpan(raw); span != "" {
		add(uniai.AttemptJSONRepair(span))
	}

	return out
}

// braceSpan returns the greedy span from the first '{' to the last '}',
// spanning newlines, or "" when no such span exists.
func braceSpan(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
