package llm

import (
	"context"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	TopP        float64
	MaxTokens   int
	ForceJSON   bool
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

// Client is a chat-completion style provider: one request, one reply.
type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}
