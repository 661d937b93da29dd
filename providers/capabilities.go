package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/notegrove/notegrove/llm"
	"github.com/notegrove/notegrove/prompt"
	"github.com/notegrove/notegrove/providers/hf"
	"github.com/notegrove/notegrove/providers/mstranslator"
	"github.com/notegrove/notegrove/providers/openai"
)

// hfGenerator runs chat-style generation on a Hugging Face text
// generation model. Chat temperatures live in a 0..2 range; inference
// models take 0..1, so the value is halved and clamped.
type hfGenerator struct {
	client *hf.Client
	model  string
}

func (g *hfGenerator) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return g.client.Chat(ctx, g.model, messages, hf.GenerateParams{
		MaxNewTokens: 500,
		Temperature:  clampTemperature(1.0),
	})
}

func clampTemperature(chatTemp float64) float64 {
	t := chatTemp / 2.0
	if t > 1.0 {
		return 1.0
	}
	return t
}

// chatGenerator runs generation on an OpenAI-compatible endpoint.
type chatGenerator struct {
	client *openai.Client
	model  string
}

func (g *chatGenerator) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	res, err := g.client.Chat(ctx, llm.Request{
		Model:       g.model,
		Messages:    messages,
		Temperature: 1.0,
		TopP:        1.0,
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// microsoftTranslator wraps the Microsoft client. A failed call is not
// retried; it falls through to the deterministic offline lexicon so the
// caller still gets a usable answer for common phrases.
type microsoftTranslator struct {
	client *mstranslator.Client
	log    *slog.Logger
}

func (t *microsoftTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	out, err := t.client.Translate(ctx, text, targetLanguage)
	if err == nil {
		return out, nil
	}
	t.log.Warn("microsoft_translate_failed", "error", err.Error())
	return lexiconTranslate(text, targetLanguage), nil
}

// hfTranslator uses a dedicated Hugging Face translation model, falling
// back to the generation provider with a translation prompt when the
// translation model call fails.
type hfTranslator struct {
	client   *hf.Client
	model    string
	fallback llm.Generator
	log      *slog.Logger
}

func (t *hfTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	code := mstranslator.LanguageCode(targetLanguage)
	out, err := t.client.Translate(ctx, t.model, text, code)
	if err == nil {
		return out, nil
	}
	if t.fallback == nil {
		return "", err
	}
	t.log.Warn("hf_translation_model_failed", "error", err.Error())
	return (&promptTranslator{gen: t.fallback}).Translate(ctx, text, targetLanguage)
}

// promptTranslator translates through the generation capability with a
// translation-phrased prompt.
type promptTranslator struct {
	gen llm.Generator
}

func (t *promptTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	p, err := prompt.Translation(text, targetLanguage)
	if err != nil {
		return "", fmt.Errorf("translate: build prompt: %w", err)
	}
	return t.gen.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: p}})
}
