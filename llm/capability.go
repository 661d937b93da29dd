package llm

import "context"

// Generator and Translator are the two capabilities the service layer
// consumes. Exactly one provider backs each, chosen once at startup;
// callers never branch on provider identity.

type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}
