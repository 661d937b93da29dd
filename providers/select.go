// Package providers selects the active provider per capability. Selection
// runs once at startup from the configured credentials and is immutable
// for the process lifetime; it performs no network calls.
package providers

import (
	"log/slog"
	"strings"

	"github.com/notegrove/notegrove/llm"
	"github.com/notegrove/notegrove/providers/hf"
	"github.com/notegrove/notegrove/providers/mstranslator"
	"github.com/notegrove/notegrove/providers/openai"
)

// GitHubModelsEndpoint serves OpenAI-compatible chat completions
// authenticated with a GitHub token.
const GitHubModelsEndpoint = "https://models.inference.ai.azure.com"

const (
	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGitHubModel = "gpt-4o-mini"
)

// Config holds every credential and model identifier the selector
// inspects. Read once at startup; no hot reload.
type Config struct {
	HFAPIKey           string
	HFModel            string
	HFTranslationModel string

	OpenAIAPIKey   string
	OpenAIEndpoint string
	OpenAIModel    string
	GitHubToken    string

	TranslatorAPIKey   string
	TranslatorRegion   string
	TranslatorEndpoint string
}

// Capabilities is the result of selection. A nil field means the
// capability is unavailable and callers must receive a configuration
// error rather than attempting the call.
type Capabilities struct {
	Generator  llm.Generator
	Translator llm.Translator
}

// Select picks one provider per capability.
//
// Generation priority: a dedicated inference key (Hugging Face) outranks
// an OpenAI-compatible key, which outranks a GitHub Models token.
// Translation priority: a dedicated translation key (Microsoft) outranks
// a Hugging Face translation model, which outranks translating through
// the generation provider with a translation-phrased prompt.
func Select(cfg Config, log *slog.Logger) Capabilities {
	if log == nil {
		log = slog.Default()
	}

	var caps Capabilities
	genName := "none"
	switch {
	case strings.TrimSpace(cfg.HFAPIKey) != "":
		model := strings.TrimSpace(cfg.HFModel)
		if model == "" {
			model = hf.DefaultModel
		}
		caps.Generator = &hfGenerator{client: hf.New(cfg.HFAPIKey), model: model}
		genName = "huggingface"
	case strings.TrimSpace(cfg.OpenAIAPIKey) != "":
		model := strings.TrimSpace(cfg.OpenAIModel)
		if model == "" {
			model = defaultOpenAIModel
		}
		caps.Generator = &chatGenerator{client: openai.New(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey), model: model}
		genName = "openai"
	case strings.TrimSpace(cfg.GitHubToken) != "":
		model := strings.TrimSpace(cfg.OpenAIModel)
		if model == "" {
			model = defaultGitHubModel
		}
		caps.Generator = &chatGenerator{client: openai.New(GitHubModelsEndpoint, cfg.GitHubToken), model: model}
		genName = "github-models"
	}

	trName := "none"
	switch {
	case strings.TrimSpace(cfg.TranslatorAPIKey) != "":
		client := mstranslator.New(cfg.TranslatorAPIKey)
		if ep := strings.TrimSpace(cfg.TranslatorEndpoint); ep != "" {
			client.Endpoint = ep
		}
		if region := strings.TrimSpace(cfg.TranslatorRegion); region != "" {
			client.Region = region
		}
		caps.Translator = &microsoftTranslator{client: client, log: log}
		trName = "microsoft"
	case strings.TrimSpace(cfg.HFAPIKey) != "" && strings.TrimSpace(cfg.HFTranslationModel) != "":
		caps.Translator = &hfTranslator{
			client:   hf.New(cfg.HFAPIKey),
			model:    strings.TrimSpace(cfg.HFTranslationModel),
			fallback: caps.Generator,
			log:      log,
		}
		trName = "huggingface"
	case caps.Generator != nil:
		caps.Translator = &promptTranslator{gen: caps.Generator}
		trName = "generator-prompt"
	}

	log.Info("providers_selected", "generate", genName, "translate", trName)
	return caps
}
