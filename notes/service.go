package notes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/notegrove/notegrove/db/models"
	"github.com/notegrove/notegrove/llm"
	"github.com/notegrove/notegrove/prompt"
)

// Service ties the extraction pipeline together: prompt construction,
// the selected provider capabilities, JSON recovery, and materialization.
// A nil capability means it was not configured; the corresponding
// operation fails with llm.ErrNotConfigured before any network attempt.
type Service struct {
	Generator  llm.Generator
	Translator llm.Translator
	Store      *Store
	Log        *slog.Logger

	// Now anchors relative date resolution; replaced in tests.
	Now func() time.Time
}

func NewService(gen llm.Generator, tr llm.Translator, store *Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		Generator:  gen,
		Translator: tr,
		Store:      store,
		Log:        log,
		Now:        time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Translate renders text into the target language via the selected
// translation capability.
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if s.Translator == nil {
		return "", fmt.Errorf("translate: %w", llm.ErrNotConfigured)
	}
	return s.Translator.Translate(ctx, text, targetLanguage)
}

// ExtractStructured asks the generation capability for the five-field
// record and recovers it from the reply. On unparsable output the error
// is a *jsonutil.UnparsableError carrying the raw model text.
func (s *Service) ExtractStructured(ctx context.Context, text, language string) (StructuredExtraction, error) {
	if s.Generator == nil {
		return StructuredExtraction{}, fmt.Errorf("extract: %w", llm.ErrNotConfigured)
	}
	p, err := prompt.Extraction(text, language, s.now())
	if err != nil {
		return StructuredExtraction{}, fmt.Errorf("extract: build prompt: %w", err)
	}
	raw, err := s.Generator.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: p}})
	if err != nil {
		return StructuredExtraction{}, fmt.Errorf("extract: %w", err)
	}
	ex, err := DecodeExtraction(raw)
	if err != nil {
		return StructuredExtraction{}, err
	}
	return ex, nil
}

// GenerateNote extracts structured fields from inputText and persists
// the resulting note.
func (s *Service) GenerateNote(ctx context.Context, inputText, language string) (models.Note, error) {
	ex, err := s.ExtractStructured(ctx, inputText, language)
	if err != nil {
		return models.Note{}, err
	}
	s.checkCanonicalFormats(ex)
	note, err := s.Store.Materialize(ctx, ex, inputText)
	if err != nil {
		return models.Note{}, fmt.Errorf("materialize note: %w", err)
	}
	s.Log.Info("note_generated",
		"note_id", note.ID,
		"order_index", note.OrderIndex,
		"has_event_date", note.EventDate != "",
	)
	return note, nil
}

// checkCanonicalFormats logs when the extractor emitted a non-canonical
// date or time. Values are persisted verbatim either way; the log keeps
// bad extractions observable without rejecting them.
func (s *Service) checkCanonicalFormats(ex StructuredExtraction) {
	if ex.EventDate != "" {
		if _, err := time.Parse(prompt.DateLayout, ex.EventDate); err != nil {
			s.Log.Debug("event_date_not_canonical", "value", ex.EventDate)
		}
	}
	if ex.EventTime != "" {
		if _, err := time.Parse(prompt.TimeLayout, ex.EventTime); err != nil {
			s.Log.Debug("event_time_not_canonical", "value", ex.EventTime)
		}
	}
}
