// Package prompt builds the instruction prompts for structured note
// extraction and translation. Both builders are pure functions of their
// inputs so extraction is reproducible in tests.
package prompt

import (
	_ "embed"
	"time"

	"github.com/notegrove/notegrove/internal/prompttmpl"
)

// DateLayout is the canonical event date serialization, dd-Mon-yyyy.
const DateLayout = "02-Jan-2006"

// TimeLayout is the canonical event time serialization, 24-hour HH:MM.
const TimeLayout = "15:04"

//go:embed templates/extraction.tmpl
var extractionSource string

//go:embed templates/translation.tmpl
var translationSource string

var extractionTemplate = prompttmpl.MustParse("extraction", extractionSource, nil)
var translationTemplate = prompttmpl.MustParse("translation", translationSource, nil)

type extractionData struct {
	Now       string
	Yesterday string
	Tomorrow  string
	Language  string
	Text      string
}

// Extraction renders the five-field extraction instruction. now anchors
// relative date words, so the few-shot examples are computed from it
// rather than hard-coded.
func Extraction(text, language string, now time.Time) (string, error) {
	if language == "" {
		language = "English"
	}
	return prompttmpl.Render(extractionTemplate, extractionData{
		Now:       now.Format("2006-01-02 15:04:05"),
		Yesterday: now.AddDate(0, 0, -1).Format(DateLayout),
		Tomorrow:  now.AddDate(0, 0, 1).Format(DateLayout),
		Language:  language,
		Text:      text,
	})
}

type translationData struct {
	TargetLanguage string
	Text           string
}

// Translation renders the one-line translation instruction.
func Translation(text, targetLanguage string) (string, error) {
	return prompttmpl.Render(translationTemplate, translationData{
		TargetLanguage: targetLanguage,
		Text:           text,
	})
}
