package notes

import (
	"encoding/json"
	"strings"

	"github.com/notegrove/notegrove/internal/jsonutil"
)

// maxTags caps the tag list; the prompt asks for at most 3 but models do
// not always comply.
const maxTags = 3

// TagList tolerates the two shapes models emit for Tags: a JSON array of
// strings or a single comma-joined string.
type TagList []string

func (t TagList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func (t *TagList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*t = cleanTags(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = cleanTags(strings.Split(s, ","))
		return nil
	}
	// Unknown shape for Tags alone is tolerated as "no tags".
	*t = nil
	return nil
}

func cleanTags(in []string) TagList {
	out := make(TagList, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, tag)
		if len(out) == maxTags {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StructuredExtraction is the ephemeral five-field record recovered from
// model output. JSON keys match the prompt's field names exactly.
type StructuredExtraction struct {
	Title     string  `json:"Title"`
	Notes     string  `json:"Notes"`
	Tags      TagList `json:"Tags"`
	EventDate string  `json:"Event Date"`
	EventTime string  `json:"Event Time"`
}

// DecodeExtraction recovers a StructuredExtraction from raw model text.
// Missing fields default to their zero values; a failure is always a
// *jsonutil.UnparsableError carrying the raw text.
func DecodeExtraction(raw string) (StructuredExtraction, error) {
	var ex StructuredExtraction
	if err := jsonutil.DecodeWithFallback(raw, &ex); err != nil {
		return StructuredExtraction{}, err
	}
	ex.Title = strings.TrimSpace(ex.Title)
	ex.Notes = strings.TrimSpace(ex.Notes)
	ex.EventDate = strings.TrimSpace(ex.EventDate)
	ex.EventTime = strings.TrimSpace(ex.EventTime)
	return ex, nil
}
