package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/notegrove/notegrove/db/models"
	"github.com/notegrove/notegrove/internal/jsonutil"
	"github.com/notegrove/notegrove/llm"
	"github.com/notegrove/notegrove/notes"
)

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" || req.TargetLanguage == "" {
		writeError(w, http.StatusBadRequest, "text and target_language are required")
		return
	}

	out, err := s.svc.Translate(r.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"translated_text": out})
}

type extractRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ex, err := s.svc.ExtractStructured(r.Context(), req.Text, req.Language)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

type generateNoteRequest struct {
	InputText string `json:"input_text"`
	Language  string `json:"language"`
}

func (s *Server) handleGenerateNote(w http.ResponseWriter, r *http.Request) {
	var req generateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.InputText == "" {
		writeError(w, http.StatusBadRequest, "input_text is required")
		return
	}

	note, err := s.svc.GenerateNote(r.Context(), req.InputText, req.Language)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteWithTags(note))
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Store.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type notePayload struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Tags      string `json:"tags"`
	EventDate string `json:"event_date"`
	EventTime string `json:"event_time"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req notePayload
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	note := models.Note{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		EventDate: req.EventDate,
		EventTime: req.EventTime,
	}
	if err := s.svc.Store.Create(r.Context(), &note); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	note, found, err := s.svc.Store.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

type noteUpdateRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Tags      *string `json:"tags"`
	EventDate *string `json:"event_date"`
	EventTime *string `json:"event_time"`
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req noteUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	note, found, err := s.svc.Store.Update(r.Context(), id, notes.NotePatch{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		EventDate: req.EventDate,
		EventTime: req.EventTime,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	found, err := s.svc.Store.Delete(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleReorderNotes(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	if err := s.svc.Store.Reorder(r.Context(), req.IDs); err != nil {
		writeError(w, http.StatusBadRequest, "unknown note id in reorder")
		return
	}
	rows, err := s.svc.Store.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// writeServiceError maps a service failure to the response taxonomy. An
// unparsable model reply also carries the raw response for diagnosis.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ue *jsonutil.UnparsableError
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "no provider configured for this operation")
	case errors.As(err, &ue):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":        "failed to parse structured notes",
			"raw_response": ue.Raw,
		})
	default:
		s.log.Error("request_failed", "path", r.URL.Path, "error", err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func noteWithTags(note models.Note) map[string]any {
	tags := []string{}
	for _, tag := range strings.Split(note.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return map[string]any{
		"id":          note.ID,
		"title":       note.Title,
		"content":     note.Content,
		"tags":        tags,
		"event_date":  note.EventDate,
		"event_time":  note.EventTime,
		"order_index": note.OrderIndex,
		"created_at":  note.CreatedAt,
		"updated_at":  note.UpdatedAt,
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
