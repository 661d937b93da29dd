// Package httpapi exposes the note service over a JSON HTTP surface.
// Every failure maps onto the error taxonomy: 400 for missing request
// fields, 503 for an unconfigured capability, 500 for provider, parse,
// or persistence failures. Error bodies are always {"error": ...}.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/notegrove/notegrove/notes"
)

type Server struct {
	svc *notes.Service
	log *slog.Logger
	mux *http.ServeMux
}

func New(svc *notes.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{svc: svc, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /", s.handleIndex)
	s.mux.HandleFunc("GET /api/test", s.handleTest)

	s.mux.HandleFunc("POST /api/translate", s.handleTranslate)
	s.mux.HandleFunc("POST /api/extract-structured-notes", s.handleExtract)
	s.mux.HandleFunc("POST /api/generate-note", s.handleGenerateNote)

	s.mux.HandleFunc("GET /api/notes", s.handleListNotes)
	s.mux.HandleFunc("POST /api/notes", s.handleCreateNote)
	s.mux.HandleFunc("PUT /api/notes/reorder", s.handleReorderNotes)
	s.mux.HandleFunc("GET /api/notes/{id}", s.handleGetNote)
	s.mux.HandleFunc("PUT /api/notes/{id}", s.handleUpdateNote)
	s.mux.HandleFunc("DELETE /api/notes/{id}", s.handleDeleteNote)
}

// Handler wraps the mux with the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = withCORS(h)
	h = withRequestLog(h, s.log)
	h = withRecover(h, s.log)
	return h
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Notegrove API",
		"status":  "running",
		"endpoints": map[string]string{
			"/api/notes":                    "notes CRUD",
			"/api/translate":                "translate text",
			"/api/extract-structured-notes": "structured extraction",
			"/api/generate-note":            "generate a note from free text",
		},
	})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok", "status": "working"})
}
