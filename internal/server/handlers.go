package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"pdf-rag/internal/models"
	"pdf-rag/internal/rag"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		s.respondError(w, http.StatusBadRequest, models.NoQueryProvided)
		return
	}

	resp, err := s.rag.Query(r.Context(), req.Query)
	if errors.Is(err, rag.ErrEmptyQuery) {
		s.respondError(w, http.StatusBadRequest, models.NoQueryProvided)
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("query failed")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Methods", "POST")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Max-Age", "3600")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message})
}
