package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// handleChat accepts the question as ?query= or as a JSON body {"query": "..."}.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" && r.Body != nil {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		query = req.Query
	}
	if strings.TrimSpace(query) == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("chat request", zap.String("query", query))
	ans, err := s.rag.Answer(r.Context(), query)
	if err != nil {
		s.logger.Error("answer failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	sources := make([]string, len(ans.Sources))
	for i, src := range ans.Sources {
		sources[i] = src.Chunk.ChunkID
	}
	s.respondJSON(w, http.StatusOK, chatResponse{Response: ans.Response, Sources: sources})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "chunks": s.rag.Chunks()})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
