package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/newsflow-kr/newsflow/internal/config"
	"github.com/newsflow-kr/newsflow/internal/store"
	"github.com/newsflow-kr/newsflow/internal/types"
)

// Server exposes the record store over REST for manual inspection and
// editing of crawled articles.
type Server struct {
	mux    *http.ServeMux
	srv    *http.Server
	cfg    *config.APIConfig
	store  store.Store
	logger *slog.Logger
}

// NewServer creates the API server over the given store.
func NewServer(cfg *config.APIConfig, st store.Store, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		cfg:    cfg,
		store:  st,
		logger: logger.With("component", "api_server"),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routing handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves in the background; failures are logged, not returned,
// since the listener outlives this call.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.mux}
	s.logger.Info("API server starting", "addr", addr)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /news", s.handleList)
	s.mux.HandleFunc("POST /news", s.handleCreate)
	s.mux.HandleFunc("GET /news/{id}", s.handleGet)
	s.mux.HandleFunc("PUT /news/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /news/{id}", s.handleDelete)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context(), int64(s.cfg.ListLimit))
	if err != nil {
		s.storeError(w, err)
		return
	}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		needle := strings.ToLower(q)
		filtered := records[:0]
		for _, rec := range records {
			if strings.Contains(strings.ToLower(rec.Title), needle) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if records == nil {
		records = []types.NewsRecord{}
	}
	s.jsonResponse(w, http.StatusOK, records)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rec types.NewsRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(rec.Title) == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	created, err := s.store.Create(r.Context(), rec)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	rec, err := s.store.Update(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, types.ErrNotFound) {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "record not found"})
		return
	}
	s.logger.Error("store operation failed", "error", err)
	s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
