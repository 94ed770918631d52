package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chatsight/chatsight/internal/cache"
	"github.com/chatsight/chatsight/internal/store"
)

const statsCacheKey = "stats"

// ReadStore is the slice of the store the API reads from.
type ReadStore interface {
	Stats(ctx context.Context) (store.Stats, error)
	ListConversations(ctx context.Context, mode string, limit int) ([]store.Conversation, error)
}

type Server struct {
	router *chi.Mux
	port   int
	store  ReadStore
	cache  *cache.Cache
}

func NewServer(port int, db ReadStore, statsCache *cache.Cache) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		store:  db,
		cache:  statsCache,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/status", s.status)
	router.Get("/api/v1/stats", s.stats)
	router.Get("/api/v1/conversations", s.conversations)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "chatsight",
		"status":  "running",
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		if v, ok := s.cache.Get(statsCacheKey); ok {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}

	st, err := s.store.Stats(r.Context())
	if err != nil {
		slog.Error("stats query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}

	if s.cache != nil {
		s.cache.Set(statsCacheKey, st)
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) conversations(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode != "" && mode != "ai" && mode != "human" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be ai or human"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-500"})
			return
		}
		limit = n
	}

	convs, err := s.store.ListConversations(r.Context(), mode, limit)
	if err != nil {
		slog.Error("list conversations failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "conversations unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": toConversationViews(convs),
		"count":         len(convs),
	})
}

type conversationView struct {
	ID           string   `json:"id"`
	SourceID     string   `json:"source_id"`
	Mode         string   `json:"mode"`
	Channel      string   `json:"channel"`
	StartedAt    string   `json:"started_at"`
	MessageCount int      `json:"message_count"`
	Sentiment    *string  `json:"sentiment,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	Summary      *string  `json:"summary,omitempty"`
}

func toConversationViews(convs []store.Conversation) []conversationView {
	views := make([]conversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, conversationView{
			ID:           c.ID.String(),
			SourceID:     c.SourceID,
			Mode:         c.Mode,
			Channel:      c.Channel,
			StartedAt:    c.StartedAt.UTC().Format(time.RFC3339),
			MessageCount: c.MessageCount,
			Sentiment:    c.Sentiment,
			Score:        c.Score,
			Summary:      c.Summary,
		})
	}
	return views
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
