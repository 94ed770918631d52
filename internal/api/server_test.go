package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chatsight/chatsight/internal/cache"
	"github.com/chatsight/chatsight/internal/store"
)

type fakeReadStore struct {
	stats      store.Stats
	statsErr   error
	statsCalls int
	convs      []store.Conversation
	lastMode   string
	lastLimit  int
}

func (f *fakeReadStore) Stats(ctx context.Context) (store.Stats, error) {
	f.statsCalls++
	return f.stats, f.statsErr
}

func (f *fakeReadStore) ListConversations(ctx context.Context, mode string, limit int) ([]store.Conversation, error) {
	f.lastMode = mode
	f.lastLimit = limit
	return f.convs, nil
}

func testServer(db ReadStore) *Server {
	return NewServer(8460, db, cache.New(time.Minute))
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	w := get(t, testServer(&fakeReadStore{}), "/health")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	w := get(t, testServer(&fakeReadStore{}), "/api/v1/status")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["service"] != "chatsight" {
		t.Errorf("expected service chatsight, got %q", body["service"])
	}
	if body["status"] != "running" {
		t.Errorf("expected status running, got %q", body["status"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	db := &fakeReadStore{stats: store.Stats{Conversations: 7, AIConversations: 5, HumanConversations: 2, Messages: 40}}
	srv := testServer(db)

	w := get(t, srv, "/api/v1/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body store.Stats
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Conversations != 7 || body.Messages != 40 {
		t.Errorf("unexpected stats body: %+v", body)
	}

	// Second request is served from the cache.
	get(t, srv, "/api/v1/stats")
	if db.statsCalls != 1 {
		t.Errorf("expected 1 store call, got %d", db.statsCalls)
	}
}

func TestStatsEndpointError(t *testing.T) {
	db := &fakeReadStore{statsErr: errors.New("connection refused")}
	w := get(t, testServer(db), "/api/v1/stats")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestConversationsEndpoint(t *testing.T) {
	db := &fakeReadStore{convs: []store.Conversation{
		{ID: uuid.New(), SourceID: "c1-ai", Mode: "ai", Channel: "webchat", StartedAt: time.Now(), MessageCount: 3},
	}}
	srv := testServer(db)

	w := get(t, srv, "/api/v1/conversations?mode=ai&limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if db.lastMode != "ai" || db.lastLimit != 10 {
		t.Errorf("expected mode=ai limit=10, got mode=%q limit=%d", db.lastMode, db.lastLimit)
	}

	var body struct {
		Conversations []conversationView `json:"conversations"`
		Count         int                `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 1 || len(body.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %+v", body)
	}
	if body.Conversations[0].SourceID != "c1-ai" {
		t.Errorf("expected source_id c1-ai, got %q", body.Conversations[0].SourceID)
	}
}

func TestConversationsEndpointRejectsBadMode(t *testing.T) {
	w := get(t, testServer(&fakeReadStore{}), "/api/v1/conversations?mode=robot")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestConversationsEndpointRejectsBadLimit(t *testing.T) {
	for _, limit := range []string{"0", "501", "abc"} {
		w := get(t, testServer(&fakeReadStore{}), "/api/v1/conversations?limit="+limit)
		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", limit, w.Code)
		}
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	w := get(t, testServer(&fakeReadStore{}), "/nonexistent")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
