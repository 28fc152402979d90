// Package httpapi exposes the Mission Control REST and streaming API:
// conversation CRUD, tool definitions, and the blocking and SSE chat
// endpoints.
package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/structuredai/missionctl/chatloop"
	"github.com/structuredai/missionctl/store"
)

type handlers struct {
	db       *store.DB
	loop     *chatloop.Loop
	registry *chatloop.Registry
	logger   *log.Logger
}

// NewRouter builds the HTTP handler for the API. The logger may be nil, in
// which case the standard logger is used.
func NewRouter(db *store.DB, loop *chatloop.Loop, registry *chatloop.Registry, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	h := &handlers{db: db, loop: loop, registry: registry, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /conversations", h.handleCreateConversation)
	mux.HandleFunc("GET /conversations", h.handleListConversations)
	mux.HandleFunc("GET /conversations/{id}", h.handleGetConversation)
	mux.HandleFunc("DELETE /conversations/{id}", h.handleDeleteConversation)
	mux.HandleFunc("POST /conversations/{id}/messages", h.handleCreateMessage)
	mux.HandleFunc("GET /conversations/{id}/messages", h.handleListMessages)
	mux.HandleFunc("GET /tools/definitions", h.handleToolDefinitions)
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("POST /chat/stream", h.handleChatStream)
	mux.HandleFunc("GET /health", h.handleHealth)
	return requestLogging(logger, mux)
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) handleToolDefinitions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": h.registry.Descriptors(),
	})
}

// requestLogging logs one line per request with method, path, and duration.
func requestLogging(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
