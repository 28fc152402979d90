package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/structuredai/missionctl/store"
)

type conversationResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []messageResponse `json:"messages"`
}

type conversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

type messageResponse struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toMessageResponse(m store.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
	}
}

func (h *handlers) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	// Body is optional; an empty body means an untitled conversation.
	_ = decodeJSONBody(r, &req)

	c, err := h.db.CreateConversation(r.Context(), req.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, conversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  []messageResponse{},
	})
}

func (h *handlers) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.db.ListConversations(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]conversationSummary, 0, len(conversations))
	for _, c := range conversations {
		messages, err := h.db.Messages(r.Context(), c.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		summaries = append(summaries, conversationSummary{
			ID:           c.ID,
			Title:        c.Title,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: len(messages),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": summaries,
		"count":         len(summaries),
	})
}

func (h *handlers) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := h.db.GetConversation(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Conversation not found")
		return
	}
	messages, err := h.db.Messages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, conversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  out,
	})
}

func (h *handlers) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteConversation(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err, "Conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role     string          `json:"role"`
		Content  string          `json:"content"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role != "user" && req.Role != "assistant" {
		writeError(w, http.StatusBadRequest, "role must be 'user' or 'assistant'")
		return
	}

	m, err := h.db.CreateMessage(r.Context(), r.PathValue("id"), req.Role, req.Content, req.Metadata)
	if err != nil {
		writeStoreError(w, err, "Conversation not found")
		return
	}
	writeJSON(w, http.StatusCreated, toMessageResponse(*m))
}

func (h *handlers) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.db.GetConversation(r.Context(), id); err != nil {
		writeStoreError(w, err, "Conversation not found")
		return
	}
	messages, err := h.db.Messages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": out,
		"count":    len(out),
	})
}
