package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/structuredai/missionctl/chatloop"
	"github.com/structuredai/missionctl/llm"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// loadHistory returns the recent conversation history as model messages.
func (h *handlers) loadHistory(r *http.Request, conversationID string) ([]llm.Message, error) {
	messages, err := h.db.RecentMessages(r.Context(), conversationID, 0)
	if err != nil {
		return nil, err
	}
	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			history = append(history, llm.AssistantMessage([]llm.ContentBlock{llm.TextBlock(m.Content)}))
		default:
			history = append(history, llm.UserMessage(m.Content))
		}
	}
	return history, nil
}

func (h *handlers) validateChatRequest(w http.ResponseWriter, r *http.Request) (*chatRequest, bool) {
	var req chatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return nil, false
	}
	if _, err := h.db.GetConversation(r.Context(), req.ConversationID); err != nil {
		writeStoreError(w, err, fmt.Sprintf("Conversation %s not found", req.ConversationID))
		return nil, false
	}
	return &req, true
}

func (h *handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.validateChatRequest(w, r)
	if !ok {
		return
	}

	history, err := h.loadHistory(r, req.ConversationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responseText := chatloop.UserFacingErrorMessage
	toolCalls := 0
	result, err := h.loop.Run(r.Context(), history, req.Message)
	if err != nil {
		// The user still gets a response row; the failure is logged, not
		// surfaced as a 5xx.
		h.logger.Printf("chat exchange failed: %v", err)
	} else {
		responseText = result.FinalText
		toolCalls = result.ToolCallCount
	}

	metadata, _ := json.Marshal(map[string]int{"tool_calls": toolCalls})
	message, err := h.db.CreateMessage(r.Context(), req.ConversationID, "assistant", responseText, metadata)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assistant message")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:       responseText,
		ConversationID: req.ConversationID,
		MessageID:      message.ID,
	})
}

func (h *handlers) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.validateChatRequest(w, r)
	if !ok {
		return
	}

	history, err := h.loadHistory(r, req.ConversationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming is unsupported by response writer")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	var finalContent string
	var finalToolCalls int
	for event := range h.loop.Stream(r.Context(), history, req.Message) {
		if event.Kind == chatloop.EventResponse {
			finalContent = event.Content
			finalToolCalls = event.ToolCallCount
		}
		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.Printf("encoding stream event: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}

	// Persist after the stream completes. The user already saw the
	// response, so a save failure is logged but never fails the stream.
	if finalContent != "" {
		metadata, _ := json.Marshal(map[string]int{"tool_calls": finalToolCalls})
		// Detached from the request context so a disconnect after the
		// terminal event does not lose the row.
		saveCtx := context.WithoutCancel(r.Context())
		if _, err := h.db.CreateMessage(saveCtx, req.ConversationID, "assistant", finalContent, metadata); err != nil {
			h.logger.Printf("saving streamed response: %v", err)
		}
	}
}
