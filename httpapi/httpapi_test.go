package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/structuredai/missionctl/chatloop"
	"github.com/structuredai/missionctl/llm"
	"github.com/structuredai/missionctl/opstools"
	"github.com/structuredai/missionctl/store"
)

// scriptedExecutor plays back a fixed sequence of model turns.
type scriptedExecutor struct {
	steps []*llm.TurnResponse
	errs  []error
}

func (s *scriptedExecutor) ExecuteTurn(_ context.Context, _ llm.TurnRequest) (*llm.TurnResponse, error) {
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.steps) == 0 {
		return nil, fmt.Errorf("script exhausted")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step, nil
}

func newTestServer(t *testing.T, executor llm.TurnExecutor) (*httptest.Server, *store.DB) {
	t.Helper()
	db, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	registry := chatloop.NewRegistry()
	opstools.RegisterAll(registry)
	loop := chatloop.New(executor, registry, nil)

	logger := log.New(io.Discard, "", 0)
	server := httptest.NewServer(NewRouter(db, loop, registry, logger))
	t.Cleanup(server.Close)
	return server, db
}

func textResponse(text string) *llm.TurnResponse {
	return &llm.TurnResponse{
		Content:    []llm.ContentBlock{llm.TextBlock(text)},
		StopReason: "end_turn",
	}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func createConversation(t *testing.T, serverURL string) string {
	t.Helper()
	resp := postJSON(t, serverURL+"/conversations", map[string]string{"title": "test"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create conversation: status %d", resp.StatusCode)
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)
	return created.ID
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, &scriptedExecutor{})

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "healthy" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestConversationLifecycle(t *testing.T) {
	server, _ := newTestServer(t, &scriptedExecutor{})
	id := createConversation(t, server.URL)

	if !strings.HasPrefix(id, "conv_") {
		t.Errorf("conversation id should carry conv_ prefix, got %q", id)
	}

	// Add a message.
	resp := postJSON(t, server.URL+"/conversations/"+id+"/messages", map[string]string{
		"role": "user", "content": "hello",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create message: status %d", resp.StatusCode)
	}
	var message struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &message)
	if !strings.HasPrefix(message.ID, "msg_") {
		t.Errorf("message id should carry msg_ prefix, got %q", message.ID)
	}

	// Fetch with messages.
	getResp, err := http.Get(server.URL + "/conversations/" + id)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var conversation struct {
		ID       string `json:"id"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	decodeBody(t, getResp, &conversation)
	if len(conversation.Messages) != 1 || conversation.Messages[0].Content != "hello" {
		t.Errorf("unexpected messages: %+v", conversation.Messages)
	}

	// List.
	listResp, err := http.Get(server.URL + "/conversations")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var listing struct {
		Count         int `json:"count"`
		Conversations []struct {
			MessageCount int `json:"message_count"`
		} `json:"conversations"`
	}
	decodeBody(t, listResp, &listing)
	if listing.Count != 1 || listing.Conversations[0].MessageCount != 1 {
		t.Errorf("unexpected listing: %+v", listing)
	}

	// Delete, then verify 404.
	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/conversations/"+id, nil)
	deleteResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	deleteResp.Body.Close()
	if deleteResp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: status %d", deleteResp.StatusCode)
	}

	missingResp, err := http.Get(server.URL + "/conversations/" + id)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	missingResp.Body.Close()
	if missingResp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", missingResp.StatusCode)
	}
}

func TestMessageValidation(t *testing.T) {
	server, _ := newTestServer(t, &scriptedExecutor{})
	id := createConversation(t, server.URL)

	resp := postJSON(t, server.URL+"/conversations/"+id+"/messages", map[string]string{
		"role": "system", "content": "nope",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid role should be rejected, got %d", resp.StatusCode)
	}

	resp = postJSON(t, server.URL+"/conversations/conv_missing/messages", map[string]string{
		"role": "user", "content": "hello",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing conversation should 404, got %d", resp.StatusCode)
	}
}

func TestToolDefinitions(t *testing.T) {
	server, _ := newTestServer(t, &scriptedExecutor{})

	resp, err := http.Get(server.URL + "/tools/definitions")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		Tools []struct {
			Name           string   `json:"name"`
			AllowedCallers []string `json:"allowed_callers"`
		} `json:"tools"`
	}
	decodeBody(t, resp, &body)
	if len(body.Tools) != 6 {
		t.Fatalf("expected 6 tools, got %d", len(body.Tools))
	}
	for _, tool := range body.Tools {
		if len(tool.AllowedCallers) == 0 {
			t.Errorf("%s: missing allowed_callers", tool.Name)
		}
	}
}

func TestChatBlocking(t *testing.T) {
	executor := &scriptedExecutor{steps: []*llm.TurnResponse{
		{
			Content: []llm.ContentBlock{
				llm.ToolUseBlock("toolu_01", "get_team_members", json.RawMessage(`{"department":"engineering"}`)),
			},
			StopReason: "tool_use",
		},
		textResponse("The engineering team has 5 members."),
	}}
	server, db := newTestServer(t, executor)
	id := createConversation(t, server.URL)

	resp := postJSON(t, server.URL+"/chat", map[string]string{
		"message": "how big is the engineering team?", "conversation_id": id,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat: status %d", resp.StatusCode)
	}
	var body struct {
		Response       string `json:"response"`
		ConversationID string `json:"conversation_id"`
		MessageID      string `json:"message_id"`
	}
	decodeBody(t, resp, &body)
	if body.Response != "The engineering team has 5 members." {
		t.Errorf("unexpected response: %q", body.Response)
	}
	if body.ConversationID != id {
		t.Errorf("conversation id mismatch: %q", body.ConversationID)
	}

	// The assistant message is persisted with tool-call metadata.
	messages, err := db.Messages(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != "assistant" {
		t.Fatalf("expected 1 assistant message, got %+v", messages)
	}
	var metadata map[string]int
	if err := json.Unmarshal(messages[0].Metadata, &metadata); err != nil || metadata["tool_calls"] != 1 {
		t.Errorf("unexpected metadata: %s", messages[0].Metadata)
	}
}

func TestChatValidation(t *testing.T) {
	server, _ := newTestServer(t, &scriptedExecutor{})

	resp := postJSON(t, server.URL+"/chat", map[string]string{"message": "hi"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing conversation_id should 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, server.URL+"/chat", map[string]string{
		"message": "hi", "conversation_id": "conv_missing",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown conversation should 404, got %d", resp.StatusCode)
	}
}

func TestChatGracefulDegradation(t *testing.T) {
	executor := &scriptedExecutor{errs: []error{fmt.Errorf("upstream down")}}
	server, _ := newTestServer(t, executor)
	id := createConversation(t, server.URL)

	resp := postJSON(t, server.URL+"/chat", map[string]string{
		"message": "hi", "conversation_id": id,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("degraded chat should still return 200, got %d", resp.StatusCode)
	}
	var body struct {
		Response string `json:"response"`
	}
	decodeBody(t, resp, &body)
	if body.Response != chatloop.UserFacingErrorMessage {
		t.Errorf("unexpected degraded response: %q", body.Response)
	}
}

func TestChatStream(t *testing.T) {
	executor := &scriptedExecutor{steps: []*llm.TurnResponse{
		{
			Content: []llm.ContentBlock{
				llm.ToolUseBlock("toolu_01", "get_incidents", json.RawMessage(`{"severity":"P0"}`)),
			},
			StopReason: "tool_use",
		},
		textResponse("No open P0 incidents."),
	}}
	server, db := newTestServer(t, executor)
	id := createConversation(t, server.URL)

	resp := postJSON(t, server.URL+"/chat/stream", map[string]string{
		"message": "any P0s?", "conversation_id": id,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("unexpected content type: %q", ct)
	}

	var events []chatloop.Event
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event chatloop.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("invalid event frame %q: %v", line, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("reading stream: %v", err)
	}

	if len(events) == 0 {
		t.Fatal("expected events")
	}
	if events[0].Kind != chatloop.EventThinking {
		t.Errorf("first event should be thinking, got %q", events[0].Kind)
	}
	terminal := events[len(events)-1]
	if terminal.Kind != chatloop.EventResponse {
		t.Fatalf("terminal event should be response, got %q", terminal.Kind)
	}
	if terminal.Content != "No open P0 incidents." {
		t.Errorf("unexpected terminal content: %q", terminal.Content)
	}
	if terminal.ToolCallCount != 1 {
		t.Errorf("expected tool_calls_count 1, got %d", terminal.ToolCallCount)
	}

	// The streamed response is persisted once the stream finishes.
	messages, err := db.Messages(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "No open P0 incidents." {
		t.Errorf("streamed response not persisted: %+v", messages)
	}
}

func TestChatStreamTerminalError(t *testing.T) {
	executor := &scriptedExecutor{errs: []error{fmt.Errorf("upstream down")}}
	server, _ := newTestServer(t, executor)
	id := createConversation(t, server.URL)

	resp := postJSON(t, server.URL+"/chat/stream", map[string]string{
		"message": "hi", "conversation_id": id,
	})
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	frames := strings.Split(strings.TrimSpace(string(raw)), "\n\n")
	last := frames[len(frames)-1]
	var event chatloop.Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(last, "data: ")), &event); err != nil {
		t.Fatalf("invalid terminal frame %q: %v", last, err)
	}
	if event.Kind != chatloop.EventError {
		t.Errorf("terminal event should be error, got %q", event.Kind)
	}
	if event.Content != chatloop.UserFacingErrorMessage {
		t.Errorf("unexpected error content: %q", event.Content)
	}
}
