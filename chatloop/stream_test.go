package chatloop

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/structuredai/missionctl/llm"
)

func collectEvents(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func TestStreamEventSequence(t *testing.T) {
	executor := &scriptedExecutor{steps: []scriptStep{
		toolTurn("", llm.ToolUseBlock("toolu_01", "get_team_members", json.RawMessage(`{}`))),
		textTurn("Found 1 engineer."),
	}}
	loop := New(executor, testRegistry(t), nil)

	events := collectEvents(t, loop.Stream(context.Background(), nil, "who is on the team?"))
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	if events[0].Kind != EventThinking {
		t.Errorf("first event should be thinking, got %q", events[0].Kind)
	}

	terminal := events[len(events)-1]
	if terminal.Kind != EventResponse {
		t.Fatalf("terminal event should be response, got %q", terminal.Kind)
	}
	if terminal.Content != "Found 1 engineer." {
		t.Errorf("unexpected terminal content: %q", terminal.Content)
	}
	if terminal.ToolCallCount != 1 {
		t.Errorf("expected tool_calls_count 1, got %d", terminal.ToolCallCount)
	}

	var sawCall, sawResult bool
	for _, event := range events {
		switch event.Kind {
		case EventToolCall:
			sawCall = true
			if event.Status != StatusRunning {
				t.Errorf("tool_call status should be running, got %q", event.Status)
			}
			if event.ToolName != "get_team_members" {
				t.Errorf("unexpected tool name: %q", event.ToolName)
			}
		case EventToolResult:
			sawResult = true
			if event.Status != StatusCompleted {
				t.Errorf("tool_result status should be completed, got %q", event.Status)
			}
		}
	}
	if !sawCall || !sawResult {
		t.Error("expected tool_call and tool_result events")
	}
}

func TestStreamCodeExecutionEvent(t *testing.T) {
	executor := &scriptedExecutor{steps: []scriptStep{
		{resp: &llm.TurnResponse{
			Content: []llm.ContentBlock{
				llm.ServerToolUseBlock("srvtoolu_01", "code_execution", json.RawMessage(`{"code":"print(len(members))"}`)),
				llm.ToolUseBlock("toolu_01", "get_team_members", nil),
			},
			Container:  "cont_xyz",
			StopReason: "tool_use",
		}},
		textTurn("18 members."),
	}}
	loop := New(executor, testRegistry(t), nil)

	events := collectEvents(t, loop.Stream(context.Background(), nil, "how many members?"))
	var sawCode bool
	for _, event := range events {
		if event.Kind == EventCodeExecution {
			sawCode = true
			if event.Code != "print(len(members))" {
				t.Errorf("unexpected code payload: %q", event.Code)
			}
		}
	}
	if !sawCode {
		t.Error("expected a code_execution event")
	}
}

func TestStreamTerminalOnError(t *testing.T) {
	executor := &scriptedExecutor{steps: []scriptStep{{err: errors.New("upstream unavailable")}}}
	loop := New(executor, testRegistry(t), nil)

	events := collectEvents(t, loop.Stream(context.Background(), nil, "hi"))
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	terminal := events[len(events)-1]
	if terminal.Kind != EventError {
		t.Fatalf("terminal event should be error, got %q", terminal.Kind)
	}
	if terminal.Content != UserFacingErrorMessage {
		t.Errorf("unexpected error content: %q", terminal.Content)
	}
	if terminal.Error == "" {
		t.Error("error event should carry the cause")
	}
}

func TestStreamMatchesRun(t *testing.T) {
	script := func() []scriptStep {
		return []scriptStep{
			toolTurn("", llm.ToolUseBlock("toolu_01", "get_team_members", nil)),
			textTurn("done"),
		}
	}

	runExecutor := &scriptedExecutor{steps: script()}
	runLoop := New(runExecutor, testRegistry(t), nil)
	result, err := runLoop.Run(context.Background(), nil, "check")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	streamExecutor := &scriptedExecutor{steps: script()}
	streamLoop := New(streamExecutor, testRegistry(t), nil)
	events := collectEvents(t, streamLoop.Stream(context.Background(), nil, "check"))
	terminal := events[len(events)-1]

	if terminal.Content != result.FinalText {
		t.Errorf("streaming and blocking final text diverge: %q vs %q", terminal.Content, result.FinalText)
	}
	if terminal.ToolCallCount != result.ToolCallCount {
		t.Errorf("streaming and blocking tool counts diverge: %d vs %d", terminal.ToolCallCount, result.ToolCallCount)
	}
}

func TestStreamConsumerCancellation(t *testing.T) {
	executor := &scriptedExecutor{steps: []scriptStep{
		toolTurn("", llm.ToolUseBlock("toolu_01", "get_team_members", nil)),
		textTurn("unread"),
	}}
	loop := New(executor, testRegistry(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := loop.Stream(ctx, nil, "check")

	// Read the first event, then walk away.
	<-ch
	cancel()

	// The channel must close promptly without requiring further reads.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("stream did not close after consumer cancellation")
		}
	}
}
