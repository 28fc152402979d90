package chatloop

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"
)

// EventKind identifies the type of exchange event.
type EventKind string

const (
	EventThinking      EventKind = "thinking"
	EventCodeExecution EventKind = "code_execution"
	EventToolCall      EventKind = "tool_call"
	EventToolResult    EventKind = "tool_result"
	EventResponse      EventKind = "response"
	EventError         EventKind = "error"
)

// Event is a typed progress event emitted while an exchange runs. The field
// set in use depends on Kind: code_execution carries Code, tool_call and
// tool_result carry ToolName/Status (and Parameters or Error), response
// carries Content and ToolCallCount, error carries Content and Error.
type Event struct {
	Kind          EventKind       `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	Content       string          `json:"content,omitempty"`
	Code          string          `json:"code,omitempty"`
	ToolName      string          `json:"tool_name,omitempty"`
	Status        string          `json:"status,omitempty"`
	Parameters    json.RawMessage `json:"parameters,omitempty"`
	Error         string          `json:"error,omitempty"`
	ToolCallCount int             `json:"tool_calls_count,omitempty"`
}

// Tool call status values reported in tool_call and tool_result events.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// eventSink receives events from the loop. Emit reports false once the
// consumer is gone; the loop then stops promptly and emits nothing further.
// Implementations must be safe for concurrent use: tool dispatch fans out.
type eventSink interface {
	Emit(Event) bool
	Canceled() bool
}

// noopSink discards all events. It backs the blocking path.
type noopSink struct{}

func (noopSink) Emit(Event) bool { return true }
func (noopSink) Canceled() bool  { return false }

// channelSink delivers events to a consumer channel. A cancelled context is
// how the consumer signals it has stopped reading; once observed, every
// later Emit is a silent no-op.
type channelSink struct {
	ch       chan<- Event
	ctx      context.Context
	canceled atomic.Bool
}

func newChannelSink(ctx context.Context, ch chan<- Event) *channelSink {
	return &channelSink{ch: ch, ctx: ctx}
}

func (s *channelSink) Emit(event Event) bool {
	if s.canceled.Load() {
		return false
	}
	select {
	case s.ch <- event:
		return true
	case <-s.ctx.Done():
		s.canceled.Store(true)
		return false
	}
}

func (s *channelSink) Canceled() bool {
	return s.canceled.Load()
}

func event(kind EventKind) Event {
	return Event{Kind: kind, Timestamp: time.Now().UTC()}
}
