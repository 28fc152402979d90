package chatloop

import (
	"context"
	"fmt"

	"github.com/structuredai/missionctl/llm"
)

// NoTextFallback substitutes for a terminal turn that produced no text
// blocks; the final answer is never empty.
const NoTextFallback = "I processed your request but didn't generate a text response."

// UserFacingErrorMessage is the stable message carried by every terminal
// exchange error. The internal cause is preserved for logging but is never
// the sole user-facing content.
const UserFacingErrorMessage = "I encountered an error processing your request."

// ExchangeError is the single terminal error for a failed exchange.
type ExchangeError struct {
	Cause error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s (cause: %v)", UserFacingErrorMessage, e.Cause)
}

func (e *ExchangeError) Unwrap() error { return e.Cause }

// Config holds loop configuration.
type Config struct {
	Model           string `json:"model"`
	MaxTokens       int    `json:"max_tokens"`
	MaxIterations   int    `json:"max_iterations"`    // hard cap on tool rounds per exchange
	HistoryLimit    int    `json:"history_limit"`     // most recent messages kept for context
	ToolOutputLimit int    `json:"tool_output_limit"` // chars of serialized tool output per result
	System          string `json:"system,omitempty"`
}

// DefaultConfig returns the default loop configuration.
func DefaultConfig() Config {
	return Config{
		Model:           "claude-sonnet-4-5-20250929",
		MaxTokens:       4096,
		MaxIterations:   20,
		HistoryLimit:    20,
		ToolOutputLimit: DefaultToolOutputLimit,
		System:          SystemPrompt,
	}
}

// Result is the terminal outcome of one exchange.
type Result struct {
	FinalText     string        `json:"final_text"`
	ToolCallCount int           `json:"tool_call_count"`
	History       []llm.Message `json:"history"`
	// Incomplete is set when the iteration budget ran out while the model
	// still wanted tools; FinalText is then best-effort, not an error.
	Incomplete bool `json:"incomplete,omitempty"`
}

// Loop orchestrates tool-calling exchanges. It holds no per-exchange state;
// one Loop serves any number of concurrent exchanges.
type Loop struct {
	executor llm.TurnExecutor
	registry *Registry
	config   Config
}

// New creates a Loop over the given turn executor and tool registry. A nil
// config selects DefaultConfig.
func New(executor llm.TurnExecutor, registry *Registry, config *Config) *Loop {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
		if cfg.MaxIterations <= 0 {
			cfg.MaxIterations = 20
		}
		if cfg.HistoryLimit <= 0 {
			cfg.HistoryLimit = 20
		}
		if cfg.MaxTokens <= 0 {
			cfg.MaxTokens = 4096
		}
	}
	return &Loop{executor: executor, registry: registry, config: cfg}
}

// Run processes one exchange to completion and returns the terminal result.
// A RemoteServiceError from the executor aborts the exchange; tool-level
// failures never do.
func (l *Loop) Run(ctx context.Context, history []llm.Message, userMessage string) (*Result, error) {
	return l.run(ctx, history, userMessage, noopSink{})
}

// Stream processes one exchange while emitting ordered progress events. The
// terminal event is always response or error, then the channel closes. If
// the consumer cancels ctx, the loop stops issuing remote calls promptly and
// emits nothing further.
func (l *Loop) Stream(ctx context.Context, history []llm.Message, userMessage string) <-chan Event {
	ch := make(chan Event)
	sink := newChannelSink(ctx, ch)
	go func() {
		defer close(ch)
		_, _ = l.run(ctx, history, userMessage, sink)
	}()
	return ch
}

// run is the single loop body behind both Run and Stream.
func (l *Loop) run(ctx context.Context, history []llm.Message, userMessage string, sink eventSink) (*Result, error) {
	thinking := event(EventThinking)
	thinking.Content = "Analyzing your question..."
	if !sink.Emit(thinking) {
		return nil, context.Canceled
	}

	// Cap context to the most recent messages; older ones are dropped, not
	// summarized.
	if len(history) > l.config.HistoryLimit {
		history = history[len(history)-l.config.HistoryLimit:]
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(userMessage))

	tools := append([]llm.ToolDescriptor{llm.CodeExecutionTool()}, l.registry.Descriptors()...)

	var (
		response      *llm.TurnResponse
		container     string
		toolCallCount int
		toolsPending  bool
	)

	for iteration := 0; iteration < l.config.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := l.executor.ExecuteTurn(ctx, llm.TurnRequest{
			Model:     l.config.Model,
			MaxTokens: l.config.MaxTokens,
			System:    l.config.System,
			Tools:     tools,
			Messages:  messages,
			Container: container,
		})
		if err != nil {
			failure := event(EventError)
			failure.Content = UserFacingErrorMessage
			failure.Error = err.Error()
			sink.Emit(failure)
			return nil, &ExchangeError{Cause: err}
		}
		response = resp

		// Container continuity: once the model reports a sandbox, every
		// later turn of this exchange must reuse it verbatim.
		if resp.Container != "" {
			container = resp.Container
		}

		for _, block := range resp.ServerToolUses() {
			if code := block.CodeInput(); code != "" {
				codeEvent := event(EventCodeExecution)
				codeEvent.Code = code
				if !sink.Emit(codeEvent) {
					return nil, context.Canceled
				}
			}
		}

		toolUses := resp.ToolUses()
		if len(toolUses) == 0 {
			toolsPending = false
			break
		}
		toolsPending = true

		// The assistant turn and its tool results are appended as a unit:
		// nothing from a failed iteration ever reaches the history.
		assistantTurn := llm.AssistantMessage(resp.Content)
		results, ok := l.dispatchToolCalls(ctx, toolUses, sink)
		if !ok {
			return nil, context.Canceled
		}
		toolCallCount += len(toolUses)
		messages = append(messages, assistantTurn, llm.ToolResultsMessage(results))
	}

	finalText := ""
	if response != nil {
		finalText = response.Text()
	}
	if finalText == "" {
		finalText = NoTextFallback
	}

	terminal := event(EventResponse)
	terminal.Content = finalText
	terminal.ToolCallCount = toolCallCount
	if !sink.Emit(terminal) {
		return nil, context.Canceled
	}

	return &Result{
		FinalText:     finalText,
		ToolCallCount: toolCallCount,
		History:       messages,
		Incomplete:    toolsPending,
	}, nil
}
