package chatloop

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/structuredai/missionctl/llm"
)

// dispatchToolCalls executes all tool_use blocks from one turn. Independent
// calls fan out concurrently and fan back in: the returned results are in
// the same order the blocks were presented, and the function does not return
// until every call has completed or failed individually. A false ok means
// the event consumer cancelled during dispatch; results are then discarded
// by the caller.
func (l *Loop) dispatchToolCalls(ctx context.Context, blocks []llm.ContentBlock, sink eventSink) (results []llm.ContentBlock, ok bool) {
	results = make([]llm.ContentBlock, len(blocks))

	if len(blocks) == 1 {
		results[0] = l.dispatchSingle(ctx, blocks[0], sink)
	} else {
		var wg sync.WaitGroup
		for i, block := range blocks {
			wg.Add(1)
			go func(idx int, b llm.ContentBlock) {
				defer wg.Done()
				results[idx] = l.dispatchSingle(ctx, b, sink)
			}(i, block)
		}
		wg.Wait()
	}

	return results, !sink.Canceled()
}

// dispatchSingle handles one tool call: lookup, execute, serialize,
// truncate. Every failure mode produces a model-visible tool_result with
// is_error set; nothing here aborts the exchange.
func (l *Loop) dispatchSingle(ctx context.Context, block llm.ContentBlock, sink eventSink) llm.ContentBlock {
	started := event(EventToolCall)
	started.ToolName = block.Name
	started.Status = StatusRunning
	started.Parameters = block.Input
	sink.Emit(started)

	tool := l.registry.Get(block.Name)
	if tool == nil {
		content := fmt.Sprintf("Error: Unknown tool '%s'", block.Name)
		finished := event(EventToolResult)
		finished.ToolName = block.Name
		finished.Status = StatusError
		finished.Error = content
		sink.Emit(finished)
		return llm.ToolResultBlock(block.ID, content, true)
	}

	value, err := tool.Handler(ctx, block.Input)
	if err != nil {
		content := fmt.Sprintf("Error executing %s: %v", block.Name, err)
		finished := event(EventToolResult)
		finished.ToolName = block.Name
		finished.Status = StatusError
		finished.Error = err.Error()
		sink.Emit(finished)
		return llm.ToolResultBlock(block.ID, content, true)
	}

	serialized, err := json.Marshal(value)
	if err != nil {
		content := fmt.Sprintf("Error executing %s: %v", block.Name, err)
		finished := event(EventToolResult)
		finished.ToolName = block.Name
		finished.Status = StatusError
		finished.Error = err.Error()
		sink.Emit(finished)
		return llm.ToolResultBlock(block.ID, content, true)
	}

	content := TruncateToolOutput(string(serialized), l.config.ToolOutputLimit)

	finished := event(EventToolResult)
	finished.ToolName = block.Name
	finished.Status = StatusCompleted
	sink.Emit(finished)
	return llm.ToolResultBlock(block.ID, content, false)
}
