// Package llm provides a provider-agnostic client for tool-calling
// conversations with a remote reasoning model.
//
// # Architecture
//
// The package follows a layered design:
//
//   - TurnExecutor interface and message/content-block types shared by all
//     backends
//   - Error classification helpers and a caller-side retry policy
//   - Client with provider routing and middleware
//   - GollmAdapter wrapping gollm (github.com/teilomillet/gollm) as a real
//     provider backend
//
// # Quick Start
//
//	adapter, _ := llm.NewGollmAdapter("anthropic", os.Getenv("ANTHROPIC_API_KEY"))
//	client := llm.NewClient(llm.WithProvider("anthropic", adapter))
//
//	resp, _ := client.ExecuteTurn(ctx, llm.TurnRequest{
//	    Model:    "claude-sonnet-4-5",
//	    Messages: []llm.Message{llm.UserMessage("Hello")},
//	})
//	fmt.Println(resp.Text())
//
// # Content Blocks
//
// Responses carry ordered content blocks. Text blocks hold the answer,
// tool_use blocks request invocation of a named tool, server_tool_use blocks
// record code the model executed in its own sandbox, and tool_result blocks
// carry results back on the next turn. A response may also carry an opaque
// container identifier; callers must attach it to every subsequent turn of
// the same exchange so the model's execution sandbox survives across turns.
//
// # Retry
//
// ExecuteTurn never retries internally. Callers that want retry wrap the
// client with RetryMiddleware, which honors Retry-After on rate limits and
// backs off exponentially for retryable errors only.
package llm
