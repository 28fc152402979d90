// Package chatloop implements the tool-calling conversation orchestrator.
//
// It drives a multi-turn exchange with a remote reasoning model: each turn
// the model may request tool invocations (tool_use blocks) or execute code
// in its own sandbox (server_tool_use blocks, observed but never dispatched
// here). Requested tools are dispatched against a registry, their results
// are appended to the history, and the loop repeats until the model returns
// a text-only turn or the iteration budget runs out.
//
// The same loop serves both the blocking and the streaming path: it is
// parameterized by an event sink, and the blocking path simply uses a no-op
// sink. Events mirror the loop's lifecycle (thinking, code execution, tool
// call start/end, terminal response or error) without altering its
// semantics.
//
// # Quick Start
//
//	registry := chatloop.NewRegistry()
//	opstools.RegisterAll(registry)
//
//	loop := chatloop.New(client, registry, nil)
//	result, err := loop.Run(ctx, history, "How many P0 incidents are open?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.FinalText)
//
// For live progress, Stream returns an ordered event channel whose terminal
// event is always response or error:
//
//	for event := range loop.Stream(ctx, history, question) {
//	    fmt.Printf("[%s] %s\n", event.Kind, event.Content)
//	}
package chatloop
