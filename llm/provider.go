package llm

import "context"

// TurnExecutor is the interface every provider backend must implement. One
// call is one request/response round trip with the remote model; the loop
// that drives multi-turn exchanges lives above this interface so a test
// double can substitute scripted turn sequences.
type TurnExecutor interface {
	// ExecuteTurn sends the accumulated history plus tool definitions and
	// returns the model's content blocks. A transport or API failure is
	// returned as an error from the taxonomy in errors.go and is never
	// retried here.
	ExecuteTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error)
}

// Namer is implemented by backends that report a provider identifier.
type Namer interface {
	Name() string
}

// Closer is implemented by backends that hold resources.
type Closer interface {
	Close() error
}
