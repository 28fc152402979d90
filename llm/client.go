package llm

import (
	"context"
	"fmt"
	"sync"
)

// Middleware wraps a turn execution. It receives the request and a next
// function that calls the downstream handler, and returns the response.
type Middleware func(ctx context.Context, req TurnRequest, next func(context.Context, TurnRequest) (*TurnResponse, error)) (*TurnResponse, error)

// Client routes turn requests to registered provider backends and applies
// middleware. It implements TurnExecutor itself so the orchestration loop
// can hold either a bare adapter or a fully wired client.
type Client struct {
	providers       map[string]TurnExecutor
	defaultProvider string
	middleware      []Middleware
	mu              sync.RWMutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithProvider registers a provider backend.
func WithProvider(name string, executor TurnExecutor) ClientOption {
	return func(c *Client) {
		c.providers[name] = executor
	}
}

// WithDefaultProvider sets the default provider name.
func WithDefaultProvider(name string) ClientOption {
	return func(c *Client) {
		c.defaultProvider = name
	}
}

// WithMiddleware adds middleware to the client.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// NewClient creates a new Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		providers: make(map[string]TurnExecutor),
	}
	for _, opt := range opts {
		opt(c)
	}
	// If no default and exactly one provider, use it.
	if c.defaultProvider == "" && len(c.providers) == 1 {
		for name := range c.providers {
			c.defaultProvider = name
		}
	}
	return c
}

// RegisterProvider adds a provider backend to the client.
func (c *Client) RegisterProvider(name string, executor TurnExecutor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = executor
	if c.defaultProvider == "" {
		c.defaultProvider = name
	}
}

// resolveProvider determines which backend handles a request. The model
// catalog breaks ties when no default is configured.
func (c *Client) resolveProvider(req TurnRequest) (TurnExecutor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := c.defaultProvider
	if name == "" {
		if info := GetModelInfo(req.Model); info != nil {
			name = info.Provider
		}
	}
	if name == "" {
		return nil, &ConfigurationError{RemoteServiceError: RemoteServiceError{
			Message: "no provider configured and model not in catalog",
		}}
	}

	executor, ok := c.providers[name]
	if !ok {
		return nil, &ConfigurationError{RemoteServiceError: RemoteServiceError{
			Message: fmt.Sprintf("provider %q is not registered", name),
		}}
	}
	return executor, nil
}

// ExecuteTurn sends a request through middleware to the resolved backend.
func (c *Client) ExecuteTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	executor, err := c.resolveProvider(req)
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, r TurnRequest) (*TurnResponse, error) {
		return executor.ExecuteTurn(ctx, r)
	}

	// Apply middleware in reverse order so first registered runs first.
	c.mu.RLock()
	middleware := c.middleware
	c.mu.RUnlock()
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := handler
		handler = func(ctx context.Context, r TurnRequest) (*TurnResponse, error) {
			return mw(ctx, r, next)
		}
	}

	return handler(ctx, req)
}

// Close releases resources held by all registered backends.
func (c *Client) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var firstErr error
	for _, executor := range c.providers {
		if closer, ok := executor.(Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
