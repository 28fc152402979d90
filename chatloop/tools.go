package chatloop

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/structuredai/missionctl/llm"
)

// Handler is the function signature for tool execution. Arguments are the
// raw JSON input from the tool_use block; the returned value must be
// JSON-serializable. A returned error is a tool-level failure surfaced to
// the model, never a protocol-level failure.
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// RegisteredTool pairs a tool descriptor with its handler.
type RegisteredTool struct {
	Descriptor llm.ToolDescriptor
	Handler    Handler
}

// Registry manages tool registration and lookup. It is populated during
// startup and read-only afterwards, so it is safe to share across all
// concurrent exchanges.
type Registry struct {
	tools map[string]*RegisteredTool
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*RegisteredTool),
	}
}

// Register adds or replaces a tool in the registry.
func (r *Registry) Register(descriptor llm.ToolDescriptor, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[descriptor.Name] = &RegisteredTool{Descriptor: descriptor, Handler: handler}
}

// Get returns a registered tool by name, or nil if not found.
func (r *Registry) Get(name string) *RegisteredTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Descriptors returns all tool descriptors sorted by name. Stable ordering
// keeps request payloads and history deterministic.
func (r *Registry) Descriptors() []llm.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptors := make([]llm.ToolDescriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		descriptors = append(descriptors, tool.Descriptor)
	}
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return descriptors
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ParseArguments unmarshals tool call arguments into a map for handlers that
// want keyed access.
func ParseArguments(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

// StringArg extracts an optional string argument from parsed tool arguments.
func StringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
