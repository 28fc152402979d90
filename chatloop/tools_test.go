package chatloop

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/structuredai/missionctl/llm"
)

func TestRegistryDescriptorsSorted(t *testing.T) {
	registry := NewRegistry()
	noop := func(_ context.Context, _ json.RawMessage) (interface{}, error) { return nil, nil }
	registry.Register(llm.ToolDescriptor{Name: "zeta"}, noop)
	registry.Register(llm.ToolDescriptor{Name: "alpha"}, noop)
	registry.Register(llm.ToolDescriptor{Name: "mid"}, noop)

	descriptors := registry.Descriptors()
	want := []string{"alpha", "mid", "zeta"}
	if len(descriptors) != len(want) {
		t.Fatalf("expected %d descriptors, got %d", len(want), len(descriptors))
	}
	for i, name := range want {
		if descriptors[i].Name != name {
			t.Errorf("descriptor %d = %q, want %q", i, descriptors[i].Name, name)
		}
	}
	if registry.Count() != 3 {
		t.Errorf("expected count 3, got %d", registry.Count())
	}
}

func TestRegistryReplace(t *testing.T) {
	registry := NewRegistry()
	registry.Register(llm.ToolDescriptor{Name: "tool"}, func(_ context.Context, _ json.RawMessage) (interface{}, error) {
		return "first", nil
	})
	registry.Register(llm.ToolDescriptor{Name: "tool"}, func(_ context.Context, _ json.RawMessage) (interface{}, error) {
		return "second", nil
	})

	if registry.Count() != 1 {
		t.Fatalf("re-registering must replace, got count %d", registry.Count())
	}
	value, err := registry.Get("tool").Handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "second" {
		t.Errorf("expected replacement handler, got %v", value)
	}
}

func TestRegistryGetMissing(t *testing.T) {
	if NewRegistry().Get("missing") != nil {
		t.Error("missing tool should return nil")
	}
}

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments(json.RawMessage(`{"department":"engineering","limit":5}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if department, ok := StringArg(args, "department"); !ok || department != "engineering" {
		t.Errorf("expected department engineering, got %q (ok=%v)", department, ok)
	}
	if _, ok := StringArg(args, "limit"); ok {
		t.Error("non-string argument must not read as a string")
	}
	if _, ok := StringArg(args, "absent"); ok {
		t.Error("absent argument must report not ok")
	}
}

func TestParseArgumentsEmpty(t *testing.T) {
	args, err := ParseArguments(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 0 {
		t.Errorf("expected empty map, got %v", args)
	}
}

func TestParseArgumentsInvalid(t *testing.T) {
	if _, err := ParseArguments(json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
