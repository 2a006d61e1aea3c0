package commandstructure

import (
	"reflect"
	"testing"
)

func TestCommandRegistry_Register(t *testing.T) {
	registry := NewCommandRegistry()
	factory := func(map[string]any) (Command, error) { return passThrough("A"), nil }

	if err := registry.Register("A", factory); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := registry.Register("A", factory); err == nil {
		t.Error("Expected error for duplicate registration")
	}
	if err := registry.Register("", factory); err == nil {
		t.Error("Expected error for empty name")
	}
	if err := registry.Register("Nil", nil); err == nil {
		t.Error("Expected error for nil factory")
	}
}

func TestCommandRegistry_CreatePassesEmptyParams(t *testing.T) {
	registry := NewCommandRegistry()
	var received map[string]any
	_ = registry.Register("A", func(params map[string]any) (Command, error) {
		received = params
		return passThrough("A"), nil
	})

	command, err := registry.Create("A", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if command.Name() != "A" {
		t.Errorf("Expected name 'A', got %q", command.Name())
	}
	if received == nil {
		t.Error("Expected factory to receive a non-nil params map")
	}

	if _, err := registry.Create("B", nil); err == nil {
		t.Error("Expected error for unknown command")
	}
}

func TestCommandRegistry_Names(t *testing.T) {
	registry := NewCommandRegistry()
	if names := registry.GetRegisteredNames(); len(names) != 0 {
		t.Fatalf("Expected empty registry, got %v", names)
	}

	for _, name := range []string{"Scale", "Adjust", "Crop"} {
		name := name
		_ = registry.Register(name, func(map[string]any) (Command, error) { return passThrough(name), nil })
	}

	if !registry.IsRegistered("Crop") {
		t.Error("Expected Crop to be registered")
	}
	if registry.IsRegistered("Dither") {
		t.Error("Expected Dither to not be registered")
	}
	want := []string{"Adjust", "Crop", "Scale"}
	if got := registry.GetRegisteredNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
