package commandstructure

import (
	"errors"
	"strings"
	"testing"
)

func TestCommandInvoker_EmptyListReturnsInput(t *testing.T) {
	invoker := NewCommandInvoker(nil)
	result, err := invoker.Execute([]byte("photo"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result) != "photo" {
		t.Errorf("Expected input to be returned unchanged, got %q", string(result))
	}
}

func TestCommandInvoker_RunsInOrder(t *testing.T) {
	invoker := NewCommandInvoker([]Command{
		appending("Crop", "-crop"),
		appending("Scale", "-scale"),
		appending("Adjust", "-adjust"),
	})

	result, err := invoker.Execute([]byte("start"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result) != "start-crop-scale-adjust" {
		t.Errorf("Expected commands to run in order, got %q", string(result))
	}
	if invoker.Len() != 3 {
		t.Errorf("Expected Len 3, got %d", invoker.Len())
	}
}

func TestCommandInvoker_ErrorNamesFailingCommand(t *testing.T) {
	cause := errors.New("decode failed")
	invoker := NewCommandInvoker([]Command{
		passThrough("First"),
		failing("Second", cause),
		appending("Third", "-never"),
	})

	_, err := invoker.Execute([]byte("data"))
	if err == nil {
		t.Fatal("Expected error when a command fails")
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected error to wrap the cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "Second") || !strings.Contains(err.Error(), "index 1") {
		t.Errorf("Expected error to name the command and index, got %v", err)
	}
}

func TestNewCommandInvokerFromConfigs(t *testing.T) {
	registry := NewCommandRegistry()
	err := registry.Register("Suffix", func(params map[string]any) (Command, error) {
		if err := ValidateRequiredParams(params, []string{"suffix"}); err != nil {
			return nil, err
		}
		return appending("Suffix", GetStringParam(params, "suffix", "")), nil
	})
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	invoker, err := NewCommandInvokerFromConfigs(registry, []CommandConfig{
		{Name: "Suffix", Params: map[string]any{"suffix": "-a"}},
		{Name: "Suffix", Params: map[string]any{"suffix": "-b"}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	result, err := invoker.Execute([]byte("x"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(result) != "x-a-b" {
		t.Errorf("Expected 'x-a-b', got %q", string(result))
	}

	if _, err := NewCommandInvokerFromConfigs(registry, []CommandConfig{{Name: "Suffix"}}); err == nil {
		t.Error("Expected error for missing required parameter")
	}
	if _, err := NewCommandInvokerFromConfigs(registry, []CommandConfig{{Name: "Unknown"}}); err == nil {
		t.Error("Expected error for unknown command")
	}
}

func TestExecuteCommands_UsesDefaultRegistry(t *testing.T) {
	original := DefaultRegistry
	DefaultRegistry = NewCommandRegistry()
	defer func() { DefaultRegistry = original }()

	if err := DefaultRegistry.Register("Mark", func(map[string]any) (Command, error) {
		return appending("Mark", "!"), nil
	}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	result, err := ExecuteCommands([]byte("hi"), []CommandConfig{{Name: "Mark"}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result) != "hi!" {
		t.Errorf("Expected 'hi!', got %q", string(result))
	}

	if _, err := ExecuteCommands([]byte("hi"), []CommandConfig{{Name: "Missing"}}); err == nil {
		t.Error("Expected error for unknown command")
	}
}
