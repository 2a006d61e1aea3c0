package commands

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
)

func TestPngConverterCommand_PngPassesThrough(t *testing.T) {
	command, err := NewPngConverterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}

	input := mustPNG(t, solidImage(4, 4, color.White))
	result, err := command.Execute(input)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !bytes.Equal(input, result) {
		t.Error("Expected PNG input to be returned unchanged")
	}
}

func TestPngConverterCommand_ConvertsJPEG(t *testing.T) {
	command, _ := NewPngConverterCommand(map[string]any{})

	result, err := command.Execute(mustJPEG(t, solidImage(10, 6, color.RGBA{R: 200, A: 255})))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !hasCorrectPngSignature(result) {
		t.Fatal("Expected PNG output")
	}
	img, err := png.Decode(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("Result is not valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 6 {
		t.Errorf("Expected 10x6, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestPngConverterCommand_InvalidImage(t *testing.T) {
	command, _ := NewPngConverterCommand(map[string]any{})
	if _, err := command.Execute([]byte("not a valid image")); err == nil {
		t.Error("Expected error for invalid image data")
	}
}

func TestPngConverterCommand_RenderSVG(t *testing.T) {
	tests := []struct {
		name          string
		svg           string
		params        map[string]any
		expectedW     int
		expectedH     int
		expectFailure bool
	}{
		{
			name:      "explicit size",
			svg:       `<svg xmlns="http://www.w3.org/2000/svg" width="40px" height="20"><rect width="40" height="20" fill="red"/></svg>`,
			params:    map[string]any{},
			expectedW: 40,
			expectedH: 20,
		},
		{
			name:      "fallback size",
			svg:       `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><rect width="100" height="100" fill="red"/></svg>`,
			params:    map[string]any{"svgFallbackWidth": 64, "svgFallbackHeight": 32},
			expectedW: 64,
			expectedH: 32,
		},
		{
			name:          "no size at all",
			svg:           `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"></svg>`,
			params:        map[string]any{},
			expectFailure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, err := NewPngConverterCommand(tt.params)
			if err != nil {
				t.Fatalf("Failed to create command: %v", err)
			}
			result, err := command.Execute([]byte(tt.svg))
			if tt.expectFailure {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			img := mustDecode(t, result)
			if img.Bounds().Dx() != tt.expectedW || img.Bounds().Dy() != tt.expectedH {
				t.Errorf("Expected %dx%d, got %dx%d", tt.expectedW, tt.expectedH, img.Bounds().Dx(), img.Bounds().Dy())
			}
		})
	}
}

func TestPngConverterCommand_SVGTooLarge(t *testing.T) {
	command, err := NewPngConverterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="30000" height="30000"></svg>`
	if _, err := command.Execute([]byte(svg)); err == nil || !strings.Contains(err.Error(), "pixel limit") {
		t.Errorf("Expected pixel limit error, got %v", err)
	}
}

func TestPngConverterCommand_NegativeFallback(t *testing.T) {
	if _, err := NewPngConverterCommand(map[string]any{"svgFallbackWidth": -1}); err == nil {
		t.Error("Expected error for negative fallback width")
	}
}

func TestHasCorrectPngSignature(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{"valid", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, true},
		{"zeros", make([]byte, 8), false},
		{"too short", []byte{0x89, 'P', 'N', 'G'}, false},
		{"empty", []byte{}, false},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasCorrectPngSignature(tt.data); got != tt.expected {
				t.Errorf("hasCorrectPngSignature() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsSVGData(t *testing.T) {
	if !isSVGData([]byte(`<?xml version="1.0"?><svg></svg>`)) {
		t.Error("Expected SVG to be detected")
	}
	if isSVGData([]byte("plain text")) {
		t.Error("Expected plain text to not be detected as SVG")
	}
	if isSVGData(nil) {
		t.Error("Expected empty input to not be detected as SVG")
	}
}

func TestRegisteredInDefaultRegistry(t *testing.T) {
	for _, name := range []string{
		"PngConverterCommand",
		"SquareCropCommand",
		"ScaleCommand",
		"AdjustCommand",
		"EncodeCommand",
		"MarkerCommand",
		"PixelScaleCommand",
	} {
		if !commandstructure.DefaultRegistry.IsRegistered(name) {
			t.Errorf("Expected %s to be registered in DefaultRegistry", name)
		}
	}
}
