package scanner

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode frame: %v", err)
	}
	return buf.Bytes()
}

// halves paints the left half with left and the right half with right
func halves(left, right uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := left
			if x >= 5 {
				v = right
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestMeasure(t *testing.T) {
	brightness, contrast := Measure(halves(50, 250))
	if math.Abs(brightness-150) > 1e-9 {
		t.Errorf("Expected brightness 150, got %v", brightness)
	}
	if math.Abs(contrast-100) > 1e-9 {
		t.Errorf("Expected contrast 100, got %v", contrast)
	}

	brightness, contrast = Measure(halves(80, 80))
	if brightness != 80 || contrast != 0 {
		t.Errorf("Expected 80/0 for a flat frame, got %v/%v", brightness, contrast)
	}
}

func TestScanner_Analyze(t *testing.T) {
	s := NewScanner(Thresholds{Brightness: 100, Contrast: 30})

	tests := []struct {
		name     string
		frame    image.Image
		detected bool
	}{
		{"bright and busy", halves(50, 250), true},
		{"bright but flat", halves(200, 200), false},
		{"busy but dark", halves(0, 150), false},
		{"exactly on threshold", halves(100, 100), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := s.Analyze(encode(t, tt.frame))
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if stats.Detected != tt.detected {
				t.Errorf("Expected detected=%v, got %+v", tt.detected, stats)
			}
			if stats.Width != 10 || stats.Height != 10 {
				t.Errorf("Expected 10x10, got %dx%d", stats.Width, stats.Height)
			}
		})
	}
}

func TestScanner_InvalidFrame(t *testing.T) {
	s := NewScanner(Thresholds{Brightness: 100, Contrast: 30})
	if _, err := s.Analyze([]byte("not an image")); err == nil {
		t.Error("Expected error for invalid frame")
	}
}
