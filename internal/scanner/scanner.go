package scanner

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Thresholds a frame must exceed, both strictly, to count as a marker sighting
type Thresholds struct {
	Brightness float64
	Contrast   float64
}

type FrameStats struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Detected   bool    `json:"detected"`
}

// Scanner applies the brightness/contrast heuristic to camera frames. It does
// not recognise anything; a bright, busy frame is reported as a sighting.
type Scanner struct {
	thresholds Thresholds
}

func NewScanner(thresholds Thresholds) *Scanner {
	return &Scanner{thresholds: thresholds}
}

func (s *Scanner) Analyze(frame []byte) (FrameStats, error) {
	img, format, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return FrameStats{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return FrameStats{}, fmt.Errorf("frame has no pixels")
	}

	brightness, contrast := Measure(img)
	stats := FrameStats{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Brightness: brightness,
		Contrast:   contrast,
		Detected:   brightness > s.thresholds.Brightness && contrast > s.thresholds.Contrast,
	}
	slog.Debug("Scanner: analyzed frame",
		"format", format,
		"brightness", stats.Brightness,
		"contrast", stats.Contrast,
		"detected", stats.Detected)
	return stats, nil
}

// Measure returns the mean of (r+g+b)/3 over all pixels and the mean absolute
// deviation from it. Channels are taken non-premultiplied.
func Measure(img image.Image) (brightness, contrast float64) {
	b := img.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0
	}

	levels := make([]float64, 0, b.Dx()*b.Dy())
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			level := (float64(c.R) + float64(c.G) + float64(c.B)) / 3
			levels = append(levels, level)
			sum += level
		}
	}
	brightness = sum / n

	var deviation float64
	for _, level := range levels {
		deviation += math.Abs(level - brightness)
	}
	return brightness, deviation / n
}
