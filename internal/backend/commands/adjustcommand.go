package commands

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
)

const (
	DefaultContrast   = 1.2
	DefaultBrightness = 10.0
)

// AdjustParams are the two knobs of the fixed enhancement formula
type AdjustParams struct {
	Contrast   float64
	Brightness float64
}

func NewAdjustParamsFromMap(params map[string]any) (*AdjustParams, error) {
	contrast := commandstructure.GetFloatParam(params, "contrast", DefaultContrast)
	brightness := commandstructure.GetFloatParam(params, "brightness", DefaultBrightness)
	if contrast < 0 {
		return nil, fmt.Errorf("contrast must not be negative, got %v", contrast)
	}
	if brightness < -255 || brightness > 255 {
		return nil, fmt.Errorf("brightness must be between -255 and 255, got %v", brightness)
	}
	return &AdjustParams{Contrast: contrast, Brightness: brightness}, nil
}

// AdjustCommand applies (v-128)*contrast + 128 + brightness to every colour channel,
// clamped to 0..255. Alpha is left alone.
type AdjustCommand struct {
	name   string
	params *AdjustParams
	lut    [256]uint8
}

func NewAdjustCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewAdjustParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	c := &AdjustCommand{
		name:   "AdjustCommand",
		params: typedParams,
	}
	for v := 0; v < 256; v++ {
		c.lut[v] = AdjustChannel(uint8(v), typedParams.Contrast, typedParams.Brightness)
	}
	return c, nil
}

// AdjustChannel is the per channel formula. Rounding is half-to-even to match a
// clamped 8-bit pixel buffer.
func AdjustChannel(v uint8, contrast, brightness float64) uint8 {
	out := (float64(v)-128)*contrast + 128 + brightness
	out = math.Min(255, math.Max(0, out))
	return uint8(math.RoundToEven(out))
}

func (c *AdjustCommand) Name() string {
	return c.name
}

func (c *AdjustCommand) GetParams() *AdjustParams {
	return c.params
}

func (c *AdjustCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	// Non-premultiplied so translucent pixels are adjusted on their real colour
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	w := dst.Bounds().Dx()
	parallelFor(dst.Bounds().Dy(), func(y int) {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = c.lut[row[i]]
			row[i+1] = c.lut[row[i+1]]
			row[i+2] = c.lut[row[i+2]]
		}
	})

	out, err := encodePNG(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to encode adjusted PNG image: %w", err)
	}
	return out, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("AdjustCommand", NewAdjustCommand); err != nil {
		panic(fmt.Sprintf("failed to register AdjustCommand: %v", err))
	}
}
