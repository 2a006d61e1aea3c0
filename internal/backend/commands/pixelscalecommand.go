package commands

import (
	"fmt"
	"image"

	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
	xdraw "golang.org/x/image/draw"
)

// PixelScaleParams fixes one side; the other follows the aspect ratio when nil
type PixelScaleParams struct {
	Height *int
	Width  *int
}

func NewPixelScaleParamsFromMap(params map[string]any) (*PixelScaleParams, error) {
	_, hasHeight := params["height"]
	_, hasWidth := params["width"]
	if !hasHeight && !hasWidth {
		return nil, fmt.Errorf("at least one of 'height' or 'width' must be specified")
	}

	result := &PixelScaleParams{}
	if hasHeight {
		height := commandstructure.GetIntParam(params, "height", 0)
		if height <= 0 {
			return nil, fmt.Errorf("height must be positive, got %d", height)
		}
		result.Height = &height
	}
	if hasWidth {
		width := commandstructure.GetIntParam(params, "width", 0)
		if width <= 0 {
			return nil, fmt.Errorf("width must be positive, got %d", width)
		}
		result.Width = &width
	}
	return result, nil
}

// PixelScaleCommand produces the cheap preview thumbnails shown in the page
type PixelScaleCommand struct {
	name   string
	params *PixelScaleParams
}

func NewPixelScaleCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewPixelScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &PixelScaleCommand{
		name:   "PixelScaleCommand",
		params: typedParams,
	}, nil
}

func (c *PixelScaleCommand) Name() string {
	return c.name
}

func (c *PixelScaleCommand) GetParams() *PixelScaleParams {
	return c.params
}

// targetSize resolves the missing side from the aspect ratio, never going below 1px
func (c *PixelScaleCommand) targetSize(originalWidth, originalHeight int) (int, int) {
	aspect := float64(originalWidth) / float64(originalHeight)
	switch {
	case c.params.Width != nil && c.params.Height != nil:
		return *c.params.Width, *c.params.Height
	case c.params.Width != nil:
		return *c.params.Width, max(1, int(float64(*c.params.Width)/aspect))
	default:
		return max(1, int(float64(*c.params.Height)*aspect)), *c.params.Height
	}
}

func (c *PixelScaleCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := c.targetSize(b.Dx(), b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)

	out, err := encodePNG(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scaled PNG image: %w", err)
	}
	return out, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("PixelScaleCommand", NewPixelScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register PixelScaleCommand: %v", err))
	}
}
