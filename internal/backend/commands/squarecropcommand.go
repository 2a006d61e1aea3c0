package commands

import (
	"fmt"
	"image"

	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
)

// SquareCropCommand cuts the largest centred square out of the image
type SquareCropCommand struct {
	name string
}

func NewSquareCropCommand(map[string]any) (commandstructure.Command, error) {
	return &SquareCropCommand{name: "SquareCropCommand"}, nil
}

func (c *SquareCropCommand) Name() string {
	return c.name
}

func (c *SquareCropCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() == b.Dy() {
		return imageData, nil
	}
	side := min(b.Dx(), b.Dy())
	x0 := (b.Dx() - side) / 2
	y0 := (b.Dy() - side) / 2

	cropped := toRGBA(img).SubImage(image.Rect(x0, y0, x0+side, y0+side))
	out, err := encodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped PNG image: %w", err)
	}
	return out, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("SquareCropCommand", NewSquareCropCommand); err != nil {
		panic(fmt.Sprintf("failed to register SquareCropCommand: %v", err))
	}
}
