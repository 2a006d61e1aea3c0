package core

import (
	"fmt"

	"github.com/go-playground/validator"
	"github.com/jo-hoe/arconverter/internal/backend/commands"
	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
)

const (
	DefaultProcessSize    = 512
	DefaultProcessFormat  = commands.FormatPNG
	DefaultProcessQuality = commands.DefaultQuality
)

// ProcessSizes are the square sides offered for the processed image
var ProcessSizes = []int{256, 512, 1024, 2048}

type ProcessOptions struct {
	Size    int    `json:"size" form:"size" validate:"oneof=256 512 1024 2048"`
	Format  string `json:"format" form:"format" validate:"oneof=png jpeg webp"`
	Quality int    `json:"quality" form:"quality" validate:"min=10,max=100"`
}

var optionsValidator = validator.New()

func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{
		Size:    DefaultProcessSize,
		Format:  DefaultProcessFormat,
		Quality: DefaultProcessQuality,
	}
}

// Normalize fills zero values with defaults and folds "jpg" into "jpeg"
func (o ProcessOptions) Normalize() ProcessOptions {
	if o.Size == 0 {
		o.Size = DefaultProcessSize
	}
	if o.Format == "" {
		o.Format = DefaultProcessFormat
	}
	o.Format = commands.NormalizeFormat(o.Format)
	if o.Quality == 0 {
		o.Quality = DefaultProcessQuality
	}
	return o
}

func (o ProcessOptions) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProcessOptions, err)
	}
	return nil
}

// pipeline builds PngConverter -> SquareCrop -> Scale -> adjustments -> Encode
func (o ProcessOptions) pipeline(adjustments []CommandConfig) []commandstructure.CommandConfig {
	configs := []commandstructure.CommandConfig{
		{Name: "PngConverterCommand", Params: map[string]any{}},
		{Name: "SquareCropCommand", Params: map[string]any{}},
		{Name: "ScaleCommand", Params: map[string]any{"size": o.Size}},
	}
	for _, c := range adjustments {
		configs = append(configs, commandstructure.CommandConfig{Name: c.Name, Params: c.Params})
	}
	return append(configs, commandstructure.CommandConfig{
		Name:   "EncodeCommand",
		Params: map[string]any{"format": o.Format, "quality": o.Quality},
	})
}
