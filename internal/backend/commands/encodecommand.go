package commands

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"

	MinQuality     = 10
	MaxQuality     = 100
	DefaultQuality = 80
)

// NormalizeFormat lower-cases the format and folds "jpg" into "jpeg"
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "jpg" {
		return FormatJPEG
	}
	return f
}

// MimeType returns the content type for a supported output format
func MimeType(format string) string {
	switch NormalizeFormat(format) {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

type EncodeParams struct {
	Format  string
	Quality int
}

func NewEncodeParamsFromMap(params map[string]any) (*EncodeParams, error) {
	format := NormalizeFormat(commandstructure.GetStringParam(params, "format", FormatPNG))
	if format != FormatPNG && format != FormatJPEG && format != FormatWebP {
		return nil, fmt.Errorf("unsupported output format: %s (must be 'png', 'jpeg' or 'webp')", format)
	}
	quality := commandstructure.GetIntParam(params, "quality", DefaultQuality)
	if quality < MinQuality || quality > MaxQuality {
		return nil, fmt.Errorf("quality must be between %d and %d, got %d", MinQuality, MaxQuality, quality)
	}
	return &EncodeParams{Format: format, Quality: quality}, nil
}

// EncodeCommand writes the final output format. Quality only affects jpeg, webp
// output is lossless.
type EncodeCommand struct {
	name   string
	params *EncodeParams
}

func NewEncodeCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewEncodeParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &EncodeCommand{
		name:   "EncodeCommand",
		params: typedParams,
	}, nil
}

func (c *EncodeCommand) Name() string {
	return c.name
}

func (c *EncodeCommand) GetParams() *EncodeParams {
	return c.params
}

func (c *EncodeCommand) Execute(imageData []byte) ([]byte, error) {
	if c.params.Format == FormatPNG && hasCorrectPngSignature(imageData) {
		return imageData, nil
	}

	img, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	switch c.params.Format {
	case FormatJPEG:
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.params.Quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG image: %w", err)
		}
		return buf.Bytes(), nil
	case FormatWebP:
		var buf bytes.Buffer
		if err := nativewebp.Encode(&buf, img, &nativewebp.Options{}); err != nil {
			return nil, fmt.Errorf("failed to encode WebP image: %w", err)
		}
		return buf.Bytes(), nil
	default:
		out, err := encodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode PNG image: %w", err)
		}
		return out, nil
	}
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("EncodeCommand", NewEncodeCommand); err != nil {
		panic(fmt.Sprintf("failed to register EncodeCommand: %v", err))
	}
}
