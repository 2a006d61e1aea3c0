package core

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"strings"

	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type, use JPEG, PNG or WebP")
	ErrFileTooLarge        = errors.New("file is too large")
	ErrEmptyFile           = errors.New("file is empty")
	ErrUndecodableImage    = errors.New("image could not be decoded")
)

var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// NormalizeContentType strips parameters and case from a declared content type
func NormalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// ValidateUpload checks the declared type against the allow-list and the size
// against maxBytes. A size equal to the limit is accepted.
func ValidateUpload(contentType string, size int64, maxBytes int64) error {
	if !allowedUploadTypes[NormalizeContentType(contentType)] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, contentType)
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, size, maxBytes)
	}
	return nil
}

// sniffedUploadTypes maps the decoder name image.DecodeConfig reports to the
// content type stored with the session
var sniffedUploadTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// DetectImage checks the bytes themselves: the format must be JPEG, PNG or WebP,
// width*height must not exceed maxPixels (0 disables the cap) and the image must
// decode. It returns the content type of the actual data.
func DetectImage(data []byte, maxPixels int64) (string, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return "", fmt.Errorf("%w: content is not a recognised image", ErrUnsupportedFileType)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}
	contentType, ok := sniffedUploadTypes[format]
	if !ok {
		return "", fmt.Errorf("%w: content is %s", ErrUnsupportedFileType, format)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return "", fmt.Errorf("%w: invalid dimensions %dx%d", ErrUndecodableImage, config.Width, config.Height)
	}
	if pixels := int64(config.Width) * int64(config.Height); maxPixels > 0 && pixels > maxPixels {
		return "", fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", ErrFileTooLarge, config.Width, config.Height, maxPixels)
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}
	return contentType, nil
}
