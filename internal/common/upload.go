package common

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/labstack/echo/v4"
)

// UploadedFile is a multipart file read into memory
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReadFormFile reads the multipart field into memory. At most limit+1 bytes are
// read so an oversized upload can still be reported as such.
func ReadFormFile(ctx echo.Context, field string, limit int64) (*UploadedFile, error) {
	file, err := ctx.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("failed to get uploaded file %q: %w", field, err)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file %s: %w", file.Filename, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("ReadFormFile: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	var reader io.Reader = src
	if limit > 0 {
		reader = io.LimitReader(src, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file %s: %w", file.Filename, err)
	}
	return &UploadedFile{
		Filename:    file.Filename,
		ContentType: file.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}
