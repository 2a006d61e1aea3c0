package artifacts

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Bundle zips the given files. Names must be unique.
func Bundle(files []File, modified time.Time) (File, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Name] {
			return File{}, fmt.Errorf("duplicate file in bundle: %s", f.Name)
		}
		seen[f.Name] = true

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return File{}, fmt.Errorf("failed to add %s to bundle: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return File{}, fmt.Errorf("failed to write %s to bundle: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return File{}, fmt.Errorf("failed to finish bundle: %w", err)
	}
	return File{Name: BundleFileName, ContentType: "application/zip", Data: buf.Bytes()}, nil
}
