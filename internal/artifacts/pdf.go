package artifacts

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MarkerPDF places the marker PNG on a printable A4 page
func MarkerPDF(markerPNG []byte) (File, error) {
	if len(markerPNG) == 0 {
		return File{}, fmt.Errorf("marker image is empty")
	}

	var buf bytes.Buffer
	imp := pdfcpu.DefaultImportConfig()
	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(markerPNG)}, imp, conf); err != nil {
		return File{}, fmt.Errorf("pdfcpu import: %w", err)
	}
	return File{Name: MarkerPDFFileName, ContentType: "application/pdf", Data: buf.Bytes()}, nil
}
