package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strconv"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// MaxSVGPixels bounds the raster an SVG may be rendered into
const MaxSVGPixels = 40_000_000

var (
	svgOpenTag   = regexp.MustCompile(`(?is)<svg\b[^>]*>`)
	svgDimension = regexp.MustCompile(`(?i)\b(width|height)\s*=\s*["']\s*([0-9]+)`)
)

// isSVGData looks for an <svg tag or the SVG namespace in the first 4KB
func isSVGData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	n := min(len(data), 4096)
	header := bytes.ToLower(data[:n])
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("http://www.w3.org/2000/svg"))
}

// parseSvgExplicitSize reads numeric width and height attributes from the root tag.
// A viewBox alone is not treated as a pixel size.
func parseSvgExplicitSize(data []byte) (int, int, bool) {
	n := min(len(data), 8192)
	tag := svgOpenTag.Find(data[:n])
	if tag == nil {
		return 0, 0, false
	}
	width, height := 0, 0
	for _, m := range svgDimension.FindAllSubmatch(tag, -1) {
		v, err := strconv.Atoi(string(m[2]))
		if err != nil {
			continue
		}
		switch string(bytes.ToLower(m[1])) {
		case "width":
			width = v
		case "height":
			height = v
		}
	}
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// renderSVG rasterises svgData into a w x h canvas filled with bg
func renderSVG(svgData []byte, w, h int, bg color.Color) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", w, h)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := createTargetCanvas(w, h, bg)
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}
