package commands

import (
	_ "embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
	xdraw "golang.org/x/image/draw"
)

// Marker geometry, in pixels of the 512x512 canvas
const (
	MarkerSize       = 512
	markerPadding    = 50
	outerBorderInset = 10
	outerBorderWidth = 20
	innerBorderInset = 30
	innerBorderWidth = 10
	cornerSize       = 60
	badgeWidth       = 60
	badgeHeight      = 40
	badgeRightInset  = 80
	badgeTop         = 20
)

var markerBadgeColor = color.RGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff}

//go:embed assets/play-badge.svg
var playBadgeSVG []byte

// MarkerCommand frames a processed image as a printable marker: white canvas, double
// black border, nested corner squares and a play badge when videos are attached
type MarkerCommand struct {
	name     string
	hasVideo bool
}

func NewMarkerCommand(params map[string]any) (commandstructure.Command, error) {
	return &MarkerCommand{
		name:     "MarkerCommand",
		hasVideo: commandstructure.GetBoolParam(params, "hasVideo", false),
	}, nil
}

func (c *MarkerCommand) Name() string {
	return c.name
}

func (c *MarkerCommand) HasVideo() bool {
	return c.hasVideo
}

func (c *MarkerCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	canvas := createTargetCanvas(MarkerSize, MarkerSize, color.White)

	inner := image.Rect(markerPadding, markerPadding, MarkerSize-markerPadding, MarkerSize-markerPadding)
	xdraw.CatmullRom.Scale(canvas, inner, img, img.Bounds(), xdraw.Over, nil)

	strokeRect(canvas,
		image.Rect(outerBorderInset, outerBorderInset, MarkerSize-outerBorderInset, MarkerSize-outerBorderInset),
		outerBorderWidth, color.Black)
	strokeRect(canvas,
		image.Rect(innerBorderInset, innerBorderInset, MarkerSize-innerBorderInset, MarkerSize-innerBorderInset),
		innerBorderWidth, color.Black)

	far := MarkerSize - cornerSize
	for _, corner := range []image.Point{{0, 0}, {far, 0}, {0, far}, {far, far}} {
		drawCornerSquare(canvas, corner)
	}

	if c.hasVideo {
		if err := drawPlayBadge(canvas); err != nil {
			return nil, err
		}
	}

	out, err := encodePNG(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode marker PNG image: %w", err)
	}
	return out, nil
}

// drawCornerSquare paints the black/white/black finder pattern at p
func drawCornerSquare(dst draw.Image, p image.Point) {
	fillRect(dst, image.Rect(p.X, p.Y, p.X+cornerSize, p.Y+cornerSize), color.Black)
	fillRect(dst, image.Rect(p.X+10, p.Y+10, p.X+cornerSize-10, p.Y+cornerSize-10), color.White)
	fillRect(dst, image.Rect(p.X+20, p.Y+20, p.X+cornerSize-20, p.Y+cornerSize-20), color.Black)
}

func drawPlayBadge(dst draw.Image) error {
	badge, err := renderSVG(playBadgeSVG, badgeWidth, badgeHeight, markerBadgeColor)
	if err != nil {
		return fmt.Errorf("failed to render play badge: %w", err)
	}
	origin := image.Pt(MarkerSize-badgeRightInset, badgeTop)
	draw.Draw(dst, badge.Bounds().Add(origin), badge, image.Point{}, draw.Src)
	return nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("MarkerCommand", NewMarkerCommand); err != nil {
		panic(fmt.Sprintf("failed to register MarkerCommand: %v", err))
	}
}
