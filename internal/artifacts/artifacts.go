package artifacts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"strconv"
	"text/template"
	"time"
)

const (
	PlayerFileName      = "ar-video-player.html"
	UsageGuideFileName  = "ar-usage-guide.md"
	PackageInfoFileName = "ar-package-info.md"
	MarkerPDFFileName   = "ar-marker.pdf"
	BundleFileName      = "ar-package.zip"
	MarkerFileName      = "ar-marker.png"

	defaultImageSize  = 512
	missingValue      = "N/A"
	placeholderVideo  = "your-video-url.mp4"
	defaultFormatName = "png"
)

var ErrNoVideoLinks = errors.New("at least one video link is required")

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = map[string]any{
	"inc":      func(i int) int { return i + 1 },
	"attr":     html.EscapeString,
	"date":     func(t time.Time) string { return t.Format("2006-01-02") },
	"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}

var (
	playerTemplate = template.Must(template.New("ar-video-player.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/ar-video-player.html.tmpl"))
	guideTemplate  = template.Must(template.New("ar-usage-guide.md.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/ar-usage-guide.md.tmpl"))
	infoTemplate   = template.Must(template.New("ar-package-info.md.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/ar-package-info.md.tmpl"))
)

// File is one downloadable artifact
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Link is the view of a video link the templates need
type Link struct {
	Title   string
	Type    string
	URL     string
	AddedAt time.Time
}

// GuideData feeds the usage guide. Zero values print the documented defaults.
type GuideData struct {
	ProcessedSize int
	MarkerQuality int
	MarkerSize    int
	Links         []Link
}

type PackageData struct {
	CreatedAt       time.Time
	ProcessedFormat string
	Links           []Link
}

func ProcessedImageFile(data []byte, format, contentType string, now time.Time) File {
	if format == "" {
		format = defaultFormatName
	}
	return File{
		Name:        fmt.Sprintf("processed-image-%d.%s", now.UnixMilli(), format),
		ContentType: contentType,
		Data:        data,
	}
}

func MarkerImageFile(data []byte, now time.Time) File {
	return File{
		Name:        fmt.Sprintf("ar-marker-%d.png", now.UnixMilli()),
		ContentType: "image/png",
		Data:        data,
	}
}

// PlayerHTML renders the AR.js page that plays the first link on the marker. The
// link is written as entered, only HTML special characters are escaped.
func PlayerHTML(links []Link) (File, error) {
	if len(links) == 0 {
		return File{}, ErrNoVideoLinks
	}
	var buf bytes.Buffer
	err := playerTemplate.Execute(&buf, struct {
		LinkCount  int
		MarkerFile string
		VideoURL   string
	}{
		LinkCount:  len(links),
		MarkerFile: MarkerFileName,
		VideoURL:   links[0].URL,
	})
	if err != nil {
		return File{}, fmt.Errorf("failed to render %s: %w", PlayerFileName, err)
	}
	return File{Name: PlayerFileName, ContentType: "text/html; charset=utf-8", Data: buf.Bytes()}, nil
}

func UsageGuide(data GuideData) (File, error) {
	view := struct {
		ProcessedSize    string
		MarkerQuality    string
		HasMarkerQuality bool
		MarkerSize       string
		Links            []Link
		SnippetVideoURL  string
	}{
		ProcessedSize:    sizeOrDefault(data.ProcessedSize),
		MarkerQuality:    missingValue,
		HasMarkerQuality: data.MarkerQuality > 0,
		MarkerSize:       sizeOrDefault(data.MarkerSize),
		Links:            sanitizeLinks(data.Links),
		SnippetVideoURL:  placeholderVideo,
	}
	if view.HasMarkerQuality {
		view.MarkerQuality = strconv.Itoa(data.MarkerQuality)
	}
	if len(data.Links) > 0 {
		view.SnippetVideoURL = data.Links[0].URL
	}

	var buf bytes.Buffer
	if err := guideTemplate.Execute(&buf, view); err != nil {
		return File{}, fmt.Errorf("failed to render %s: %w", UsageGuideFileName, err)
	}
	return File{Name: UsageGuideFileName, ContentType: "text/markdown; charset=utf-8", Data: buf.Bytes()}, nil
}

func PackageInfo(data PackageData) (File, error) {
	if data.ProcessedFormat == "" {
		data.ProcessedFormat = defaultFormatName
	}
	data.Links = sanitizeLinks(data.Links)

	var buf bytes.Buffer
	if err := infoTemplate.Execute(&buf, data); err != nil {
		return File{}, fmt.Errorf("failed to render %s: %w", PackageInfoFileName, err)
	}
	return File{Name: PackageInfoFileName, ContentType: "text/markdown; charset=utf-8", Data: buf.Bytes()}, nil
}

func sizeOrDefault(size int) string {
	if size <= 0 {
		size = defaultImageSize
	}
	return strconv.Itoa(size)
}
