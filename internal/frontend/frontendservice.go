package frontend

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jo-hoe/arconverter/internal/backend/commands"
	"github.com/jo-hoe/arconverter/internal/backend/database"
	"github.com/jo-hoe/arconverter/internal/common"
	"github.com/jo-hoe/arconverter/internal/core"
	"github.com/jo-hoe/arconverter/internal/scanner"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"
	mimePNG      = "image/png"

	uploadView  = "upload.html"
	sessionView = "session.html"
	scanView    = "scan.html"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type uploadData struct {
	MaxMegabytes int64
	Message      string
}

type linkData struct {
	ID        string
	Title     string
	URL       string
	Type      string
	TypeLabel string
	First     bool
	Last      bool
}

type downloadData struct {
	Kind      core.DownloadKind
	Label     string
	Available bool
	Hint      string
}

type sessionData struct {
	Summary      *core.SessionSummary
	Links        []linkData
	VideoTypes   []core.VideoType
	ProcessSizes []int
	Options      core.ProcessOptions
	Downloads    []downloadData
	Message      string
	Timestamp    string
}

type scanData struct {
	Stats   scanner.FrameStats
	Message string
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)

	e.POST("/htmx/sessions", service.htmxUploadImageHandler)
	e.GET("/htmx/sessions/:id", service.htmxSessionHandler)
	e.DELETE("/htmx/sessions/:id", service.htmxDeleteSessionHandler)
	e.POST("/htmx/sessions/:id/image", service.htmxReplaceImageHandler)
	e.GET("/htmx/sessions/:id/image/:which", service.htmxImageHandler)
	e.POST("/htmx/sessions/:id/process", service.htmxProcessHandler)
	e.POST("/htmx/sessions/:id/marker", service.htmxMarkerHandler)

	e.POST("/htmx/sessions/:id/links", service.htmxAddLinkHandler)
	e.PUT("/htmx/sessions/:id/links/:linkId", service.htmxUpdateLinkHandler)
	e.DELETE("/htmx/sessions/:id/links/:linkId", service.htmxDeleteLinkHandler)
	e.POST("/htmx/sessions/:id/links/:linkId/move", service.htmxMoveLinkHandler)

	e.POST("/htmx/scan", service.htmxScanHandler)

	// Favicon (SVG) route
	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) upload(message string) uploadData {
	return uploadData{
		MaxMegabytes: service.config.Upload.MaxBytes / (1024 * 1024),
		Message:      message,
	}
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, service.upload(""))
}

// userMessage turns a domain error into the one line shown on the page. Internal
// errors yield "" and are answered with a 500 instead.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrUnsupportedFileType):
		return "Unsupported file type. Please upload a JPEG, PNG or WebP image."
	case errors.Is(err, core.ErrFileTooLarge):
		return "The file is too large."
	case errors.Is(err, core.ErrEmptyFile):
		return "The file is empty."
	case errors.Is(err, core.ErrUndecodableImage):
		return "The image could not be read. Please upload a valid JPEG, PNG or WebP file."
	case errors.Is(err, core.ErrEmptyLink):
		return "Please enter a video link."
	case errors.Is(err, core.ErrInvalidVideoLink):
		return "The link does not match the selected video type."
	case errors.Is(err, core.ErrUnknownVideoType):
		return "Unknown video type."
	case errors.Is(err, core.ErrInvalidProcessOptions):
		return "Invalid processing options."
	case errors.Is(err, core.ErrNotProcessed):
		return "Process the image first."
	case errors.Is(err, core.ErrInvalidDirection), errors.Is(err, core.ErrVideoLinkNotFound):
		return "That video link no longer exists."
	default:
		return ""
	}
}

// renderSession re-renders the whole session panel, optionally with a message
func (service *FrontendService) renderSession(ctx echo.Context, id, message string, options *core.ProcessOptions) error {
	summary, err := service.coreService.Summary(id, false)
	if errors.Is(err, core.ErrSessionNotFound) {
		slog.Warn("renderSession: session not found", "status", http.StatusOK, "session_id", id)
		return ctx.Render(http.StatusOK, uploadView, service.upload("Your session has expired, please upload the photo again."))
	}
	if err != nil {
		slog.Error("renderSession: failed to load session", "status", http.StatusInternalServerError, "session_id", id, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load session")
	}

	data := sessionData{
		Summary:      summary,
		Links:        toLinkData(summary.VideoLinks),
		VideoTypes:   core.VideoTypes(),
		ProcessSizes: core.ProcessSizes,
		Options:      core.DefaultProcessOptions(),
		Downloads:    downloads(summary),
		Message:      message,
		Timestamp:    service.timestampNanoStr(),
	}
	if p := summary.Processed; p != nil {
		data.Options = core.ProcessOptions{Size: p.Size, Format: p.Format, Quality: p.Quality}
	}
	if options != nil {
		data.Options = options.Normalize()
	}

	// Prevent caching so the latest state is shown
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, sessionView, data)
}

// respond renders the session after an operation: domain errors are shown inline,
// anything else is a 500
func (service *FrontendService) respond(ctx echo.Context, handler, id string, err error, options *core.ProcessOptions) error {
	if err == nil {
		return service.renderSession(ctx, id, "", options)
	}
	if errors.Is(err, core.ErrSessionNotFound) {
		return service.renderSession(ctx, id, "", nil)
	}
	if message := userMessage(err); message != "" {
		slog.Warn(handler+": request rejected", "session_id", id, "error", err)
		return service.renderSession(ctx, id, message, options)
	}
	slog.Error(handler+": request failed", "status", http.StatusInternalServerError, "session_id", id, "error", err)
	return ctx.String(http.StatusInternalServerError, "Something went wrong, please try again")
}

func toLinkData(links []*database.VideoLink) []linkData {
	out := make([]linkData, len(links))
	for i, l := range links {
		out[i] = linkData{
			ID:        l.ID,
			Title:     l.Title,
			URL:       l.URL,
			Type:      l.Type,
			TypeLabel: core.VideoType(l.Type).Label(),
			First:     i == 0,
			Last:      i == len(links)-1,
		}
	}
	return out
}

func downloads(summary *core.SessionSummary) []downloadData {
	processed := summary.Processed != nil
	marker := summary.Marker != nil
	links := len(summary.VideoLinks) > 0

	return []downloadData{
		{core.DownloadProcessed, "Processed image", processed, "process the image first"},
		{core.DownloadMarker, "AR marker (PNG)", marker, "generate the marker first"},
		{core.DownloadPDF, "Printable marker (PDF)", marker, "generate the marker first"},
		{core.DownloadPlayer, "AR video player (HTML)", links, "add a video first"},
		{core.DownloadGuide, "Usage guide", true, ""},
		{core.DownloadPackage, "Package info", true, ""},
		{core.DownloadBundle, "Everything as ZIP", true, ""},
	}
}

func (service *FrontendService) htmxUploadImageHandler(ctx echo.Context) error {
	file, err := common.ReadFormFile(ctx, "image", service.config.Upload.MaxBytes)
	if err != nil {
		slog.Error("htmxUploadImageHandler: failed to get uploaded file", "status", http.StatusBadRequest, "error", err)
		return ctx.Render(http.StatusOK, uploadView, service.upload("Please choose a file to upload."))
	}

	session, err := service.coreService.CreateSession(file.Data, file.ContentType)
	if err != nil {
		if message := userMessage(err); message != "" {
			slog.Warn("htmxUploadImageHandler: upload rejected", "error", err, "filename", file.Filename)
			return ctx.Render(http.StatusOK, uploadView, service.upload(message))
		}
		slog.Error("htmxUploadImageHandler: failed to store uploaded image",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to process uploaded image")
	}
	return service.renderSession(ctx, session.ID, "", nil)
}

func (service *FrontendService) htmxSessionHandler(ctx echo.Context) error {
	return service.renderSession(ctx, ctx.Param("id"), "", nil)
}

func (service *FrontendService) htmxDeleteSessionHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := service.coreService.DeleteSession(id); err != nil && !errors.Is(err, core.ErrSessionNotFound) {
		slog.Error("htmxDeleteSessionHandler: failed to delete session",
			"status", http.StatusInternalServerError, "session_id", id, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to delete session")
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, uploadView, service.upload(""))
}

func (service *FrontendService) htmxReplaceImageHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	file, err := common.ReadFormFile(ctx, "image", service.config.Upload.MaxBytes)
	if err != nil {
		slog.Warn("htmxReplaceImageHandler: failed to get uploaded file", "session_id", id, "error", err)
		return service.renderSession(ctx, id, "Please choose a file to upload.", nil)
	}
	_, err = service.coreService.ReplaceImage(id, file.Data, file.ContentType)
	return service.respond(ctx, "htmxReplaceImageHandler", id, err, nil)
}

// htmxImageHandler serves the original as a thumbnail and the processed image and
// marker as stored
func (service *FrontendService) htmxImageHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	which := ctx.Param("which")

	session, err := service.coreService.GetSession(id)
	if err != nil {
		slog.Warn("htmxImageHandler: image not available", "status", http.StatusNotFound, "session_id", id, "error", err)
		return ctx.String(http.StatusNotFound, "Image not available")
	}

	var (
		data        []byte
		contentType = mimePNG
	)
	switch which {
	case "original":
		data, err = service.coreService.Thumbnail(session.OriginalImage)
		if err != nil {
			slog.Warn("htmxImageHandler: thumbnail not available", "status", http.StatusNotFound, "session_id", id, "error", err)
			return ctx.String(http.StatusNotFound, "Thumbnail not available")
		}
	case "processed":
		if session.Processed != nil {
			data = session.Processed.Data
			contentType = commands.MimeType(session.Processed.Format)
		}
	case "marker":
		if session.Marker != nil {
			data = session.Marker.Data
		}
	default:
		return ctx.String(http.StatusBadRequest, "Unknown image")
	}
	if len(data) == 0 {
		return ctx.String(http.StatusNotFound, "Image not available")
	}

	// Prevent caching
	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, contentType, data)
}

func (service *FrontendService) htmxProcessHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	var options core.ProcessOptions
	if err := ctx.Bind(&options); err != nil {
		slog.Warn("htmxProcessHandler: invalid form", "session_id", id, "error", err)
		return service.renderSession(ctx, id, "Invalid processing options.", nil)
	}
	_, err := service.coreService.ProcessImage(id, options)
	return service.respond(ctx, "htmxProcessHandler", id, err, &options)
}

func (service *FrontendService) htmxMarkerHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	_, err := service.coreService.GenerateMarker(id)
	return service.respond(ctx, "htmxMarkerHandler", id, err, nil)
}

func (service *FrontendService) bindLink(ctx echo.Context) (core.VideoLinkInput, error) {
	var input core.VideoLinkInput
	if err := ctx.Bind(&input); err != nil {
		return input, core.ErrEmptyLink
	}
	if err := ctx.Validate(&input); err != nil {
		return input, fmt.Errorf("%w: %v", core.ErrEmptyLink, err)
	}
	return input, nil
}

func (service *FrontendService) htmxAddLinkHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	input, err := service.bindLink(ctx)
	if err == nil {
		_, err = service.coreService.AddVideoLink(id, input)
	}
	return service.respond(ctx, "htmxAddLinkHandler", id, err, nil)
}

func (service *FrontendService) htmxUpdateLinkHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	input, err := service.bindLink(ctx)
	if err == nil {
		_, err = service.coreService.UpdateVideoLink(id, ctx.Param("linkId"), input)
	}
	return service.respond(ctx, "htmxUpdateLinkHandler", id, err, nil)
}

func (service *FrontendService) htmxDeleteLinkHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	err := service.coreService.DeleteVideoLink(id, ctx.Param("linkId"))
	return service.respond(ctx, "htmxDeleteLinkHandler", id, err, nil)
}

func (service *FrontendService) htmxMoveLinkHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	dir, err := core.ParseMoveDirection(ctx.QueryParam("dir"))
	if err != nil {
		slog.Warn("htmxMoveLinkHandler: invalid params", "session_id", id, "dir", ctx.QueryParam("dir"))
		return ctx.String(http.StatusBadRequest, "Invalid parameters")
	}
	_, err = service.coreService.MoveVideoLink(id, ctx.Param("linkId"), dir)
	return service.respond(ctx, "htmxMoveLinkHandler", id, err, nil)
}

func (service *FrontendService) htmxScanHandler(ctx echo.Context) error {
	file, err := common.ReadFormFile(ctx, "frame", service.config.Upload.MaxBytes)
	if err != nil {
		slog.Warn("htmxScanHandler: failed to get frame", "error", err)
		return ctx.Render(http.StatusOK, scanView, scanData{Message: "Please choose a camera frame."})
	}
	if int64(len(file.Data)) > service.config.Upload.MaxBytes {
		return ctx.Render(http.StatusOK, scanView, scanData{Message: "The frame is too large."})
	}
	stats, err := service.coreService.Scan(file.Data)
	if err != nil {
		slog.Warn("htmxScanHandler: frame not analyzable", "error", err, "filename", file.Filename)
		return ctx.Render(http.StatusOK, scanView, scanData{Message: "The frame could not be read as an image."})
	}
	return ctx.Render(http.StatusOK, scanView, scanData{Stats: stats})
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) timestampNanoStr() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}
