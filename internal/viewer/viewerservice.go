package viewer

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
)

//go:embed static
var staticFS embed.FS

// SampleMapping returns the mapping file shipped with the viewer
func SampleMapping() ([]byte, error) {
	return staticFS.ReadFile("static/photo-video-mapping.json")
}

// TargetCreationGuide returns the markdown guide for compiling .mind targets
func TargetCreationGuide() ([]byte, error) {
	return staticFS.ReadFile("static/TARGET_CREATION_GUIDE.md")
}

// ViewerService serves the MindAR viewer page, its mapping and the compiled target
type ViewerService struct {
	mappingPath string
	targetPath  string
}

func NewViewerService(mappingPath, targetPath string) *ViewerService {
	return &ViewerService{
		mappingPath: mappingPath,
		targetPath:  targetPath,
	}
}

func (service *ViewerService) SetRoutes(e *echo.Echo) {
	e.GET("/viewer", service.pageHandler)
	e.GET("/viewer/assets/webaar.js", service.scriptHandler)
	e.GET("/viewer/assets/photo-video-mapping.json", service.mappingHandler)
	e.GET("/viewer/assets/targets.mind", service.targetHandler)
	e.GET("/viewer/guide", service.guideHandler)
	e.POST("/viewer/api/targets/:index/found", service.targetFoundHandler)
	e.POST("/viewer/api/targets/:index/lost", service.targetLostHandler)
}

// Mapping reloads the mapping file on every call so edits apply without a restart
func (service *ViewerService) Mapping() *MappingFile {
	m, _ := LoadMapping(service.mappingPath)
	return m
}

func (service *ViewerService) pageHandler(ctx echo.Context) error {
	return service.staticBlob(ctx, "static/viewer.html", "text/html; charset=utf-8")
}

func (service *ViewerService) scriptHandler(ctx echo.Context) error {
	return service.staticBlob(ctx, "static/webaar.js", "application/javascript")
}

func (service *ViewerService) guideHandler(ctx echo.Context) error {
	return service.staticBlob(ctx, "static/TARGET_CREATION_GUIDE.md", "text/markdown; charset=utf-8")
}

func (service *ViewerService) staticBlob(ctx echo.Context, name, contentType string) error {
	data, err := fs.ReadFile(staticFS, name)
	if err != nil {
		slog.Error("ViewerService: failed to read embedded asset", "asset", name, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load viewer asset")
	}
	return ctx.Blob(http.StatusOK, contentType, data)
}

func (service *ViewerService) mappingHandler(ctx echo.Context) error {
	ctx.Response().Header().Set("Cache-Control", "no-store")
	return ctx.JSON(http.StatusOK, service.Mapping())
}

func (service *ViewerService) targetHandler(ctx echo.Context) error {
	info, err := os.Stat(service.targetPath)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		slog.Warn("ViewerService: compiled target file missing", "path", service.targetPath)
		return ctx.String(http.StatusNotFound, "Target file not found, see /viewer/guide")
	}
	if err != nil {
		slog.Error("ViewerService: failed to stat target file", "path", service.targetPath, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to read target file")
	}
	data, err := os.ReadFile(service.targetPath)
	if err != nil {
		slog.Error("ViewerService: failed to read target file", "path", service.targetPath, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to read target file")
	}
	return ctx.Blob(http.StatusOK, "application/octet-stream", data)
}

func (service *ViewerService) targetFoundHandler(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || index < 0 {
		return ctx.String(http.StatusBadRequest, "Invalid target index")
	}
	action := service.Mapping().OnTargetFound(index)
	slog.Info("ViewerService: target found", "target_index", index, "action", action.Kind, "mapping_id", action.MappingID)
	return ctx.JSON(http.StatusOK, action)
}

func (service *ViewerService) targetLostHandler(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || index < 0 {
		return ctx.String(http.StatusBadRequest, "Invalid target index")
	}
	action := service.Mapping().OnTargetLost(index)
	slog.Debug("ViewerService: target lost", "target_index", index)
	return ctx.JSON(http.StatusOK, action)
}
