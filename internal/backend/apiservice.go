package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/arconverter/internal/common"
	"github.com/jo-hoe/arconverter/internal/core"
	"github.com/labstack/echo/v4"
)

type APIService struct {
	coreService *core.CoreService
}

type errorResponse struct {
	Error string `json:"error"`
}

type processResponse struct {
	core.ProcessedSummary
	Marker *core.MarkerSummary   `json:"marker,omitempty"`
	Status core.ProcessingStatus `json:"status"`
}

type markerResponse struct {
	core.MarkerSummary
	Status core.ProcessingStatus `json:"status"`
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	api := e.Group("/api")
	api.POST("/sessions", s.createSessionHandler)
	api.GET("/sessions/:id", s.getSessionHandler)
	api.DELETE("/sessions/:id", s.deleteSessionHandler)
	api.PUT("/sessions/:id/image", s.replaceImageHandler)
	api.POST("/sessions/:id/process", s.processHandler)
	api.POST("/sessions/:id/marker", s.markerHandler)

	api.GET("/sessions/:id/links", s.listLinksHandler)
	api.POST("/sessions/:id/links", s.addLinkHandler)
	api.PUT("/sessions/:id/links/:linkId", s.updateLinkHandler)
	api.DELETE("/sessions/:id/links/:linkId", s.deleteLinkHandler)
	api.POST("/sessions/:id/links/:linkId/move", s.moveLinkHandler)

	api.GET("/sessions/:id/download/:kind", s.downloadHandler)
	api.POST("/scan", s.scanHandler)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrVideoLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNotProcessed), errors.Is(err, core.ErrNoMarker), errors.Is(err, core.ErrNoVideoLinks):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnsupportedFileType),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUndecodableImage),
		errors.Is(err, core.ErrInvalidProcessOptions),
		errors.Is(err, core.ErrEmptyLink),
		errors.Is(err, core.ErrUnknownVideoType),
		errors.Is(err, core.ErrInvalidVideoLink),
		errors.Is(err, core.ErrInvalidDirection),
		errors.Is(err, core.ErrUnknownDownload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *APIService) fail(ctx echo.Context, handler string, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return ctx.JSON(httpErr.Code, errorResponse{Error: fmt.Sprint(httpErr.Message)})
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(handler+": request failed", "status", status, "path", ctx.Request().URL.Path, "error", err)
		return ctx.JSON(status, errorResponse{Error: "Internal error, please try again"})
	}
	slog.Warn(handler+": request rejected", "status", status, "path", ctx.Request().URL.Path, "error", err)
	return ctx.JSON(status, errorResponse{Error: err.Error()})
}

func (s *APIService) readUpload(ctx echo.Context, field string) (*common.UploadedFile, error) {
	file, err := common.ReadFormFile(ctx, field, s.coreService.Config().Upload.MaxBytes)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Failed to get uploaded file")
	}
	return file, nil
}

func (s *APIService) createSessionHandler(ctx echo.Context) error {
	file, err := s.readUpload(ctx, "image")
	if err != nil {
		return s.fail(ctx, "createSessionHandler", err)
	}
	session, err := s.coreService.CreateSession(file.Data, file.ContentType)
	if err != nil {
		return s.fail(ctx, "createSessionHandler", err)
	}
	return ctx.JSON(http.StatusCreated, core.Summarize(session, nil, false))
}

func (s *APIService) getSessionHandler(ctx echo.Context) error {
	summary, err := s.coreService.Summary(ctx.Param("id"), ctx.QueryParam("include") == "data")
	if err != nil {
		return s.fail(ctx, "getSessionHandler", err)
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (s *APIService) deleteSessionHandler(ctx echo.Context) error {
	if err := s.coreService.DeleteSession(ctx.Param("id")); err != nil {
		return s.fail(ctx, "deleteSessionHandler", err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *APIService) replaceImageHandler(ctx echo.Context) error {
	file, err := s.readUpload(ctx, "image")
	if err != nil {
		return s.fail(ctx, "replaceImageHandler", err)
	}
	id := ctx.Param("id")
	if _, err := s.coreService.ReplaceImage(id, file.Data, file.ContentType); err != nil {
		return s.fail(ctx, "replaceImageHandler", err)
	}
	summary, err := s.coreService.Summary(id, false)
	if err != nil {
		return s.fail(ctx, "replaceImageHandler", err)
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (s *APIService) processHandler(ctx echo.Context) error {
	var options core.ProcessOptions
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&options); err != nil {
			return s.fail(ctx, "processHandler", echo.NewHTTPError(http.StatusBadRequest, "Invalid processing options"))
		}
	}
	id := ctx.Param("id")
	if _, err := s.coreService.ProcessImage(id, options); err != nil {
		return s.fail(ctx, "processHandler", err)
	}
	summary, err := s.coreService.Summary(id, false)
	if err != nil {
		return s.fail(ctx, "processHandler", err)
	}
	return ctx.JSON(http.StatusOK, processResponse{
		ProcessedSummary: *summary.Processed,
		Marker:           summary.Marker,
		Status:           summary.Status,
	})
}

func (s *APIService) markerHandler(ctx echo.Context) error {
	marker, err := s.coreService.GenerateMarker(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, "markerHandler", err)
	}
	return ctx.JSON(http.StatusOK, markerResponse{
		MarkerSummary: core.MarkerSummary{
			Quality:      marker.Quality,
			QualityLabel: core.QualityLabel(marker.Quality),
			Size:         marker.Size,
			HasVideo:     marker.HasVideo,
			VideoCount:   len(marker.VideoLinks),
		},
		Status: core.StatusCompleted,
	})
}

func (s *APIService) listLinksHandler(ctx echo.Context) error {
	links, err := s.coreService.ListVideoLinks(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, "listLinksHandler", err)
	}
	return ctx.JSON(http.StatusOK, links)
}

func (s *APIService) bindLink(ctx echo.Context) (core.VideoLinkInput, error) {
	var input core.VideoLinkInput
	if err := ctx.Bind(&input); err != nil {
		return input, echo.NewHTTPError(http.StatusBadRequest, "Invalid video link")
	}
	if err := ctx.Validate(&input); err != nil {
		return input, err
	}
	return input, nil
}

func (s *APIService) addLinkHandler(ctx echo.Context) error {
	input, err := s.bindLink(ctx)
	if err != nil {
		return s.fail(ctx, "addLinkHandler", err)
	}
	link, err := s.coreService.AddVideoLink(ctx.Param("id"), input)
	if err != nil {
		return s.fail(ctx, "addLinkHandler", err)
	}
	return ctx.JSON(http.StatusCreated, link)
}

func (s *APIService) updateLinkHandler(ctx echo.Context) error {
	input, err := s.bindLink(ctx)
	if err != nil {
		return s.fail(ctx, "updateLinkHandler", err)
	}
	link, err := s.coreService.UpdateVideoLink(ctx.Param("id"), ctx.Param("linkId"), input)
	if err != nil {
		return s.fail(ctx, "updateLinkHandler", err)
	}
	return ctx.JSON(http.StatusOK, link)
}

func (s *APIService) deleteLinkHandler(ctx echo.Context) error {
	if err := s.coreService.DeleteVideoLink(ctx.Param("id"), ctx.Param("linkId")); err != nil {
		return s.fail(ctx, "deleteLinkHandler", err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *APIService) moveLinkHandler(ctx echo.Context) error {
	dir, err := core.ParseMoveDirection(ctx.QueryParam("dir"))
	if err != nil {
		return s.fail(ctx, "moveLinkHandler", err)
	}
	links, err := s.coreService.MoveVideoLink(ctx.Param("id"), ctx.Param("linkId"), dir)
	if err != nil {
		return s.fail(ctx, "moveLinkHandler", err)
	}
	return ctx.JSON(http.StatusOK, links)
}

func (s *APIService) downloadHandler(ctx echo.Context) error {
	kind, err := core.ParseDownloadKind(ctx.Param("kind"))
	if err != nil {
		return s.fail(ctx, "downloadHandler", err)
	}
	file, err := s.coreService.Download(ctx.Param("id"), kind)
	if err != nil {
		return s.fail(ctx, "downloadHandler", err)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	return ctx.Blob(http.StatusOK, file.ContentType, file.Data)
}

func (s *APIService) scanHandler(ctx echo.Context) error {
	file, err := s.readUpload(ctx, "frame")
	if err != nil {
		return s.fail(ctx, "scanHandler", err)
	}
	if limit := s.coreService.Config().Upload.MaxBytes; int64(len(file.Data)) > limit {
		return s.fail(ctx, "scanHandler", core.ErrFileTooLarge)
	}
	stats, err := s.coreService.Scan(file.Data)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			err = echo.NewHTTPError(http.StatusBadRequest, "Frame could not be decoded")
		}
		return s.fail(ctx, "scanHandler", err)
	}
	return ctx.JSON(http.StatusOK, stats)
}
