package core

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/jo-hoe/arconverter/internal/artifacts"
	"github.com/jo-hoe/arconverter/internal/backend/commands"
	"github.com/jo-hoe/arconverter/internal/backend/commandstructure"
	"github.com/jo-hoe/arconverter/internal/backend/database"
	"github.com/jo-hoe/arconverter/internal/scanner"
)

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	scanner         *scanner.Scanner
	intn            func(n int) int
	now             func() time.Time
}

func NewCoreService(config *ServiceConfig) *CoreService {
	databaseService, err := getDatabaseService(config)
	if err != nil {
		slog.Error("CoreService: failed to initialize database service", "error", err)
		panic(err)
	}
	return NewCoreServiceWithDatabase(config, databaseService)
}

// NewCoreServiceWithDatabase wires an already opened store
func NewCoreServiceWithDatabase(config *ServiceConfig, databaseService database.DatabaseService) *CoreService {
	return &CoreService{
		config:          config,
		databaseService: databaseService,
		scanner: scanner.NewScanner(scanner.Thresholds{
			Brightness: config.Scanner.BrightnessThreshold,
			Contrast:   config.Scanner.ContrastThreshold,
		}),
		intn: rand.IntN,
		now:  time.Now,
	}
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString, config.Database.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("CoreService: database initialized", "type", config.Database.Type)
	return databaseService, nil
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

func (service *CoreService) Close() error {
	return service.databaseService.Close()
}

// CreateSession validates an upload and stores it as the original of a new session
func (service *CoreService) CreateSession(image []byte, contentType string) (*database.Session, error) {
	contentType, err := service.checkUpload(image, contentType)
	if err != nil {
		return nil, err
	}
	session, err := service.databaseService.CreateSession(image, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	slog.Info("CoreService: session created", "session_id", session.ID, "content_type", session.OriginalContentType, "size_bytes", len(image))
	return session, nil
}

// ReplaceImage swaps the original; processed image and marker are dropped, links stay
func (service *CoreService) ReplaceImage(id string, image []byte, contentType string) (*database.Session, error) {
	contentType, err := service.checkUpload(image, contentType)
	if err != nil {
		return nil, err
	}
	if err := service.databaseService.ReplaceOriginalImage(id, image, contentType); err != nil {
		return nil, fmt.Errorf("failed to replace image of session %s: %w", id, err)
	}
	slog.Info("CoreService: original image replaced", "session_id", id, "size_bytes", len(image))
	return service.GetSession(id)
}

// checkUpload validates the declared type and size, then sniffs the bytes. The
// returned content type is the detected one.
func (service *CoreService) checkUpload(image []byte, declared string) (string, error) {
	if err := ValidateUpload(declared, int64(len(image)), service.config.Upload.MaxBytes); err != nil {
		return "", err
	}
	return DetectImage(image, service.config.Upload.MaxPixels)
}

func (service *CoreService) GetSession(id string) (*database.Session, error) {
	session, err := service.databaseService.GetSessionByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (service *CoreService) DeleteSession(id string) error {
	if err := service.databaseService.DeleteSession(id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	slog.Info("CoreService: session deleted", "session_id", id)
	return nil
}

// ProcessImage runs the original through crop, scale, the configured adjustments
// and the output encoder, then renders a fresh marker from the result. A failed
// marker render leaves the session processed; GenerateMarker can retry it.
func (service *CoreService) ProcessImage(id string, options ProcessOptions) (*database.ProcessedImage, error) {
	options = options.Normalize()
	if err := options.Validate(); err != nil {
		return nil, err
	}
	session, err := service.GetSession(id)
	if err != nil {
		return nil, err
	}

	invoker, err := commandstructure.NewCommandInvokerFromConfigs(commandstructure.DefaultRegistry, options.pipeline(service.config.Processing.Commands))
	if err != nil {
		return nil, fmt.Errorf("failed to build processing pipeline: %w", err)
	}
	data, err := invoker.Execute(session.OriginalImage)
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	processed := &database.ProcessedImage{
		Data:    data,
		Size:    options.Size,
		Format:  options.Format,
		Quality: options.Quality,
	}
	if err := service.databaseService.SetProcessedImage(id, processed); err != nil {
		return nil, fmt.Errorf("failed to store processed image: %w", err)
	}
	slog.Info("CoreService: image processed", "session_id", id, "size", options.Size, "format", options.Format, "quality", options.Quality)

	session.Processed = processed
	if _, err := service.renderMarker(session, markerQuality(service.intn)); err != nil {
		slog.Warn("CoreService: marker generation after processing failed", "session_id", id, "error", err)
	}
	return processed, nil
}

// GenerateMarker frames the processed image and snapshots the current links
func (service *CoreService) GenerateMarker(id string) (*database.Marker, error) {
	session, err := service.GetSession(id)
	if err != nil {
		return nil, err
	}
	if session.Processed == nil {
		return nil, ErrNotProcessed
	}
	return service.renderMarker(session, markerQuality(service.intn))
}

func (service *CoreService) renderMarker(session *database.Session, quality int) (*database.Marker, error) {
	links, err := service.databaseService.GetVideoLinks(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load video links: %w", err)
	}

	data, err := commandstructure.ExecuteCommands(session.Processed.Data, []commandstructure.CommandConfig{
		{Name: "MarkerCommand", Params: map[string]any{"hasVideo": len(links) > 0}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render marker: %w", err)
	}

	snapshot := make([]database.VideoLink, len(links))
	for i, link := range links {
		snapshot[i] = *link
	}
	marker := &database.Marker{
		Data:       data,
		Quality:    quality,
		Size:       commands.MarkerSize,
		HasVideo:   len(links) > 0,
		VideoLinks: snapshot,
	}
	if err := service.databaseService.SetMarker(session.ID, marker); err != nil {
		return nil, fmt.Errorf("failed to store marker: %w", err)
	}
	slog.Info("CoreService: marker generated", "session_id", session.ID, "quality", quality, "video_links", len(links))
	return marker, nil
}

// refreshMarker re-renders an existing marker after the link list changed. The
// quality score is kept. The link change is already stored, so a failed render
// is only logged and the previous marker stays in place.
func (service *CoreService) refreshMarker(id string) {
	session, err := service.GetSession(id)
	if err == nil && (session.Marker == nil || session.Processed == nil) {
		return
	}
	if err == nil {
		_, err = service.renderMarker(session, session.Marker.Quality)
	}
	if err != nil {
		slog.Warn("CoreService: failed to refresh marker after link change", "session_id", id, "error", err)
	}
}

func (service *CoreService) ListVideoLinks(id string) ([]*database.VideoLink, error) {
	if _, err := service.GetSession(id); err != nil {
		return nil, err
	}
	links, err := service.databaseService.GetVideoLinks(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load video links: %w", err)
	}
	return links, nil
}

// AddVideoLink validates and appends a link. A blank title becomes "Video N".
func (service *CoreService) AddVideoLink(id string, input VideoLinkInput) (*database.VideoLink, error) {
	videoType, err := ParseVideoType(input.Type)
	if err != nil {
		return nil, err
	}
	url := strings.TrimSpace(input.URL)
	if err := ValidateVideoLink(url, videoType); err != nil {
		return nil, err
	}
	existing, err := service.ListVideoLinks(id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultVideoTitle(len(existing) + 1)
	}
	link, err := service.databaseService.CreateVideoLink(id, &database.VideoLink{
		Title:     title,
		URL:       url,
		Type:      string(videoType),
		CreatedAt: service.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add video link: %w", err)
	}
	slog.Info("CoreService: video link added", "session_id", id, "link_id", link.ID, "type", link.Type)
	service.refreshMarker(id)
	return link, nil
}

func (service *CoreService) UpdateVideoLink(id, linkID string, input VideoLinkInput) (*database.VideoLink, error) {
	videoType, err := ParseVideoType(input.Type)
	if err != nil {
		return nil, err
	}
	url := strings.TrimSpace(input.URL)
	if err := ValidateVideoLink(url, videoType); err != nil {
		return nil, err
	}
	links, err := service.ListVideoLinks(id)
	if err != nil {
		return nil, err
	}

	var current *database.VideoLink
	position := 0
	for i, link := range links {
		if link.ID == linkID {
			current, position = link, i+1
			break
		}
	}
	if current == nil {
		return nil, ErrVideoLinkNotFound
	}

	current.Title = strings.TrimSpace(input.Title)
	if current.Title == "" {
		current.Title = DefaultVideoTitle(position)
	}
	current.URL = url
	current.Type = string(videoType)
	if err := service.databaseService.UpdateVideoLink(id, current); err != nil {
		return nil, fmt.Errorf("failed to update video link: %w", err)
	}
	slog.Info("CoreService: video link updated", "session_id", id, "link_id", linkID)
	service.refreshMarker(id)
	return current, nil
}

func (service *CoreService) DeleteVideoLink(id, linkID string) error {
	if _, err := service.GetSession(id); err != nil {
		return err
	}
	if err := service.databaseService.DeleteVideoLink(id, linkID); err != nil {
		return fmt.Errorf("failed to delete video link: %w", err)
	}
	slog.Info("CoreService: video link deleted", "session_id", id, "link_id", linkID)
	service.refreshMarker(id)
	return nil
}

// MoveVideoLink swaps a link with its neighbour and returns the new order.
// Moving past either end changes nothing.
func (service *CoreService) MoveVideoLink(id, linkID string, direction MoveDirection) ([]*database.VideoLink, error) {
	links, err := service.ListVideoLinks(id)
	if err != nil {
		return nil, err
	}

	order := make([]string, len(links))
	ranks := make(map[string]string, len(links))
	for i, link := range links {
		order[i] = link.ID
		ranks[link.ID] = link.Rank
	}
	moved, err := moveInOrder(order, linkID, direction)
	if err != nil {
		return nil, err
	}
	if slices.Equal(order, moved) {
		return links, nil
	}

	changed := database.Reorder(ranks, moved)
	if len(changed) == 0 {
		return links, nil
	}
	if err := service.databaseService.UpdateVideoLinkRanks(id, changed); err != nil {
		return nil, fmt.Errorf("failed to reorder video links: %w", err)
	}
	slog.Debug("CoreService: video link moved", "session_id", id, "link_id", linkID, "direction", direction, "ranks_changed", len(changed))

	service.refreshMarker(id)
	return service.databaseService.GetVideoLinks(id)
}

// Scan runs the brightness/contrast heuristic on one camera frame
func (service *CoreService) Scan(frame []byte) (scanner.FrameStats, error) {
	if len(frame) == 0 {
		return scanner.FrameStats{}, ErrEmptyFile
	}
	return service.scanner.Analyze(frame)
}

// Thumbnail scales an image down to the configured preview width
func (service *CoreService) Thumbnail(image []byte) ([]byte, error) {
	return commandstructure.ExecuteCommands(image, []commandstructure.CommandConfig{
		{Name: "PngConverterCommand", Params: map[string]any{}},
		{Name: "PixelScaleCommand", Params: map[string]any{"width": service.config.ThumbnailWidth}},
	})
}

func toArtifactLinks(links []*database.VideoLink) []artifacts.Link {
	out := make([]artifacts.Link, len(links))
	for i, link := range links {
		out[i] = artifacts.Link{
			Title:   link.Title,
			Type:    link.Type,
			URL:     link.URL,
			AddedAt: link.CreatedAt,
		}
	}
	return out
}
