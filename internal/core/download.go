package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/arconverter/internal/artifacts"
	"github.com/jo-hoe/arconverter/internal/backend/commands"
	"github.com/jo-hoe/arconverter/internal/backend/database"
)

type DownloadKind string

const (
	DownloadProcessed DownloadKind = "processed"
	DownloadMarker    DownloadKind = "marker"
	DownloadPlayer    DownloadKind = "player"
	DownloadGuide     DownloadKind = "guide"
	DownloadPackage   DownloadKind = "package"
	DownloadPDF       DownloadKind = "pdf"
	DownloadBundle    DownloadKind = "bundle"
)

func DownloadKinds() []DownloadKind {
	return []DownloadKind{DownloadProcessed, DownloadMarker, DownloadPlayer, DownloadGuide, DownloadPackage, DownloadPDF, DownloadBundle}
}

func ParseDownloadKind(s string) (DownloadKind, error) {
	for _, k := range DownloadKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDownload, s)
}

// Download renders one artifact of a session
func (service *CoreService) Download(id string, kind DownloadKind) (artifacts.File, error) {
	session, err := service.GetSession(id)
	if err != nil {
		return artifacts.File{}, err
	}
	links, err := service.databaseService.GetVideoLinks(id)
	if err != nil {
		return artifacts.File{}, fmt.Errorf("failed to load video links: %w", err)
	}

	file, err := service.render(session, toArtifactLinks(links), kind)
	if err != nil {
		return artifacts.File{}, err
	}
	slog.Info("CoreService: artifact downloaded", "session_id", id, "kind", kind, "file", file.Name, "size_bytes", len(file.Data))
	return file, nil
}

func (service *CoreService) render(session *database.Session, links []artifacts.Link, kind DownloadKind) (artifacts.File, error) {
	now := service.now()
	switch kind {
	case DownloadProcessed:
		if session.Processed == nil {
			return artifacts.File{}, ErrNotProcessed
		}
		p := session.Processed
		return artifacts.ProcessedImageFile(p.Data, p.Format, commands.MimeType(p.Format), now), nil
	case DownloadMarker:
		if session.Marker == nil {
			return artifacts.File{}, ErrNoMarker
		}
		return artifacts.MarkerImageFile(session.Marker.Data, now), nil
	case DownloadPlayer:
		return artifacts.PlayerHTML(links)
	case DownloadGuide:
		return artifacts.UsageGuide(guideData(session, links))
	case DownloadPackage:
		return artifacts.PackageInfo(packageData(session, links, now))
	case DownloadPDF:
		if session.Marker == nil {
			return artifacts.File{}, ErrNoMarker
		}
		return artifacts.MarkerPDF(session.Marker.Data)
	case DownloadBundle:
		return service.bundle(session, links)
	default:
		return artifacts.File{}, fmt.Errorf("%w: %q", ErrUnknownDownload, kind)
	}
}

// bundle packs whatever the session has produced so far. The marker keeps the
// fixed name the player page refers to.
func (service *CoreService) bundle(session *database.Session, links []artifacts.Link) (artifacts.File, error) {
	now := service.now()
	var files []artifacts.File

	if session.Processed != nil {
		p := session.Processed
		processed := artifacts.ProcessedImageFile(p.Data, p.Format, commands.MimeType(p.Format), now)
		processed.Name = "processed-image." + p.Format
		files = append(files, processed)
	}
	if session.Marker != nil {
		marker := artifacts.MarkerImageFile(session.Marker.Data, now)
		marker.Name = artifacts.MarkerFileName
		pdf, err := artifacts.MarkerPDF(session.Marker.Data)
		if err != nil {
			return artifacts.File{}, err
		}
		files = append(files, marker, pdf)
	}
	if len(links) > 0 {
		player, err := artifacts.PlayerHTML(links)
		if err != nil {
			return artifacts.File{}, err
		}
		files = append(files, player)
	}

	guide, err := artifacts.UsageGuide(guideData(session, links))
	if err != nil {
		return artifacts.File{}, err
	}
	info, err := artifacts.PackageInfo(packageData(session, links, now))
	if err != nil {
		return artifacts.File{}, err
	}
	files = append(files, guide, info)

	return artifacts.Bundle(files, now)
}

func guideData(session *database.Session, links []artifacts.Link) artifacts.GuideData {
	data := artifacts.GuideData{Links: links}
	if session.Processed != nil {
		data.ProcessedSize = session.Processed.Size
	}
	if session.Marker != nil {
		data.MarkerQuality = session.Marker.Quality
		data.MarkerSize = session.Marker.Size
	}
	return data
}

func packageData(session *database.Session, links []artifacts.Link, now time.Time) artifacts.PackageData {
	data := artifacts.PackageData{CreatedAt: now, Links: links}
	if session.Processed != nil {
		data.ProcessedFormat = session.Processed.Format
	}
	return data
}
