package core

import (
	"encoding/base64"
	"time"

	"github.com/jo-hoe/arconverter/internal/backend/commands"
	"github.com/jo-hoe/arconverter/internal/backend/database"
)

// SessionSummary is the API view of a session. Image bytes are only included as
// data URIs when asked for.
type SessionSummary struct {
	ID                  string                `json:"id"`
	Status              ProcessingStatus      `json:"status"`
	OriginalContentType string                `json:"originalContentType"`
	OriginalDataURI     string                `json:"originalDataUri,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
	Processed           *ProcessedSummary     `json:"processed,omitempty"`
	Marker              *MarkerSummary        `json:"marker,omitempty"`
	VideoLinks          []*database.VideoLink `json:"videoLinks"`
}

type ProcessedSummary struct {
	Size    int    `json:"size"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
	DataURI string `json:"dataUri,omitempty"`
}

type MarkerSummary struct {
	Quality      int    `json:"quality"`
	QualityLabel string `json:"qualityLabel"`
	Size         int    `json:"size"`
	HasVideo     bool   `json:"hasVideo"`
	VideoCount   int    `json:"videoCount"`
	DataURI      string `json:"dataUri,omitempty"`
}

func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Summary loads a session with its links
func (service *CoreService) Summary(id string, withData bool) (*SessionSummary, error) {
	session, err := service.GetSession(id)
	if err != nil {
		return nil, err
	}
	links, err := service.databaseService.GetVideoLinks(id)
	if err != nil {
		return nil, err
	}
	return Summarize(session, links, withData), nil
}

func Summarize(session *database.Session, links []*database.VideoLink, withData bool) *SessionSummary {
	if links == nil {
		links = []*database.VideoLink{}
	}
	summary := &SessionSummary{
		ID:                  session.ID,
		Status:              StatusOf(session),
		OriginalContentType: session.OriginalContentType,
		CreatedAt:           session.CreatedAt,
		VideoLinks:          links,
	}
	if withData {
		summary.OriginalDataURI = DataURI(session.OriginalContentType, session.OriginalImage)
	}
	if p := session.Processed; p != nil {
		summary.Processed = &ProcessedSummary{Size: p.Size, Format: p.Format, Quality: p.Quality}
		if withData {
			summary.Processed.DataURI = DataURI(commands.MimeType(p.Format), p.Data)
		}
	}
	if m := session.Marker; m != nil {
		summary.Marker = &MarkerSummary{
			Quality:      m.Quality,
			QualityLabel: QualityLabel(m.Quality),
			Size:         m.Size,
			HasVideo:     m.HasVideo,
			VideoCount:   len(m.VideoLinks),
		}
		if withData {
			summary.Marker.DataURI = DataURI("image/png", m.Data)
		}
	}
	return summary
}
