package core

import "github.com/jo-hoe/arconverter/internal/backend/database"

type ProcessingStatus string

const (
	StatusIdle      ProcessingStatus = "idle"
	StatusUploaded  ProcessingStatus = "uploaded"
	StatusProcessed ProcessingStatus = "processed"
	StatusCompleted ProcessingStatus = "completed"
)

// StatusOf derives the processing stage from what a session holds
func StatusOf(session *database.Session) ProcessingStatus {
	switch {
	case session == nil:
		return StatusIdle
	case session.Marker != nil:
		return StatusCompleted
	case session.Processed != nil:
		return StatusProcessed
	default:
		return StatusUploaded
	}
}
