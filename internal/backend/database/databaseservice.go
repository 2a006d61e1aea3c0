package database

type DatabaseService interface {
	CreateDatabase() error
	DoesDatabaseExist() bool
	Close() error

	CreateSession(original []byte, contentType string) (*Session, error)
	// ReplaceOriginalImage swaps the upload and drops processed image and marker.
	// Video links are kept.
	ReplaceOriginalImage(id string, original []byte, contentType string) error
	// GetSessionByID returns nil, nil when the session does not exist
	GetSessionByID(id string) (*Session, error)
	DeleteSession(id string) error
	// SetProcessedImage stores a new processing result and clears the marker
	SetProcessedImage(id string, processed *ProcessedImage) error
	SetMarker(id string, marker *Marker) error

	// CreateVideoLink appends the link after the current last one
	CreateVideoLink(sessionID string, link *VideoLink) (*VideoLink, error)
	UpdateVideoLink(sessionID string, link *VideoLink) error
	DeleteVideoLink(sessionID, linkID string) error
	// GetVideoLinks returns the links ordered by rank
	GetVideoLinks(sessionID string) ([]*VideoLink, error)
	UpdateVideoLinkRanks(sessionID string, ranks map[string]string) error
}
