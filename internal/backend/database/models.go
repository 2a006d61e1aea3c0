package database

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrVideoLinkNotFound = errors.New("video link not found")
)

// Session is one upload and everything derived from it
type Session struct {
	ID                  string
	OriginalImage       []byte
	OriginalContentType string
	Processed           *ProcessedImage
	Marker              *Marker
	CreatedAt           time.Time
}

// ProcessedImage is the output of the adjustment pipeline
type ProcessedImage struct {
	Data    []byte `json:"data"`
	Size    int    `json:"size"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
}

// Marker keeps a snapshot of the video links that existed when it was drawn
type Marker struct {
	Data       []byte      `json:"data"`
	Quality    int         `json:"quality"`
	Size       int         `json:"size"`
	HasVideo   bool        `json:"hasVideo"`
	VideoLinks []VideoLink `json:"videoLinks"`
}

type VideoLink struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	Rank      string    `json:"rank"`
}
