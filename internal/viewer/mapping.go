package viewer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

const (
	DefaultTargetImageSrc = "./assets/targets.mind"
	DefaultCameraFacing   = "environment"
	defaultYouTubeURL     = "https://www.youtube.com/watch?v=MX_UceuxveA"
)

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type VideoSettings struct {
	Autoplay    bool    `json:"autoplay"`
	Muted       bool    `json:"muted"`
	Loop        bool    `json:"loop"`
	Playsinline bool    `json:"playsinline"`
	Position    Vector3 `json:"position"`
	Rotation    Vector3 `json:"rotation"`
	Scale       Vector3 `json:"scale"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// PhotoVideoMapping binds a compiled target index to a video. VideoPath wins over
// YouTubeURL when both are set.
type PhotoVideoMapping struct {
	ID            string        `json:"id"`
	TargetIndex   int           `json:"targetIndex"`
	VideoPath     string        `json:"videoPath,omitempty"`
	YouTubeURL    string        `json:"youtubeUrl,omitempty"`
	VideoSettings VideoSettings `json:"videoSettings"`
}

type ARSettings struct {
	TargetImageSrc string `json:"targetImageSrc"`
	CameraFacing   string `json:"cameraFacing"`
}

type MappingFile struct {
	PhotoVideoMapping []PhotoVideoMapping      `json:"photoVideoMapping"`
	ARSettings        ARSettings               `json:"arSettings"`
	VideoPresets      map[string]VideoSettings `json:"videoPresets"`
}

func defaultVideoSettings() VideoSettings {
	return VideoSettings{
		Autoplay:    true,
		Muted:       true,
		Loop:        true,
		Playsinline: true,
		Position:    Vector3{X: 0, Y: 0, Z: 0},
		Rotation:    Vector3{X: -90, Y: 0, Z: 0},
		Scale:       Vector3{X: 1, Y: 0.5625, Z: 1},
		Width:       1,
		Height:      0.5625,
	}
}

func defaultARSettings() ARSettings {
	return ARSettings{TargetImageSrc: DefaultTargetImageSrc, CameraFacing: DefaultCameraFacing}
}

// DefaultMapping is served whenever no usable mapping file exists
func DefaultMapping() *MappingFile {
	return &MappingFile{
		PhotoVideoMapping: []PhotoVideoMapping{{
			ID:            "default1",
			TargetIndex:   0,
			YouTubeURL:    defaultYouTubeURL,
			VideoSettings: defaultVideoSettings(),
		}},
		ARSettings:   defaultARSettings(),
		VideoPresets: map[string]VideoSettings{},
	}
}

var ErrEmptyMapping = errors.New("mapping file contains no photo-video mappings")

// ParseMapping decodes a mapping file and fills missing AR settings
func ParseMapping(data []byte) (*MappingFile, error) {
	var m MappingFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	if len(m.PhotoVideoMapping) == 0 {
		return nil, ErrEmptyMapping
	}
	if m.ARSettings.TargetImageSrc == "" {
		m.ARSettings.TargetImageSrc = DefaultTargetImageSrc
	}
	if m.ARSettings.CameraFacing == "" {
		m.ARSettings.CameraFacing = DefaultCameraFacing
	}
	if m.VideoPresets == nil {
		m.VideoPresets = map[string]VideoSettings{}
	}
	return &m, nil
}

// LoadMapping reads the mapping file at path. Any failure falls back to
// DefaultMapping; the second return value reports whether the file was used.
func LoadMapping(path string) (*MappingFile, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Viewer: mapping file not readable, using default mapping", "path", path, "error", err)
		return DefaultMapping(), false
	}
	m, err := ParseMapping(data)
	if err != nil {
		slog.Warn("Viewer: mapping file invalid, using default mapping", "path", path, "error", err)
		return DefaultMapping(), false
	}
	slog.Debug("Viewer: loaded mapping file", "path", path, "mappings", len(m.PhotoVideoMapping))
	return m, true
}

// FindByTargetIndex returns the first mapping for index
func (m *MappingFile) FindByTargetIndex(index int) (*PhotoVideoMapping, bool) {
	for i := range m.PhotoVideoMapping {
		if m.PhotoVideoMapping[i].TargetIndex == index {
			return &m.PhotoVideoMapping[i], true
		}
	}
	return nil, false
}
