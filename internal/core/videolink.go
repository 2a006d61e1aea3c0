package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type VideoType string

const (
	VideoTypeYouTube VideoType = "youtube"
	VideoTypeVimeo   VideoType = "vimeo"
	VideoTypeDirect  VideoType = "direct"
	VideoTypeLocal   VideoType = "local"
)

var (
	ErrEmptyLink        = errors.New("video link is empty")
	ErrUnknownVideoType = errors.New("unknown video type")
	ErrInvalidVideoLink = errors.New("video link does not match its type")
	ErrInvalidDirection = errors.New("move direction must be up or down")
)

var videoLinkPatterns = map[VideoType]*regexp.Regexp{
	VideoTypeYouTube: regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	VideoTypeVimeo:   regexp.MustCompile(`^(https?://)?(www\.)?(vimeo\.com/)(\d+)`),
	VideoTypeDirect:  regexp.MustCompile(`^https?://.+`),
}

// VideoTypes lists the selectable types in display order
func VideoTypes() []VideoType {
	return []VideoType{VideoTypeYouTube, VideoTypeVimeo, VideoTypeDirect, VideoTypeLocal}
}

func (t VideoType) Label() string {
	switch t {
	case VideoTypeYouTube:
		return "YouTube"
	case VideoTypeVimeo:
		return "Vimeo"
	case VideoTypeDirect:
		return "Direct link"
	case VideoTypeLocal:
		return "Local file"
	default:
		return string(t)
	}
}

func ParseVideoType(s string) (VideoType, error) {
	t := VideoType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range VideoTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVideoType, s)
}

// ValidateVideoLink checks link against the pattern of its type. Local links only
// need to be non-empty.
func ValidateVideoLink(link string, t VideoType) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return ErrEmptyLink
	}
	if t == VideoTypeLocal {
		return nil
	}
	pattern, ok := videoLinkPatterns[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVideoType, t)
	}
	if !pattern.MatchString(link) {
		return fmt.Errorf("%w: %s is not a valid %s link", ErrInvalidVideoLink, link, t.Label())
	}
	return nil
}

// DefaultVideoTitle names an untitled link by its 1-based position
func DefaultVideoTitle(position int) string {
	return fmt.Sprintf("Video %d", position)
}

// VideoLinkInput is the add/edit form
type VideoLinkInput struct {
	Title string `json:"title" form:"title" validate:"max=200"`
	URL   string `json:"url" form:"url" validate:"required"`
	Type  string `json:"type" form:"type" validate:"required"`
}

// MoveDirection is "up" (towards the front) or "down"
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

func ParseMoveDirection(s string) (MoveDirection, error) {
	switch d := MoveDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case MoveUp, MoveDown:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// moveInOrder swaps id with its neighbour. Moving the first link up or the last
// link down leaves the order unchanged.
func moveInOrder(order []string, id string, dir MoveDirection) ([]string, error) {
	idx := -1
	for i := range order {
		if order[i] == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrVideoLinkNotFound
	}

	moved := append([]string(nil), order...)
	switch dir {
	case MoveUp:
		if idx > 0 {
			moved[idx], moved[idx-1] = moved[idx-1], moved[idx]
		}
	case MoveDown:
		if idx < len(moved)-1 {
			moved[idx], moved[idx+1] = moved[idx+1], moved[idx]
		}
	default:
		return nil, ErrInvalidDirection
	}
	return moved, nil
}
