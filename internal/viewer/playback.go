package viewer

import "regexp"

type ActionKind string

const (
	// ActionPlayLocal plays VideoPath on the tracked surface and stops every id in Stop
	ActionPlayLocal ActionKind = "local"
	// ActionOpenYouTube offers the YouTube link in a new tab
	ActionOpenYouTube ActionKind = "youtube"
	// ActionNone means nothing is mapped or the mapping cannot be played
	ActionNone ActionKind = "none"
	// ActionHideControls is the answer to a lost target
	ActionHideControls ActionKind = "hide-controls"
)

type Action struct {
	Kind        ActionKind `json:"kind"`
	TargetIndex int        `json:"targetIndex"`
	MappingID   string     `json:"mappingId,omitempty"`
	VideoPath   string     `json:"videoPath,omitempty"`
	YouTubeURL  string     `json:"youtubeUrl,omitempty"`
	YouTubeID   string     `json:"youtubeId,omitempty"`
	Stop        []string   `json:"stop,omitempty"`
	Status      string     `json:"status"`
}

var youTubeIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`)

func extractYouTubeID(url string) string {
	if m := youTubeIDPattern.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}
	return ""
}

// OnTargetFound decides what the viewer does when the tracker reports index
func (m *MappingFile) OnTargetFound(index int) Action {
	mapping, ok := m.FindByTargetIndex(index)
	if !ok {
		return Action{Kind: ActionNone, TargetIndex: index, Status: "No video mapped to this target"}
	}

	if mapping.VideoPath != "" {
		var stop []string
		for _, other := range m.PhotoVideoMapping {
			if other.ID != mapping.ID && other.VideoPath != "" {
				stop = append(stop, other.ID)
			}
		}
		return Action{
			Kind:        ActionPlayLocal,
			TargetIndex: index,
			MappingID:   mapping.ID,
			VideoPath:   mapping.VideoPath,
			Stop:        stop,
			Status:      mapping.ID + " detected",
		}
	}

	if id := extractYouTubeID(mapping.YouTubeURL); id != "" {
		return Action{
			Kind:        ActionOpenYouTube,
			TargetIndex: index,
			MappingID:   mapping.ID,
			YouTubeURL:  mapping.YouTubeURL,
			YouTubeID:   id,
			Status:      mapping.ID + " detected",
		}
	}
	return Action{Kind: ActionNone, TargetIndex: index, MappingID: mapping.ID, Status: mapping.ID + " has no playable video"}
}

// OnTargetLost hides the controls; playback is left running
func (m *MappingFile) OnTargetLost(index int) Action {
	action := Action{Kind: ActionHideControls, TargetIndex: index, Status: "Searching for target..."}
	if mapping, ok := m.FindByTargetIndex(index); ok {
		action.MappingID = mapping.ID
	}
	return action
}
