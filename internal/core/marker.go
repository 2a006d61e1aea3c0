package core

const (
	MinMarkerQuality = 60
	MaxMarkerQuality = 100
)

// markerQuality draws a score in [60, 100). It is shown to the user and has no
// effect on the marker image.
func markerQuality(intn func(n int) int) int {
	return MinMarkerQuality + intn(MaxMarkerQuality-MinMarkerQuality)
}

func QualityLabel(quality int) string {
	switch {
	case quality >= 80:
		return "excellent"
	case quality >= 60:
		return "good"
	default:
		return "fair"
	}
}
