package database

import "strings"

// Ranks are strings over '0'..'z' compared byte-wise. New ranks are produced
// between two neighbours so moving one link only rewrites that link's rank.
const (
	minChar = '0'
	maxChar = 'z'
	midChar = 'U'
)

// Next returns a rank sorting after prev. An empty prev starts the sequence.
func Next(prev string) string {
	return prev + string(rune(midChar))
}

// IsBetween reports prev < rank < next. Empty bounds are open; with both bounds
// empty it reports false so callers always assign a fresh rank.
func IsBetween(prev, rank, next string) bool {
	switch {
	case prev == "" && next == "":
		return false
	case prev == "":
		return strings.Compare(rank, next) < 0
	case next == "":
		return strings.Compare(prev, rank) < 0
	default:
		return strings.Compare(prev, rank) < 0 && strings.Compare(rank, next) < 0
	}
}

// Between returns a rank strictly between prev and next. An empty next means no
// upper bound, an empty prev means no lower bound.
func Between(prev, next string) string {
	if next == "" {
		return Next(prev)
	}

	var out []byte
	for i := 0; ; i++ {
		lo := byte(minChar)
		if i < len(prev) {
			lo = prev[i]
		}
		hi := byte(maxChar)
		if i < len(next) {
			hi = next[i]
		}

		switch {
		case lo == hi:
			out = append(out, lo)
		case lo+1 < hi:
			return string(append(out, lo+(hi-lo)/2))
		default:
			// adjacent characters, go one position deeper
			out = append(out, lo)
		}
	}
}

// Reorder assigns ranks so that order sorts ascending. existing maps id to current
// rank; only ids whose rank has to change are returned.
func Reorder(existing map[string]string, order []string) map[string]string {
	updates := make(map[string]string, len(order))
	rankOf := func(id string) string {
		if r, ok := updates[id]; ok {
			return r
		}
		return existing[id]
	}

	for i, id := range order {
		prev, next := "", ""
		if i > 0 {
			prev = rankOf(order[i-1])
		}
		if i+1 < len(order) {
			next = rankOf(order[i+1])
		}

		current := existing[id]
		if current != "" && IsBetween(prev, current, next) {
			continue
		}
		updates[id] = Between(prev, next)
	}
	return updates
}
