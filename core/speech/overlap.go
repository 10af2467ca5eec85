package speech

// OverlapLength returns the length of the longest suffix of existing that is
// also a prefix of incoming. Larger overlaps are tried first so a server that
// re-sends the tail of the previous chunk gets the whole repeat removed.
//
// Both arguments are valid UTF-8, so a byte match always starts and ends on
// rune boundaries.
func OverlapLength(existing, incoming string) int {
	maxOverlap := min(len(existing), len(incoming))
	for size := maxOverlap; size > 0; size-- {
		if existing[len(existing)-size:] == incoming[:size] {
			return size
		}
	}
	return 0
}

// TrimOverlap returns the part of incoming that is not already present at the
// end of existing.
func TrimOverlap(existing, incoming string) string {
	return incoming[OverlapLength(existing, incoming):]
}
