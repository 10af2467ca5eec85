package speech

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segment is a trimmed piece of reply text that is ready to be spoken. End is
// the byte offset in the source text right after the boundary that closed
// the segment; it becomes the new speech cursor.
type Segment struct {
	Text string
	End  int
}

// ExtractSegments scans text from start and returns every segment that has
// been closed by a sentence terminator or a newline since then.
//
// A terminator (. ! ?) also swallows the whitespace and closing punctuation
// that directly follows it, so "Really?!\" " closes as one boundary. The
// unterminated tail is never returned; callers flush it with [Remainder] once
// the reply is complete.
//
// Offsets are byte offsets. Terminators and newlines are ASCII so they can
// never match inside a multi-byte rune.
func ExtractSegments(text string, start int) []Segment {
	start = clampCursor(text, start)

	var segments []Segment
	idx := start
	for idx < len(text) {
		switch c := text[idx]; {
		case isTerminator(c):
			end := absorbBoundary(text, idx+1)
			if segment := strings.TrimSpace(text[start:end]); segment != "" {
				segments = append(segments, Segment{Text: segment, End: end})
			}
			start = end
			idx = end

		case c == '\n':
			if segment := strings.TrimSpace(text[start:idx]); segment != "" {
				segments = append(segments, Segment{Text: segment, End: idx + 1})
			}
			start = idx + 1
			idx = start

		default:
			idx++
		}
	}

	return segments
}

// Remainder returns the text after cursor that has not been closed by any
// boundary yet. It is empty when only whitespace is pending.
func Remainder(text string, cursor int) string {
	cursor = clampCursor(text, cursor)
	return strings.TrimSpace(text[cursor:])
}

func absorbBoundary(text string, end int) int {
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if !unicode.IsSpace(r) && !isClosingPunctuation(r) {
			break
		}
		end += size
	}
	return end
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isClosingPunctuation(r rune) bool {
	return strings.ContainsRune(`.:;!?)*"`, r)
}

func clampCursor(text string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > len(text) {
		return len(text)
	}
	return cursor
}
