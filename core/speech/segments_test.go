package speech

import (
	"slices"
	"strings"
	"testing"
)

func TestExtractSegmentsSplitsOnTerminatorsAndNewlines(t *testing.T) {
	text := "Hello world. How are you?\nI am fine"

	got := ExtractSegments(text, 0)
	want := []Segment{
		{Text: "Hello world.", End: 13},
		{Text: "How are you?", End: 26},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("expected segments %v, got %v", want, got)
	}

	if rest := Remainder(text, got[len(got)-1].End); rest != "I am fine" {
		t.Fatalf("expected remainder %q, got %q", "I am fine", rest)
	}
}

func TestExtractSegmentsAbsorbsClosingPunctuation(t *testing.T) {
	text := `She said "Really?!" (twice.) Then left`

	got := ExtractSegments(text, 0)
	want := []Segment{
		{Text: `She said "Really?!"`, End: 20},
		{Text: "(twice.)", End: 29},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("expected segments %v, got %v", want, got)
	}
}

func TestExtractSegmentsSkipsBlankLines(t *testing.T) {
	text := "\n\n  \nFirst line\n\nSecond"

	got := ExtractSegments(text, 0)
	if len(got) != 1 {
		t.Fatalf("expected one segment, got %v", got)
	}
	if got[0].Text != "First line" {
		t.Fatalf("expected segment %q, got %q", "First line", got[0].Text)
	}
	if got[0].End != 16 {
		t.Fatalf("expected cursor 16, got %d", got[0].End)
	}
}

func TestExtractSegmentsStartsFromCursor(t *testing.T) {
	text := "One. Two. Three"

	got := ExtractSegments(text, 5)
	want := []Segment{{Text: "Two.", End: 10}}
	if !slices.Equal(got, want) {
		t.Fatalf("expected segments %v, got %v", want, got)
	}
}

func TestExtractSegmentsClampsOutOfRangeCursor(t *testing.T) {
	if got := ExtractSegments("Hi.", 10); len(got) != 0 {
		t.Fatalf("expected no segments past the end, got %v", got)
	}
	if got := ExtractSegments("Hi.", -4); len(got) != 1 || got[0].End != 3 {
		t.Fatalf("expected negative cursor to scan from 0, got %v", got)
	}
}

func TestExtractSegmentsHandlesMultibyteText(t *testing.T) {
	text := "Ça va? Très bien ! Merci"

	got := ExtractSegments(text, 0)
	if len(got) != 2 {
		t.Fatalf("expected two segments, got %v", got)
	}
	if got[0].Text != "Ça va?" || got[1].Text != "Très bien !" {
		t.Fatalf("unexpected segments %v", got)
	}
	if rest := Remainder(text, got[1].End); rest != "Merci" {
		t.Fatalf("expected remainder %q, got %q", "Merci", rest)
	}
}

func TestExtractSegmentsCursorsStrictlyIncrease(t *testing.T) {
	text := "A. B! C? \n\nD.\") E\nF"

	last := 0
	for _, segment := range ExtractSegments(text, 0) {
		if segment.End <= last {
			t.Fatalf("expected strictly increasing cursors, got %d after %d", segment.End, last)
		}
		last = segment.End
	}
}

func TestExtractSegmentsSpansReconstructText(t *testing.T) {
	texts := []string{
		"Hello world. How are you?\nI am fine",
		"no boundary at all",
		"...!!!???",
		"Line one\nLine two\n",
		"  Leading space. trailing  ",
		"Mixed: one! two?\"three.) four\n\nfive",
	}

	for _, text := range texts {
		var rebuilt strings.Builder
		cursor := 0
		for _, segment := range ExtractSegments(text, 0) {
			span := text[cursor:segment.End]
			if !strings.Contains(span, segment.Text) {
				t.Fatalf("segment %q not found in its span %q", segment.Text, span)
			}
			rebuilt.WriteString(span)
			cursor = segment.End
		}
		rebuilt.WriteString(text[cursor:])

		if rebuilt.String() != text {
			t.Fatalf("expected spans to rebuild %q, got %q", text, rebuilt.String())
		}
	}
}

func TestExtractSegmentsIncrementalMatchesSinglePass(t *testing.T) {
	text := "Hello there. This is a longer reply!\nIt has lines, and more words. Also a tail"

	whole := segmentTexts(ExtractSegments(text, 0))

	for chunkSize := 1; chunkSize <= len(text); chunkSize++ {
		var incremental []string
		cursor := 0
		for end := chunkSize; ; end += chunkSize {
			end = min(end, len(text))
			for _, segment := range ExtractSegments(text[:end], cursor) {
				incremental = append(incremental, segment.Text)
				cursor = segment.End
			}
			if end == len(text) {
				break
			}
		}

		if !slices.Equal(incremental, whole) {
			t.Fatalf("chunk size %d: expected %q, got %q", chunkSize, whole, incremental)
		}
	}
}

func TestExtractSegmentsOnStreamedReply(t *testing.T) {
	buffer := ""
	for _, chunk := range []string{"Hello wor", "world, friend."} {
		buffer += TrimOverlap(buffer, chunk)
	}

	if buffer != "Hello world, friend." {
		t.Fatalf("expected de-duplicated buffer, got %q", buffer)
	}

	got := ExtractSegments(buffer, 0)
	want := []Segment{{Text: "Hello world, friend.", End: len(buffer)}}
	if !slices.Equal(got, want) {
		t.Fatalf("expected segments %v, got %v", want, got)
	}
}

func segmentTexts(segments []Segment) []string {
	texts := make([]string, 0, len(segments))
	for _, segment := range segments {
		texts = append(texts, segment.Text)
	}
	return texts
}
