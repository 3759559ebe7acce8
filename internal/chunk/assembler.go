package chunk

import (
	"fmt"
	"strings"
)

// Chunk is one overlapping, size-bounded excerpt of a transcript with derived
// timing.
type Chunk struct {
	Content    string
	Index      int
	TokenCount int
	Start      float64
	End        float64
	SourceID   string
}

// SizeFunc measures a chunk's content for telemetry (e.g. token count). It has
// no influence on chunking decisions.
type SizeFunc func(text string) (int, error)

// CharCount is the minimal SizeFunc.
func CharCount(text string) (int, error) { return len(text), nil }

// Assemble locates each raw window inside the transcript and annotates it with
// sequence index, size metric and aligned start/end times. Windows are looked
// up by forward substring search starting just past the previous match, so
// repeated identical windows resolve to distinct positions; a miss falls back
// to a full-document search, and a window that still cannot be located gets
// the aligner's empty fallback times rather than an error.
func Assemble(raws []string, transcript string, idx *SegmentIndex, sourceID string, size SizeFunc) ([]Chunk, error) {
	if size == nil {
		size = CharCount
	}
	chunks := make([]Chunk, 0, len(raws))
	searchStart := 0
	var cur Cursor
	for i, content := range raws {
		tokens, err := size(content)
		if err != nil {
			return nil, fmt.Errorf("size chunk %d: %w", i, err)
		}

		pos := indexFrom(transcript, content, searchStart)
		if pos < 0 {
			pos = strings.Index(transcript, content)
		}

		// unknown position degrades to zero times, same as an empty index
		var start, end float64
		if pos >= 0 {
			searchStart = pos + 1
			start = idx.TimeAtCursor(pos, &cur)
			end = idx.TimeAtCursor(pos+len(content), &cur)
		}

		chunks = append(chunks, Chunk{
			Content:    content,
			Index:      i,
			TokenCount: tokens,
			Start:      start,
			End:        end,
			SourceID:   sourceID,
		})
	}
	return chunks, nil
}

func indexFrom(s, substr string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		return -1
	}
	i := strings.Index(s[from:], substr)
	if i < 0 {
		return -1
	}
	return from + i
}
