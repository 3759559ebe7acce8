package chunk

import (
	"sort"

	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/transcript"
)

// SegmentIndex maps character offsets in the joined transcript back to the
// timestamps of the segments the transcript was built from. It precomputes the
// cumulative end offset of every segment: len(segment text) plus one for the
// joining space.
type SegmentIndex struct {
	segments []transcript.Segment
	ends     []int
}

// NewSegmentIndex builds an index over the same ordered segments used to
// produce the transcript string.
func NewSegmentIndex(segments []transcript.Segment) *SegmentIndex {
	ends := make([]int, len(segments))
	cumulative := 0
	for i, seg := range segments {
		cumulative += len(seg.Text) + 1
		ends[i] = cumulative
	}
	return &SegmentIndex{segments: segments, ends: ends}
}

// TimeAt returns the start time of the segment containing offset. An offset
// landing exactly on a segment's cumulative end belongs to the next segment,
// so chunk end offsets resolve to the following segment's start time. Offsets
// beyond the last segment map to the last segment's end time; an empty index
// maps everything to 0.
func (x *SegmentIndex) TimeAt(offset int) float64 {
	if len(x.segments) == 0 {
		return 0
	}
	idx := sort.Search(len(x.ends), func(i int) bool { return x.ends[i] > offset })
	if idx < len(x.segments) {
		return x.segments[idx].Start
	}
	last := x.segments[len(x.segments)-1]
	return last.Start + last.Duration
}

// TimeRange resolves both ends of a chunk in one call.
func (x *SegmentIndex) TimeRange(startOffset, endOffset int) (float64, float64) {
	return x.TimeAt(startOffset), x.TimeAt(endOffset)
}

// Cursor remembers the last matched segment so that a monotonically increasing
// sequence of lookups costs amortized O(1). It is a plain value local to one
// assembly pass; never share one across goroutines or ingestions.
type Cursor struct {
	idx int
}

// TimeAtCursor behaves exactly like TimeAt but advances cur linearly from its
// previous position. When offset rewinds behind the cursor (non-monotonic
// chunk boundaries from approximate substring search) the cursor resets to the
// start of the segment list.
func (x *SegmentIndex) TimeAtCursor(offset int, cur *Cursor) float64 {
	if len(x.segments) == 0 {
		return 0
	}
	if cur.idx > 0 && x.ends[cur.idx-1] > offset {
		cur.idx = 0
	}
	for cur.idx < len(x.ends) && x.ends[cur.idx] <= offset {
		cur.idx++
	}
	if cur.idx < len(x.segments) {
		return x.segments[cur.idx].Start
	}
	last := x.segments[len(x.segments)-1]
	return last.Start + last.Duration
}
