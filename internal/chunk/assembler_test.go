package chunk

import (
	"errors"
	"testing"

	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/transcript"
)

func TestAssembleAnnotatesChunks(t *testing.T) {
	idx := NewSegmentIndex(twoSegments())
	raws := []string{"Hello ", "world."}

	chunks, err := Assemble(raws, "Hello world.", idx, "vid123", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	first, second := chunks[0], chunks[1]
	if first.Index != 0 || second.Index != 1 {
		t.Fatalf("indices not sequential: %d, %d", first.Index, second.Index)
	}
	if first.SourceID != "vid123" || second.SourceID != "vid123" {
		t.Fatalf("source id not propagated: %q, %q", first.SourceID, second.SourceID)
	}
	// nil SizeFunc falls back to character counting
	if first.TokenCount != 6 || second.TokenCount != 6 {
		t.Fatalf("unexpected token counts: %d, %d", first.TokenCount, second.TokenCount)
	}
	if first.Start != 0.0 || first.End != 1.0 {
		t.Fatalf("first chunk times: (%v,%v), want (0.0,1.0)", first.Start, first.End)
	}
	if second.Start != 1.0 || second.End != 1.0 {
		t.Fatalf("second chunk times: (%v,%v), want (1.0,1.0)", second.Start, second.End)
	}
}

func TestAssembleRepeatedWindowsResolveForward(t *testing.T) {
	segments := []transcript.Segment{
		{Text: "ab", Start: 0.0, Duration: 1.0},
		{Text: "ab", Start: 1.0, Duration: 1.0},
		{Text: "ab", Start: 2.0, Duration: 1.0},
	}
	idx := NewSegmentIndex(segments)
	raws := []string{"ab", "ab", "ab"}

	chunks, err := Assemble(raws, "ab ab ab", idx, "vid123", CharCount)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// identical windows must map to successive occurrences, not all to the first
	wantStarts := []float64{0.0, 1.0, 2.0}
	for i, c := range chunks {
		if c.Start != wantStarts[i] {
			t.Fatalf("chunk %d start = %v, want %v", i, c.Start, wantStarts[i])
		}
	}
}

func TestAssembleMissGetsZeroTimes(t *testing.T) {
	idx := NewSegmentIndex(twoSegments())

	chunks, err := Assemble([]string{"never appears"}, "Hello world.", idx, "vid123", CharCount)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if chunks[0].Start != 0 || chunks[0].End != 0 {
		t.Fatalf("unlocatable chunk times: (%v,%v), want (0,0)", chunks[0].Start, chunks[0].End)
	}
}

func TestAssembleSizeFuncErrorPropagates(t *testing.T) {
	idx := NewSegmentIndex(twoSegments())
	boom := errors.New("tokenizer unavailable")
	size := func(string) (int, error) { return 0, boom }

	if _, err := Assemble([]string{"Hello "}, "Hello world.", idx, "vid123", size); !errors.Is(err, boom) {
		t.Fatalf("expected tokenizer error, got %v", err)
	}
}
