package chunk

import (
	"log"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter returns a SizeFunc backed by the cl100k_base encoding, matching
// the token counts reported for stored chunks. When the encoding cannot be
// loaded (e.g. offline first run) it degrades to character counts.
func TokenCounter() SizeFunc {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Printf("[CHUNK] tiktoken unavailable, falling back to char counts: %v", err)
		return CharCount
	}
	return func(text string) (int, error) {
		return len(enc.Encode(text, nil, nil)), nil
	}
}
