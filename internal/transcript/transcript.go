package transcript

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Segment is one timestamped atomic unit of source text, as delivered by the
// caption service. Times are in seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// ErrNoTranscript indicates the video exists but has no usable transcript, or
// the video id is unknown. A normal negative result, not a crash.
var ErrNoTranscript = errors.New("transcript unavailable")

// Fetcher supplies the ordered segments for a video id.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]Segment, error)
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/v/|youtu\.be/|/embed/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`), // bare video ID
}

// ExtractVideoID pulls the 11-character video id out of the common YouTube URL
// shapes, or accepts a bare id.
func ExtractVideoID(url string) (string, error) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("could not extract video id from %q", url)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Join builds the working transcript string: segment texts joined with a
// single space, whitespace runs collapsed. The chunk aligner is constructed
// against exactly this join rule.
func Join(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.Text)
	}
	joined := strings.Join(parts, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(joined, " "))
}
