package transcript

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type countingFetcher struct {
	segments []Segment
	err      error
	calls    int
}

func (f *countingFetcher) Fetch(ctx context.Context, videoID string) ([]Segment, error) {
	f.calls++
	return f.segments, f.err
}

func TestCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	// an unreachable redis must never break fetching
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})
	inner := &countingFetcher{segments: []Segment{{Text: "Hello", Start: 0, Duration: 1}}}
	c := NewCache(inner, rdb, time.Minute, log.New(io.Discard, "", 0))

	segments, err := c.Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "Hello" {
		t.Fatalf("unexpected segments: %+v", segments)
	}
	if inner.calls != 1 {
		t.Fatalf("inner fetcher called %d times, want 1", inner.calls)
	}
}

func TestCachePropagatesFetchErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})
	inner := &countingFetcher{err: ErrNoTranscript}
	c := NewCache(inner, rdb, time.Minute, log.New(io.Discard, "", 0))

	if _, err := c.Fetch(context.Background(), "dQw4w9WgXcQ"); !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript, got %v", err)
	}
}
