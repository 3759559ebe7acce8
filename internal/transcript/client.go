package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimedTextURL = "https://www.youtube.com/api/timedtext"

// Client fetches captions from YouTube's timedtext endpoint (json3 format).
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewClient builds a timedtext client. language defaults to "en".
func NewClient(language string, timeout time.Duration) *Client {
	if language == "" {
		language = "en"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    defaultTimedTextURL,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(baseURL, language string, timeout time.Duration) *Client {
	c := NewClient(language, timeout)
	c.baseURL = baseURL
	return c
}

// timedTextResponse mirrors the json3 caption payload.
type timedTextResponse struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// Fetch returns the ordered caption segments for the video. An empty caption
// track yields ErrNoTranscript.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]Segment, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", c.language)
	q.Set("fmt", "json3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript for video %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNoTranscript)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext API returned status %d for video %s", resp.StatusCode, videoID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript response: %w", err)
	}
	// YouTube answers 200 with an empty body when the track does not exist
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("video %s has no %s captions: %w", videoID, c.language, ErrNoTranscript)
	}

	var tt timedTextResponse
	if err := json.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("failed to parse transcript response: %w", err)
	}

	segments := make([]Segment, 0, len(tt.Events))
	for _, ev := range tt.Events {
		var b strings.Builder
		for _, s := range ev.Segs {
			b.WriteString(s.UTF8)
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     text,
			Start:    float64(ev.StartMs) / 1000.0,
			Duration: float64(ev.DurationMs) / 1000.0,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNoTranscript)
	}
	return segments, nil
}
