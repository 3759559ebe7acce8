package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Jai-Kumar786/YouTube-RAG-project/config"
)

// Provider is the embedding/answering surface the pipeline depends on.
type Provider interface {
	// Embed maps each input text to one fixed-dimension vector, order-preserving.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Answer produces a grounded natural-language answer from the retrieved
	// excerpts, or the not-covered fallback when none are supplied.
	Answer(ctx context.Context, question string, excerpts []string) (string, error)
}

const systemPrompt = `You are a helpful assistant that answers questions about a YouTube video.

RULES - follow these strictly:
1. Answer ONLY using the transcript excerpts provided below.
2. If the answer cannot be found in the excerpts, reply exactly:
   "This question is not covered in the video."
3. Do NOT use any outside knowledge.
4. When possible, cite the excerpt number(s) you used (e.g., [1], [3]).
5. Keep your answer concise and well-structured.`

const notCoveredFallback = "No relevant transcript excerpts were found. This question is not covered in the video."

// Client talks to an OpenAI-compatible API (OpenAI itself, or Ollama's /v1
// endpoints) for embeddings and chat completions.
type Client struct {
	apiKey          string
	baseURL         string
	embeddingModel  string
	completionModel string
	temperature     float64
	maxTokens       int
	httpClient      *http.Client
}

// NewClient builds a provider from the llm config section.
func NewClient(cfg config.LLMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		embeddingModel:  cfg.EmbeddingModel,
		completionModel: cfg.CompletionModel,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// Embed generates embeddings for the given texts. A response with a different
// vector count than the input is an error, never a silent truncation.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requestBody := map[string]interface{}{
		"model": c.embeddingModel,
		"input": texts,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status: %d", resp.StatusCode)
	}

	var embResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(embResp.Data), len(texts))
	}

	vecs := make([][]float32, len(embResp.Data))
	for _, d := range embResp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embedding API returned out-of-range index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer asks the completion model to answer using only the given excerpts.
func (c *Client) Answer(ctx context.Context, question string, excerpts []string) (string, error) {
	if len(excerpts) == 0 {
		return notCoveredFallback, nil
	}

	var b strings.Builder
	for i, e := range excerpts {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, e)
	}
	userContent := fmt.Sprintf("TRANSCRIPT EXCERPTS:\n%s\nQUESTION: %s", b.String(), question)

	requestBody := map[string]interface{}{
		"model": c.completionModel,
		"messages": []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		requestBody["max_tokens"] = c.maxTokens
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status: %d", resp.StatusCode)
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return chatResp.Choices[0].Message.Content, nil
}
