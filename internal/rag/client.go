// Package rag implements the downstream answer pipeline: query embedding,
// vector retrieval, and answer generation against external APIs.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const systemPrompt = `You are an AI tutor for the Physical AI & Humanoid Robotics textbook.
Use ONLY the provided context to answer the user question.
If the answer is not in the context, say "I don't know".`

// topK is the number of passages retrieved per query.
const topK = 5

// Runner is the expensive downstream operation the admission layer guards.
type Runner interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Config holds the upstream endpoints and credentials for the pipeline.
type Config struct {
	CohereAPIKey     string
	CohereBaseURL    string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	LLMAPIKey        string
	LLMBaseURL       string
	LLMModel         string
}

// Client runs embed -> retrieve -> generate over Cohere, Qdrant, and an
// OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg  Config
	HTTP *http.Client
}

// New returns a pipeline client. If httpClient is nil, a default with 30s
// timeout is used.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://router.huggingface.co/v1"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "moonshotai/Kimi-K2-Instruct-0905"
	}
	if cfg.QdrantCollection == "" {
		cfg.QdrantCollection = "Physical-ai-book-cluster"
	}
	if cfg.CohereBaseURL == "" {
		cfg.CohereBaseURL = "https://api.cohere.com"
	}
	cfg.CohereBaseURL = strings.TrimRight(cfg.CohereBaseURL, "/")
	cfg.QdrantURL = strings.TrimRight(cfg.QdrantURL, "/")
	cfg.LLMBaseURL = strings.TrimRight(cfg.LLMBaseURL, "/")
	return &Client{cfg: cfg, HTTP: httpClient}
}

// APIError is a non-2xx response from an upstream service. Status carries
// the upstream HTTP status so callers can classify without string matching.
type APIError struct {
	Service string
	Status  int
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api status %d: %s", e.Service, e.Status, e.Body)
}

// Answer runs the full pipeline for one query.
func (c *Client) Answer(ctx context.Context, query string) (string, error) {
	vec, err := c.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed: %w", err)
	}
	passages, err := c.Retrieve(ctx, vec)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}
	answer, err := c.Generate(ctx, query, passages)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return answer, nil
}

// Embed fetches a search-query embedding for text from Cohere.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	payload := map[string]any{
		"model":      "embed-english-v3.0",
		"input_type": "search_query",
		"texts":      []string{text},
	}
	var out struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	err := c.postJSON(ctx, "cohere", c.cfg.CohereBaseURL+"/v1/embed",
		map[string]string{"Authorization": "Bearer " + c.cfg.CohereAPIKey}, payload, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("cohere returned no embeddings")
	}
	return out.Embeddings[0], nil
}

// Retrieve queries Qdrant for the passages nearest to vector, returning
// their payload text in score order.
func (c *Client) Retrieve(ctx context.Context, vector []float64) ([]string, error) {
	url := fmt.Sprintf("%s/collections/%s/points/query", c.cfg.QdrantURL, c.cfg.QdrantCollection)
	payload := map[string]any{
		"query":        vector,
		"limit":        topK,
		"with_payload": true,
	}
	var out struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	err := c.postJSON(ctx, "qdrant", url,
		map[string]string{"api-key": c.cfg.QdrantAPIKey}, payload, &out)
	if err != nil {
		return nil, err
	}
	passages := make([]string, 0, len(out.Result.Points))
	for _, p := range out.Result.Points {
		if text, ok := p.Payload["text"].(string); ok {
			passages = append(passages, text)
		}
	}
	return passages, nil
}

// Generate asks the chat model to answer query from the retrieved passages.
func (c *Client) Generate(ctx context.Context, query string, passages []string) (string, error) {
	user := query
	if len(passages) > 0 {
		user = "Context:\n" + strings.Join(passages, "\n\n") + "\n\nQuestion: " + query
	}
	payload := map[string]any{
		"model": c.cfg.LLMModel,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
		},
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := c.postJSON(ctx, "llm", c.cfg.LLMBaseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.cfg.LLMAPIKey}, payload, &out)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// postJSON posts payload to url and decodes the response into out, turning
// non-2xx statuses into *APIError.
func (c *Client) postJSON(ctx context.Context, service, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Service: service, Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
