package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeUpstreams serves the three pipeline endpoints from one test server.
func fakeUpstreams(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Texts) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float64{{0.1, 0.2, 0.3}},
		})
	})
	mux.HandleFunc("/collections/test-collection/points/query", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"points": []map[string]any{
					{"payload": map[string]any{"text": "passage one"}},
					{"payload": map[string]any{"text": "passage two"}},
					{"payload": map[string]any{"other": "no text field"}},
				},
			},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 2 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if !strings.Contains(req.Messages[1].Content, "passage one") {
			http.Error(w, "missing context", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "an answer"}},
			},
		})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	client := New(Config{
		CohereBaseURL:    ts.URL,
		QdrantURL:        ts.URL,
		QdrantCollection: "test-collection",
		LLMBaseURL:       ts.URL + "/v1",
	}, ts.Client())
	return ts, client
}

func TestAnswerPipeline(t *testing.T) {
	_, client := fakeUpstreams(t)
	answer, err := client.Answer(context.Background(), "what is physical ai?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "an answer" {
		t.Fatalf("answer = %q, want %q", answer, "an answer")
	}
}

func TestRetrieveExtractsPayloadText(t *testing.T) {
	_, client := fakeUpstreams(t)
	passages, err := client.Retrieve(context.Background(), []float64{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 2 || passages[0] != "passage one" || passages[1] != "passage two" {
		t.Fatalf("unexpected passages: %v", passages)
	}
}

func TestUpstreamErrorCarriesStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	}))
	t.Cleanup(ts.Close)

	client := New(Config{CohereBaseURL: ts.URL, QdrantURL: ts.URL, LLMBaseURL: ts.URL}, ts.Client())
	_, err := client.Answer(context.Background(), "q")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", apiErr.Status)
	}
	if apiErr.Service != "cohere" {
		t.Fatalf("service = %q, want cohere (pipeline fails at embed)", apiErr.Service)
	}
}

func TestMockAnswer(t *testing.T) {
	text, err := Mock{Text: "canned"}.Answer(context.Background(), "anything")
	if err != nil || text != "canned" {
		t.Fatalf("mock answer = %q, %v", text, err)
	}
	text, _ = Mock{}.Answer(context.Background(), "anything")
	if text == "" {
		t.Fatal("default mock answer must be non-empty")
	}
}
