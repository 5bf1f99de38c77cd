package rag

import "context"

// Mock is a Runner returning a canned answer, used until upstream
// credentials are configured and by tests.
type Mock struct {
	Text string
}

// Answer returns the canned text regardless of the query.
func (m Mock) Answer(_ context.Context, _ string) (string, error) {
	if m.Text != "" {
		return m.Text, nil
	}
	return "This is a mock answer. Configure COHERE_API_KEY, QDRANT_URL, and LLM_API_KEY to enable retrieval-augmented answers.", nil
}
