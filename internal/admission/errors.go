package admission

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"rag-backend/internal/rag"
)

// Kind labels a request failure with its user-facing category.
type Kind int

const (
	// KindInvalidInput is an empty, blank, or oversized query. Local, never
	// reaches downstream.
	KindInvalidInput Kind = iota
	// KindRateLimited is a local sliding-window rejection.
	KindRateLimited
	// KindQuotaExceeded means downstream reported throttling or quota
	// exhaustion.
	KindQuotaExceeded
	// KindAuthFailure means downstream rejected our credentials. Operator
	// misconfiguration, not caller-retryable.
	KindAuthFailure
	// KindUnavailable means downstream connectivity or timeout trouble.
	// Caller-retryable.
	KindUnavailable
	// KindUnknown is any other downstream failure.
	KindUnknown
)

// Error is a classified request failure. Message is stable and safe to show
// to callers; RetryAfter is set for rate-limit rejections.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter int // seconds, advisory
}

func (e *Error) Error() string { return e.Message }

// HTTPStatus maps the failure category onto the response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindRateLimited, KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// classify maps a downstream failure onto the stable error taxonomy.
// Structured status codes from *rag.APIError are authoritative; substring
// matching on the error text is a best-effort fallback for transport-level
// failures that carry no status.
func classify(err error) *Error {
	var apiErr *rag.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests:
			return &Error{Kind: KindQuotaExceeded, Message: "AI service quota exceeded. Please try again later."}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &Error{Kind: KindAuthFailure, Message: "AI service configuration error."}
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &Error{Kind: KindUnavailable, Message: "AI service temporarily unavailable. Please try again."}
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindUnavailable, Message: "AI service temporarily unavailable. Please try again."}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "quota", "rate limit", "too many requests", "429"):
		return &Error{Kind: KindQuotaExceeded, Message: "AI service quota exceeded. Please try again later."}
	case containsAny(msg, "unauthorized", "forbidden", "api key", "invalid key", "401", "403"):
		return &Error{Kind: KindAuthFailure, Message: "AI service configuration error."}
	case containsAny(msg, "timeout", "timed out", "connection refused", "connection reset", "no such host", "unreachable", "eof"):
		return &Error{Kind: KindUnavailable, Message: "AI service temporarily unavailable. Please try again."}
	}

	return &Error{Kind: KindUnknown, Message: "An error occurred while processing your query: " + truncate(err.Error(), 200)}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
