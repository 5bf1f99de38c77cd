package server

import "rag-backend/internal/cache"

type queryRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

type statsResponse struct {
	Cache       cache.Stats      `json:"cache"`
	RateLimiter rateLimiterStats `json:"rateLimiter"`
}

type rateLimiterStats struct {
	RequestsPerMinute int `json:"requestsPerMinute"`
	ActiveClients     int `json:"activeClients"`
}
