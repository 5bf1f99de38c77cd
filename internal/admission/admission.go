// Package admission sequences rate limiting, response caching, and the
// expensive downstream answer pipeline for each incoming query.
package admission

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"rag-backend/internal/cache"
	"rag-backend/internal/rag"
	"rag-backend/internal/ratelimit"
)

// maxQueryLen bounds accepted query text.
const maxQueryLen = 1000

// Controller admits queries through the rate limiter and cache before
// invoking the downstream runner. Concurrent misses on the same cache key
// share a single downstream invocation.
type Controller struct {
	cache   *cache.Cache
	limiter *ratelimit.Limiter
	runner  rag.Runner
	flights singleflight.Group
}

// New wires a controller over its collaborators.
func New(c *cache.Cache, l *ratelimit.Limiter, r rag.Runner) *Controller {
	return &Controller{cache: c, limiter: l, runner: r}
}

// Handle admits and answers one query for clientID. It returns a classified
// *Error on rejection or downstream failure; failed attempts are never
// cached.
func (a *Controller) Handle(ctx context.Context, rawQuery, clientID string) (cache.Response, error) {
	if strings.TrimSpace(rawQuery) == "" {
		return cache.Response{}, &Error{Kind: KindInvalidInput, Message: "No query text provided"}
	}
	if utf8.RuneCountInString(rawQuery) > maxQueryLen {
		return cache.Response{}, &Error{Kind: KindInvalidInput, Message: "Query too long (max 1000 characters)"}
	}

	if !a.limiter.Allow(clientID) {
		retry := int(math.Ceil(a.limiter.WaitTime(clientID).Seconds()))
		return cache.Response{}, &Error{
			Kind:       KindRateLimited,
			Message:    "Rate limit exceeded. Please slow down.",
			RetryAfter: retry,
		}
	}

	key := cache.Key(rawQuery)
	if resp, ok := a.cache.Get(key); ok {
		resp.Cached = true
		return resp, nil
	}

	// The downstream call runs outside any cache or limiter lock; identical
	// concurrent misses join one flight and share the winner's answer.
	answer, err, _ := a.flights.Do(key, func() (any, error) {
		text, err := a.runner.Answer(ctx, rawQuery)
		if err != nil {
			return nil, err
		}
		a.cache.Set(key, cache.Response{Text: text})
		return text, nil
	})
	if err != nil {
		return cache.Response{}, classify(err)
	}
	return cache.Response{Text: answer.(string), Cached: false}, nil
}
