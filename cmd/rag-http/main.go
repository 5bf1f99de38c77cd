// Command rag-http starts the RAG backend HTTP server.
package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"rag-backend/internal/admission"
	"rag-backend/internal/cache"
	"rag-backend/internal/rag"
	"rag-backend/internal/ratelimit"
	"rag-backend/internal/server"
)

func main() {
	port := getEnv("PORT", "3000")

	ragCfg := rag.Config{
		CohereAPIKey:     os.Getenv("COHERE_API_KEY"),
		QdrantURL:        os.Getenv("QDRANT_URL"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: os.Getenv("QDRANT_COLLECTION"),
		LLMAPIKey:        os.Getenv("LLM_API_KEY"),
		LLMBaseURL:       os.Getenv("LLM_BASE_URL"),
		LLMModel:         os.Getenv("LLM_MODEL"),
	}

	var runner rag.Runner = rag.New(ragCfg, nil)
	if missing := missingVars("COHERE_API_KEY", "QDRANT_URL", "LLM_API_KEY"); len(missing) > 0 {
		log.Printf("WARN: missing environment variables: %s", strings.Join(missing, ", "))
		log.Println("WARN: answers will use mock data until configured.")
		runner = rag.Mock{}
	}

	c := cache.New(
		getEnvInt("CACHE_SIZE", 100),
		time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600))*time.Second,
	)
	limiter := ratelimit.New(getEnvInt("RATE_LIMIT_PER_MINUTE", 10))
	ctrl := admission.New(c, limiter, runner)
	srv := server.New(c, limiter, ctrl)

	log.Printf("Starting RAG backend on :%s\n", port)
	if err := http.ListenAndServe(":"+port, srv.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func missingVars(keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if os.Getenv(k) == "" {
			out = append(out, k)
		}
	}
	return out
}
