// Package httpapi exposes a MemoryLimiter over HTTP and limits other handlers by client IP.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sliding_rate_limiter/limiter"
)

type Handlers struct {
	limiter *limiter.MemoryLimiter
	decider limiter.Limiter
}

type decisionResponse struct {
	Key      string           `json:"key"`
	Decision limiter.Decision `json:"decision"`
}

type keyStateResponse struct {
	Key      string         `json:"key"`
	Recorded []limiter.Tick `json:"recorded"`
	Capacity int            `json:"capacity"`
	Window   limiter.Tick   `json:"window"`
}

// NewRouter serves l. Admission decisions go through decider, which is usually l wrapped
// in a FallbackLimiter; a nil decider uses l directly. metricsHandler may be nil.
func NewRouter(l *limiter.MemoryLimiter, decider limiter.Limiter, metricsHandler http.Handler) http.Handler {
	if decider == nil {
		decider = l
	}
	handlers := &Handlers{limiter: l, decider: decider}
	router := chi.NewRouter()

	router.Get("/healthz", handlers.healthz)
	if metricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	router.Route("/v1/keys/{key}", func(r chi.Router) {
		r.Get("/", handlers.keyState)
		r.Delete("/", handlers.resetKey)
		r.Post("/requests", handlers.tryAddRequest)
	})

	router.With(NewRateLimitMiddleware(decider, KeyByClientIP)).Get("/demo", handlers.demo)

	return router
}

func (handlers *Handlers) healthz(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte("ok"))
}

func (handlers *Handlers) tryAddRequest(writer http.ResponseWriter, request *http.Request) {
	key := chi.URLParam(request, "key")

	decision, err := handlers.decider.TryAddRequest(key)
	if err != nil {
		writeLimiterError(writer, err)
		return
	}

	statusCode := http.StatusOK
	if decision != limiter.Allowed {
		statusCode = http.StatusTooManyRequests
	}
	writeJSON(writer, statusCode, decisionResponse{Key: key, Decision: decision})
}

func (handlers *Handlers) keyState(writer http.ResponseWriter, request *http.Request) {
	key := chi.URLParam(request, "key")

	recorded := handlers.limiter.Recorded(key)
	if recorded == nil {
		recorded = []limiter.Tick{}
	}
	writeJSON(writer, http.StatusOK, keyStateResponse{
		Key:      key,
		Recorded: recorded,
		Capacity: handlers.limiter.Capacity(),
		Window:   handlers.limiter.Window(),
	})
}

func (handlers *Handlers) resetKey(writer http.ResponseWriter, request *http.Request) {
	handlers.limiter.Reset(chi.URLParam(request, "key"))
	writer.WriteHeader(http.StatusNoContent)
}

func (handlers *Handlers) demo(writer http.ResponseWriter, _ *http.Request) {
	writeJSON(writer, http.StatusOK, map[string]string{"message": "Request successful"})
}

func writeJSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
