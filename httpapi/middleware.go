package httpapi

import (
	"log"
	"net"
	"net/http"
	"strings"

	"sliding_rate_limiter/limiter"
)

const rateLimitExceededMessage = "you have reached the maximum number of requests allowed within the current window"

// KeyFunc derives the rate-limit key for a request.
type KeyFunc func(r *http.Request) string

// NewRateLimitMiddleware rejects requests that l denies. A nil limiter lets every request through.
func NewRateLimitMiddleware(l limiter.Limiter, keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = KeyByClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := l.TryAddRequest(keyFn(r))
			if err != nil {
				writeLimiterError(w, err)
				return
			}
			if decision != limiter.Allowed {
				writeTooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// KeyByClientIP uses the first X-Forwarded-For hop, then X-Real-IP, then the remote address.
func KeyByClientIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		first, _, _ := strings.Cut(xForwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xRealIP != "" {
		return xRealIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func writeLimiterError(w http.ResponseWriter, err error) {
	if limiter.IsClockAnomaly(err) {
		log.Printf("rate limiter clock anomaly: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": limiter.ErrClockWentBackwards.Error()})
		return
	}
	log.Printf("rate limiter failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"message": http.StatusText(http.StatusInternalServerError)})
}

func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(rateLimitExceededMessage))
}
