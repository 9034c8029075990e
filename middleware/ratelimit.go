package middleware

import (
	"net/http"

	"taskmanager/internal/apperrors"
	"taskmanager/internal/response"

	"golang.org/x/time/rate"
)

// RateLimiter rejects requests once the shared token bucket is empty
func RateLimiter(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				response.Fail(w, http.StatusTooManyRequests, apperrors.CodeRateLimited, "The API is at capacity, try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
