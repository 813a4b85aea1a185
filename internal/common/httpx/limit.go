package httpx

import (
	"net/http"

	"golang.org/x/sync/semaphore"
)

// LimitConcurrency answers 503 once max requests are already in flight.
func LimitConcurrency(max int, next http.Handler) http.Handler {
	if max <= 0 {
		return next
	}
	sem := semaphore.NewWeighted(int64(max))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sem.TryAcquire(1) {
			w.Header().Set("Retry-After", "1")
			WriteProblem(w, http.StatusServiceUnavailable, "overloaded", "too many concurrent requests")
			return
		}
		defer sem.Release(1)
		next.ServeHTTP(w, r)
	})
}
