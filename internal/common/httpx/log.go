package httpx

import (
	"net/http"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLog logs every request; server errors at error level.
func RequestLog(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		fields := map[string]any{"method": r.Method, "path": r.URL.Path, "status": rec.status}
		if rec.status >= http.StatusInternalServerError {
			log.Error("request_failed", nil, fields)
			return
		}
		log.Debug("request_served", fields)
	})
}
