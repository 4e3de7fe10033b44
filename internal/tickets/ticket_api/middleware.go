package ticket_api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ticketfairy/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger tags each request with a correlation ID and logs method,
// path, status and duration once the handler returns.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			log.LogAPI(r.Method, r.URL.Path,
				fmt.Sprintf("%d [%s]", recorder.status, requestID),
				time.Since(start).String())
		})
	}
}
