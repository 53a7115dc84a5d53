package middleware

import (
	"net/http"
	"time"

	"ecom-backend/pkg/utils"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// RateLimit caps requests per client IP within window. It guards the
// credential endpoints against guessing.
func RateLimit(limit int, window time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("Rate limit exceeded",
				zap.String("path", r.URL.Path),
				zap.String("ip", r.RemoteAddr))
			utils.ResponseError(w, http.StatusTooManyRequests, "RateLimited", "Too many requests, try again later")
		}),
	)
}
