package middleware

import (
	"log/slog"
	"net/http"

	"igensys-backend/utils"
)

// WithAdmin gates a handler behind a token validation callback.
func WithAdmin(
	validate func(*http.Request) error,
	onError func(http.ResponseWriter, int, string),
	next http.HandlerFunc,
	logger *slog.Logger,
) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	authLogger := logger.With("component", "auth")
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validate(r); err != nil {
			authLogger.Warn("admin request validation failed",
				"request_id", utils.RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			onError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r)
	}
}
