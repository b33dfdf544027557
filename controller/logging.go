package controller

import (
	"context"
	"log/slog"
	"net/http"

	"igensys-backend/utils"
)

// requestLogger tags the controller logger with the request id assigned
// by the logging middleware.
func (c *Controller) requestLogger(r *http.Request) *slog.Logger {
	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}
	if r == nil {
		return logger
	}
	if id := utils.RequestID(r.Context()); id != "" {
		return logger.With("request_id", id)
	}
	return logger
}

func (c *Controller) logRequestError(r *http.Request, message string, err error, attrs ...any) {
	c.logRequest(r, slog.LevelError, message, err, attrs...)
}

func (c *Controller) logRequestWarn(r *http.Request, message string, err error, attrs ...any) {
	c.logRequest(r, slog.LevelWarn, message, err, attrs...)
}

func (c *Controller) logRequest(r *http.Request, level slog.Level, message string, err error, attrs ...any) {
	if err == nil {
		return
	}
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	c.requestLogger(r).Log(ctx, level, message, append(attrs, "error", err)...)
}
