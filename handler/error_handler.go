package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/duebook/pkg/logger"
	"github.com/dmitrymomot/duebook/pkg/requestid"
)

// NewErrorHandler returns an ErrorHandler that logs err and renders it with JSONError.
func NewErrorHandler[C Context](log *slog.Logger) ErrorHandler[C] {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx C, err error) {
		r := ctx.Request()
		LogError(log, r, err)
		if err := JSONError(err).Render(ctx.ResponseWriter(), r); err != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(err))
		}
	}
}

// LogError logs a request failure with the request id.
// Client errors log at warn, server errors at error.
func LogError(log *slog.Logger, r *http.Request, err error) {
	status := StatusCode(err)
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	log.LogAttrs(r.Context(), level, "request error",
		logger.RequestID(requestid.FromContext(r.Context())),
		logger.Error(err),
		slog.Int("status_code", status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}
