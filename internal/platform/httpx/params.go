package httpx

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ParseID reads a positive int64 URL parameter.
func ParseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// Fail writes err as a problem response. Server errors are logged with msg
// because their detail is never sent to the client.
func Fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	if logger != nil && StatusOf(err) == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), msg,
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	RespondError(w, err)
}
