package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/greenmarine/internal/domain"
)

// JSONError is the envelope of every API error response:
//
//	{"error": {"code": "invalid", "message": "...", "fields": {"email": "..."}}}
type JSONError struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var statusByCode = map[string]int{
	domain.EINVALID:     http.StatusBadRequest,
	domain.EFORBIDDEN:   http.StatusForbidden,
	domain.ENOTFOUND:    http.StatusNotFound,
	domain.ECONFLICT:    http.StatusConflict,
	domain.ERATELIMIT:   http.StatusTooManyRequests,
	domain.EUNAVAILABLE: http.StatusServiceUnavailable,
}

// ErrorCodeToHTTPStatus maps a domain error code to its status. Unknown
// codes, including EINTERNAL, are 500.
func ErrorCodeToHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse logs err and writes it as JSON. Internal errors reach the
// client only as the generic message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
	logError(logger, r, err, status)
	writeJSON(w, status, JSONError{Error: *errorBody(err)})
}

func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	ErrorResponse(w, r, logger, domain.Errorf(domain.ENOTFOUND, "", "Niet gevonden"))
}

func errorBody(err error) *ErrorBody {
	body := &ErrorBody{Code: domain.ErrorCode(err), Message: domain.ErrorMessage(err)}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Message = "Controleer de gemarkeerde velden."
		body.Fields = ve.Fields
	}
	return body
}

// logError reports 5xx at error level; client mistakes are info.
func logError(logger *slog.Logger, r *http.Request, err error, status int) {
	level, msg := slog.LevelInfo, "client error"
	if status >= http.StatusInternalServerError {
		level, msg = slog.LevelError, "server error"
	}

	attrs := []slog.Attr{
		slog.String("error", err.Error()),
		slog.String("code", domain.ErrorCode(err)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, slog.String("op", op))
	}
	logger.LogAttrs(r.Context(), level, msg, attrs...)
}
