// internal/app/features/errors/respond.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Response is the JSON body of every error reply. Retry tells the client to
// show the retry prompt and reload.
type Response struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
	Retry   bool     `json:"retry,omitempty"`
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error body with status.
func WriteError(w http.ResponseWriter, status int, msg string, details ...string) {
	WriteJSON(w, status, Response{
		Error:   msg,
		Details: details,
		Retry:   status >= http.StatusInternalServerError,
	})
}

// ErrorLogger logs failures with request context and writes the reply.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger wraps logger. A nil logger discards.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) logger() *zap.Logger {
	if e == nil || e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func requestFields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
}

// LogServerError logs err and replies 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.logger().Error(msg, requestFields(r, err)...)
	WriteError(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs err at debug and replies 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.logger().Debug(msg, requestFields(r, err)...)
	WriteError(w, http.StatusBadRequest, userMsg)
}

// Respond maps err to a reply:
//
//	ValidationError  -> 400 with details
//	NotFoundError    -> 404
//	PersistenceError -> 503, retry
//	anything else    -> 500, retry
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var (
		ve *apperr.ValidationError
		ne *apperr.NotFoundError
	)
	switch {
	case stderrors.As(err, &ve):
		e.logger().Debug(msg, requestFields(r, err)...)
		WriteError(w, http.StatusBadRequest, ve.Msg, ve.Details...)
	case stderrors.As(err, &ne):
		WriteError(w, http.StatusNotFound, ne.Error())
	case apperr.IsPersistence(err):
		e.logger().Error(msg, requestFields(r, err)...)
		WriteError(w, http.StatusServiceUnavailable, "The room store is unavailable. Please retry.")
	default:
		e.LogServerError(w, r, msg, err, "Something went wrong. Please retry.")
	}
}
