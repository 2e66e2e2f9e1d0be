// Package http provides the JSON HTTP API.
//
// This file implements the Builder Pattern for JSON responses and the
// mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dompet/internal/core"
	"dompet/internal/log"
	"dompet/internal/navigation"
	"dompet/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body sends none.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard {"error": "..."} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// errBadRequest marks malformed requests: unparseable JSON, query values or
// path IDs.
var errBadRequest = errors.New("bad request")

var validationErrors = []error{
	core.ErrInvalidKind,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidCategory,
	core.ErrEmptyName,
	core.ErrDescriptionLong,
	core.ErrSettingKeyBlank,
	services.ErrInvalidSetting,
	navigation.ErrInvalidAction,
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// writeError logs err and writes the mapped response. Internal errors are
// not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := log.NewStructuredLogger(log.FromContext(r.Context()))
	fields := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "")
	if status == http.StatusInternalServerError {
		logger.LogError(r.Context(), "Request failed", err, op, fields.WithErrorType(log.ErrorTypeInternal))
		InternalServerError().Write(w)
		return
	}
	logger.LogWarn(r.Context(), "Request rejected", err, op, fields)
	ErrorResponse(status, err.Error()).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

func formatTime(t time.Time) string {
	return core.FormatDate(t)
}
