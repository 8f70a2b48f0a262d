// Package http serves the dashboard views as a JSON API.
//
// This file implements the Builder Pattern for JSON responses and the single
// place where domain errors are mapped to HTTP status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"hoteldash/internal/core"
	"hoteldash/internal/log"
	"hoteldash/internal/middleware/trace"
	"hoteldash/internal/services"
	"hoteldash/internal/source"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
}

// ErrorBody is the JSON shape of every error response. A dashboard panel
// shows Message and keeps the rest of the page working.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if eb, ok := b.data.(ErrorBody); ok && eb.RequestID == "" && r != nil {
		eb.RequestID = trace.GetRequestID(r.Context())
		b.data = eb
	}

	if b.data == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.data)
	if err != nil {
		log.FromContext(requestContext(r)).ErrorContext(requestContext(r), "Failed to encode JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error","message":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

func requestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(ErrorBody{Error: code, Message: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "unprocessable_entity", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	b := ErrorResponse(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	if allowedMethods != "" {
		b.Header("Allow", allowedMethods)
	}
	return b
}

// TooManyRequestsError creates a 429 Too Many Requests error response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, please try again later")
}

// NotImplementedError creates a 501 Not Implemented error response.
func NotImplementedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotImplemented, "not_implemented", message)
}

// BadGatewayError creates a 502 Bad Gateway error response.
func BadGatewayError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadGateway, "source_unavailable", message)
}

// ServiceUnavailableError creates a 503 Service Unavailable error response.
func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, "unavailable", message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal_error", message)
}

// FromError maps a service error to its response. Client errors carry the
// error text; server errors are logged and replaced by a generic message.
func FromError(r *http.Request, err error) *JSONResponseBuilder {
	var rowErr *source.RowError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrInvalidDimension),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrInvalidRankMode),
		errors.Is(err, source.ErrMissingColumn):
		return BadRequestError(err.Error())

	case errors.Is(err, services.ErrUnknownMetric),
		errors.Is(err, services.ErrNoRows),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrNegativeValue),
		errors.Is(err, core.ErrNonFinite),
		errors.As(err, &rowErr):
		return UnprocessableEntityError(err.Error())

	case errors.Is(err, services.ErrSourceUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		log.FromContext(requestContext(r)).ErrorContext(requestContext(r), "Data source error", "error", err)
		return BadGatewayError("data source unavailable, try again later")

	default:
		log.FromContext(requestContext(r)).ErrorContext(requestContext(r), "Unhandled request error", "error", err)
		return InternalServerError("internal error")
	}
}
