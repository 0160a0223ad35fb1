package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProxyError is an error that can be written to a client as a JSON
// response of the form {"error": <message>, "code": <status>}.
type ProxyError struct {
	Message    string `json:"error"`
	Code       int    `json:"code"`
	underlying error
}

func (e *ProxyError) Error() string {
	if e.underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.underlying)
	}
	return e.Message
}

func (e *ProxyError) Unwrap() error {
	return e.underlying
}

// WriteJSON writes the error as JSON to the response. Base errors use
// pre-serialized bodies to avoid per-request allocations; the underlying
// cause is never included in the body.
func (e *ProxyError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code)
	if pre, ok := preSerialized[e]; ok {
		w.Write(pre)
		return
	}
	json.NewEncoder(w).Encode(e)
}

// One error value per pipeline failure class. Each class maps to exactly
// one status code, so the mapping cannot drift between call sites.
var (
	ErrNoRouteMatch = &ProxyError{
		Code:    http.StatusNotFound,
		Message: "No matching route",
	}

	ErrInvalidURL = &ProxyError{
		Code:    http.StatusBadRequest,
		Message: "Invalid target URL",
	}

	ErrMethodNotAllowed = &ProxyError{
		Code:    http.StatusMethodNotAllowed,
		Message: "Method not allowed",
	}

	ErrUpstreamConnect = &ProxyError{
		Code:    http.StatusBadGateway,
		Message: "Failed to connect to upstream",
	}

	ErrUpstreamTimeout = &ProxyError{
		Code:    http.StatusGatewayTimeout,
		Message: "Upstream request timed out",
	}

	ErrUpstreamOther = &ProxyError{
		Code:    http.StatusInternalServerError,
		Message: "Failed to process request",
	}

	ErrBodyReadFailure = &ProxyError{
		Code:    http.StatusInternalServerError,
		Message: "Failed to read upstream response",
	}

	ErrRequestTooLarge = &ProxyError{
		Code:    http.StatusRequestEntityTooLarge,
		Message: "Request body too large",
	}

	ErrInternalServer = &ProxyError{
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
	}
)

// preSerialized holds JSON-encoded bytes for the error singletons.
var preSerialized map[*ProxyError][]byte

func init() {
	bases := []*ProxyError{
		ErrNoRouteMatch, ErrInvalidURL, ErrMethodNotAllowed,
		ErrUpstreamConnect, ErrUpstreamTimeout, ErrUpstreamOther,
		ErrBodyReadFailure, ErrRequestTooLarge, ErrInternalServer,
	}
	preSerialized = make(map[*ProxyError][]byte, len(bases))
	for _, e := range bases {
		b, _ := json.Marshal(e)
		b = append(b, '\n') // match json.Encoder behavior
		preSerialized[e] = b
	}
}

// New creates a new ProxyError.
func New(code int, message string) *ProxyError {
	return &ProxyError{
		Code:    code,
		Message: message,
	}
}

// Wrap attaches an underlying cause to a base error. The cause is carried
// for logging only; WriteJSON never serializes it.
func (e *ProxyError) Wrap(err error) *ProxyError {
	return &ProxyError{
		Code:       e.Code,
		Message:    e.Message,
		underlying: err,
	}
}

// IsProxyError checks if an error is a ProxyError.
func IsProxyError(err error) (*ProxyError, bool) {
	if pe, ok := err.(*ProxyError); ok {
		return pe, true
	}
	return nil, false
}
