package middleware

import (
	"net/http"

	"github.com/wudi/apiproxy/internal/errors"
)

// MaxBody caps the inbound request body at maxBytes. A declared
// Content-Length over the cap is rejected up front; chunked bodies are
// wrapped in http.MaxBytesReader so the cap holds mid-transfer too.
// maxBytes <= 0 disables the cap.
func MaxBody(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				errors.ErrRequestTooLarge.WriteJSON(w)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
