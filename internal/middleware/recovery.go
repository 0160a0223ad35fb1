package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/wudi/apiproxy/internal/errors"
	"github.com/wudi/apiproxy/internal/logging"
)

// Recovery converts handler panics into a JSON 500 instead of killing
// the connection. The stack goes to the process log, never to the
// client.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logging.Error("Panic recovered",
						zap.Any("error", v),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.ByteString("stack", debug.Stack()),
					)
					errors.ErrInternalServer.WriteJSON(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
