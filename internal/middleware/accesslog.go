package middleware

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wudi/apiproxy/internal/config"
	"github.com/wudi/apiproxy/internal/logging"
)

var accessLogRWPool = sync.Pool{
	New: func() any { return &accessLogResponseWriter{} },
}

// accessLogResponseWriter captures status and byte count for the log line.
type accessLogResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *accessLogResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *accessLogResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

func (w *accessLogResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// AccessLog logs one structured entry per completed request. With
// cfg.File set, entries go to a size-rotated JSON file; otherwise they
// share the process logger. A disabled config returns a pass-through.
func AccessLog(cfg config.AccessLogConfig) Middleware {
	if !cfg.IsEnabled() {
		return func(next http.Handler) http.Handler { return next }
	}

	log := accessLogger(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lrw := accessLogRWPool.Get().(*accessLogResponseWriter)
			lrw.ResponseWriter = w
			lrw.status = http.StatusOK
			lrw.bytes = 0

			next.ServeHTTP(lrw, r)

			log.Info("request",
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", lrw.status),
				zap.Int64("bytes", lrw.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("user_agent", r.UserAgent()),
			)

			lrw.ResponseWriter = nil
			accessLogRWPool.Put(lrw)
		})
	}
}

func accessLogger(cfg config.AccessLogConfig) *zap.Logger {
	if cfg.File == "" {
		return logging.Global()
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, zapcore.InfoLevel)
	return zap.New(core)
}
