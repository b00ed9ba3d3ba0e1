package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
)

// responseWriter ステータスコードをキャプチャするためのラッパー
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap http.ResponseControllerがFlushを見つけられるように元のWriterを返す
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logger ロギングミドルウェア
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		logRequest(r, rw, time.Since(start))
	})
}

// LoggerWithHealthCheck ヘルスチェックを除外するロギングミドルウェア
func LoggerWithHealthCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ヘルスチェックは正常時ログ出力しない
		if r.URL.Path == "/health" {
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(rw, r)

			if rw.statusCode != http.StatusOK {
				logger.WithField("status", rw.statusCode).Error("Health check failed")
			}
			return
		}

		Logger(next).ServeHTTP(w, r)
	})
}

func logRequest(r *http.Request, rw *responseWriter, duration time.Duration) {
	entry := logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status":      rw.statusCode,
		"bytes":       rw.written,
		"duration_ms": duration.Milliseconds(),
	})

	switch {
	case rw.statusCode >= http.StatusInternalServerError:
		entry.Error("HTTP request")
	case rw.statusCode >= http.StatusBadRequest:
		entry.Warn("HTTP request")
	default:
		entry.Info("HTTP request")
	}
}
