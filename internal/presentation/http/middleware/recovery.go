package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Recovery パニックリカバリーミドルウェア
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithFields(logrus.Fields{
					"error": err,
					"path":  r.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("Panic recovered")

				response := ErrorResponse{
					Success: false,
					Error:   "Internal server error",
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(response)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
