package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge プリフライト結果のキャッシュ秒数
const corsMaxAge = 3600

// CORS ブラウザからのAIゲートウェイ呼び出し用CORSミドルウェア
func CORS(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-User-Id", "X-Session-Id"},
		ExposedHeaders: []string{"X-Cache", "X-Session-Id"},
		MaxAge:         corsMaxAge,
	}).Handler(next)
}
