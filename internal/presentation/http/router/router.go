package router

import (
	"net/http"

	"winescan-app/internal/presentation/di"
	"winescan-app/internal/presentation/http/middleware"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	mux := http.NewServeMux()

	// Scan API ハンドラー
	scanHandler := container.ScanHandler()
	mux.HandleFunc("/api/v1/scans/analyze", scanHandler.HandleAnalyze)
	mux.HandleFunc("/api/v1/scans/stream", scanHandler.HandleStream)
	mux.HandleFunc("/api/v1/scans/refine", scanHandler.HandleRefine)
	mux.HandleFunc("/api/v1/scans/cancel", scanHandler.HandleCancel)
	mux.HandleFunc("/api/v1/meters", scanHandler.HandleMeters)
	mux.HandleFunc("/api/v1/cache/key", scanHandler.HandleCacheKey)
	mux.HandleFunc("/api/v1/ocr/prewarm", scanHandler.HandlePrewarm)

	// Cellar API ハンドラー
	cellarHandler := container.CellarHandler()
	mux.HandleFunc("/api/v1/cellar", cellarHandler.HandleCollection)
	mux.HandleFunc("/api/v1/cellar/{id}", cellarHandler.HandleGet)

	// Recommend API ハンドラー
	recommendHandler := container.RecommendHandler()
	mux.HandleFunc("/api/v1/recommend/sommelier", recommendHandler.HandleSommelier)
	mux.HandleFunc("/api/v1/recommend/for-you", recommendHandler.HandleForYou)

	// Health check
	mux.Handle("/health", container.HealthHandler())

	// ミドルウェアの適用
	var h http.Handler = mux
	h = middleware.Recovery(h)
	h = middleware.LoggerWithHealthCheck(h)
	h = middleware.CORS(h)

	return h
}
