package handler

import (
	"encoding/json"
	"net/http"
)

// Version APIのバージョン
const Version = "1.0.0"

// Components 起動時に有効になった外部依存
// Redis・MySQLが落ちていてもサーバーは起動するため、どの層が使えるかをここで返す
type Components struct {
	OCR         bool `json:"ocr"`
	FactLookup  bool `json:"fact_lookup"`
	LocalCache  bool `json:"local_cache"`
	ServerCache bool `json:"server_cache"`
	Cellar      bool `json:"cellar"`
}

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	components Components
}

// NewHealthHandler 新しいHealthHandlerを作成
func NewHealthHandler(components Components) *HealthHandler {
	return &HealthHandler{components: components}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status     string     `json:"status"`
	Version    string     `json:"version"`
	Components Components `json:"components"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:     "ok",
		Version:    Version,
		Components: h.components,
	})
}
