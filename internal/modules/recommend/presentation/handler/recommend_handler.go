package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"winescan-app/internal/modules/recommend/domain"
	"winescan-app/internal/modules/recommend/usecase"
)

// userIDHeader 認証済みユーザーIDを運ぶヘッダー
const userIDHeader = "X-User-Id"

// RecommendHandler ワイン推薦APIのハンドラー
// 検証に失敗してもフォールバックを200で返し、呼び出し側はis_validを確認する
type RecommendHandler struct {
	recommendUseCase *usecase.RecommendUseCase
}

// NewRecommendHandler 新しいRecommendHandlerを作成
func NewRecommendHandler(recommendUseCase *usecase.RecommendUseCase) *RecommendHandler {
	return &RecommendHandler{recommendUseCase: recommendUseCase}
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleSommelier ソムリエ推薦
func (h *RecommendHandler) HandleSommelier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.SommelierRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" && strings.TrimSpace(req.Dish) == "" {
		h.sendError(w, "query or dish is required", http.StatusBadRequest)
		return
	}

	h.sendJSON(w, h.recommendUseCase.Sommelier(r.Context(), req))
}

// HandleForYou 保存済みワインに基づく提案
func (h *RecommendHandler) HandleForYou(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.ForYouRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			h.sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	h.sendJSON(w, h.recommendUseCase.ForYou(r.Context(), r.Header.Get(userIDHeader), req))
}

func (h *RecommendHandler) sendJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *RecommendHandler) sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: message})
}
