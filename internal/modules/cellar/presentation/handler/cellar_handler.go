package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"winescan-app/internal/logger"
	"winescan-app/internal/modules/cellar/domain"
	"winescan-app/internal/modules/cellar/usecase"
	scandomain "winescan-app/internal/modules/scan/domain"
)

// UserIDHeader 認証済みユーザーIDを運ぶヘッダー
const UserIDHeader = "X-User-Id"

// CellarHandler セラー（保存スキャン）APIのハンドラー
type CellarHandler struct {
	cellarUseCase *usecase.CellarUseCase
}

// NewCellarHandler 新しいCellarHandlerを作成
func NewCellarHandler(cellarUseCase *usecase.CellarUseCase) *CellarHandler {
	return &CellarHandler{cellarUseCase: cellarUseCase}
}

// SaveRequest 保存リクエスト
type SaveRequest struct {
	LabelHash string `json:"label_hash"`
}

// ScanResponse 保存スキャン1件のレスポンス
type ScanResponse struct {
	Success bool              `json:"success"`
	Scan    *domain.SavedScan `json:"scan"`
}

// ListResponse 一覧レスポンス
type ListResponse struct {
	Success bool                `json:"success"`
	Scans   []*domain.SavedScan `json:"scans"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleCollection POST: 保存 / GET: 一覧
func (h *CellarHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSave(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleGet 保存スキャンを1件返す
func (h *CellarHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.sendError(w, "ID is required", http.StatusBadRequest)
		return
	}

	scan, err := h.cellarUseCase.Get(r.Context(), r.Header.Get(UserIDHeader), id)
	if err != nil {
		h.sendUseCaseError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, ScanResponse{Success: true, Scan: scan})
}

func (h *CellarHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.LabelHash == "" {
		h.sendError(w, "label_hash is required", http.StatusBadRequest)
		return
	}

	scan, err := h.cellarUseCase.Save(r.Context(), r.Header.Get(UserIDHeader), req.LabelHash)
	if err != nil {
		h.sendUseCaseError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusCreated, ScanResponse{Success: true, Scan: scan})
}

func (h *CellarHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", usecase.DefaultListLimit)
	offset := queryInt(r, "offset", 0)

	scans, err := h.cellarUseCase.List(r.Context(), r.Header.Get(UserIDHeader), limit, offset)
	if err != nil {
		h.sendUseCaseError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, ListResponse{
		Success: true,
		Scans:   scans,
		Limit:   limit,
		Offset:  offset,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (h *CellarHandler) sendUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		h.sendError(w, "User ID is required", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrPersistenceDisabled):
		h.sendError(w, "Cellar is not available", http.StatusServiceUnavailable)
	case errors.Is(err, scandomain.ErrNotFound):
		h.sendError(w, "Not found", http.StatusNotFound)
	default:
		logger.WithContext(r.Context()).WithError(err).Error("cellar request failed")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *CellarHandler) sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *CellarHandler) sendError(w http.ResponseWriter, message string, status int) {
	h.sendJSON(w, status, ErrorResponse{Success: false, Error: message})
}
