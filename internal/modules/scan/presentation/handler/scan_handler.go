package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"winescan-app/internal/logger"
	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
	"winescan-app/internal/modules/scan/usecase"
)

const (
	// SessionIDHeader 同じ画面から開始したスキャンをまとめるヘッダー
	SessionIDHeader = "X-Session-Id"

	maxUploadSize = 20 << 20
	maxBodySize   = 1 << 20
)

// ScanHandler スキャンAPIのハンドラー
type ScanHandler struct {
	sessions *usecase.SessionRegistry
	cache    *usecase.LabelCache
	ocr      *usecase.OCRUseCase
	refine   *usecase.RefineUseCase
}

// NewScanHandler 新しいScanHandlerを作成
func NewScanHandler(
	sessions *usecase.SessionRegistry,
	cache *usecase.LabelCache,
	ocr *usecase.OCRUseCase,
	refine *usecase.RefineUseCase,
) *ScanHandler {
	return &ScanHandler{
		sessions: sessions,
		cache:    cache,
		ocr:      ocr,
		refine:   refine,
	}
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Code        string `json:"code,omitempty"`
	UserMessage string `json:"user_message,omitempty"`
}

// TextRequest テキストを受け取るリクエスト
type TextRequest struct {
	Text string `json:"text"`
}

// CacheKeyResponse キャッシュキーのレスポンス
type CacheKeyResponse struct {
	Key    string `json:"key"`
	Cached bool   `json:"cached"`
}

// RefineRequest 再解析リクエスト
type RefineRequest struct {
	LabelHash string              `json:"label_hash"`
	Metadata  domain.WineMetadata `json:"metadata"`
}

// PrewarmRequest OCR事前起動リクエスト
type PrewarmRequest struct {
	Lang string `json:"lang"`
}

// PrewarmResponse OCR事前起動のレスポンス
type PrewarmResponse struct {
	Success  bool   `json:"success"`
	Language string `json:"language"`
}

// HandleAnalyze 画像を同期的に解析する
func (h *ScanHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, opts, err := h.readScanRequest(w, r)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	run := h.sessions.Start(r.Context(), r.Header.Get(SessionIDHeader), img, opts)
	outcome, err := run.Wait(r.Context())
	if err != nil {
		h.sendScanError(w, r, err)
		return
	}

	cacheStatus := "MISS"
	if outcome.CacheHit {
		cacheStatus = "HIT"
	}
	w.Header().Set("X-Cache", cacheStatus)
	h.sendJSON(w, http.StatusOK, outcome)
}

// HandleStream 進捗をServer-Sent Eventsで送りながら解析する
// 最後にresultまたはerrorイベントを1つ送る
func (h *ScanHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, opts, err := h.readScanRequest(w, r)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get(SessionIDHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(SessionIDHeader, sessionID)
	w.WriteHeader(http.StatusOK)

	run := h.sessions.Start(r.Context(), sessionID, img, opts)

	for ev := range run.Events() {
		if err := writeEvent(w, rc, "progress", ev); err != nil {
			logger.WithContext(r.Context()).WithError(err).Debug("stream client went away")
		}
	}

	outcome, err := run.Wait(r.Context())
	if err != nil {
		_ = writeEvent(w, rc, "error", scanErrorResponse(err))
		return
	}
	_ = writeEvent(w, rc, "result", outcome)
}

// HandleCancel セッションのスキャンを中止する
func (h *ScanHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.Header.Get(SessionIDHeader)
	if sessionID == "" {
		h.sendError(w, "X-Session-Id is required", http.StatusBadRequest)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]bool{
		"success":  true,
		"canceled": h.sessions.Cancel(sessionID),
	})
}

// HandleMeters テキストから味わいメーターを推定する
func (h *ScanHandler) HandleMeters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.sendJSON(w, http.StatusOK, service.DeriveMeters(req.Text))
}

// HandleCacheKey テキストまたはバイト列のキャッシュキーと、解析済みかを返す
func (h *ScanHandler) HandleCacheKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		h.sendError(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	var key string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req TextRequest
		if err := json.Unmarshal(body, &req); err != nil {
			h.sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		key = h.cache.Key(service.NormalizeOCRText(req.Text), nil)
	} else {
		key = h.cache.Key("", body)
	}

	h.sendJSON(w, http.StatusOK, CacheKeyResponse{Key: key, Cached: h.cache.Contains(r.Context(), key)})
}

// HandleRefine 修正したメタデータで再解析する
func (h *ScanHandler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RefineRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.LabelHash == "" {
		h.sendError(w, "label_hash is required", http.StatusBadRequest)
		return
	}

	result, err := h.refine.Refine(r.Context(), req.LabelHash, req.Metadata)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.sendError(w, "Analysis not found", http.StatusNotFound)
			return
		}
		h.sendScanError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, usecase.ScanOutcome{Result: result, LabelHash: req.LabelHash})
}

// HandlePrewarm 撮影前にOCRエンジンを起動しておく
func (h *ScanHandler) HandlePrewarm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PrewarmRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
			h.sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	lang, err := h.ocr.Prewarm(r.Context(), req.Lang)
	if err != nil {
		h.sendScanError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, PrewarmResponse{Success: true, Language: lang})
}

// readScanRequest マルチパートフォームから画像とオプションを読む
func (h *ScanHandler) readScanRequest(w http.ResponseWriter, r *http.Request) (domain.ScanImage, usecase.ScanOptions, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return domain.ScanImage{}, usecase.ScanOptions{}, errors.New("failed to parse form")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return domain.ScanImage{}, usecase.ScanOptions{}, errors.New("image file is required")
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return domain.ScanImage{}, usecase.ScanOptions{}, errors.New("failed to read image")
	}

	skipCache, _ := strconv.ParseBool(r.FormValue("skip_cache"))
	img := domain.ScanImage{Data: data, MimeType: header.Header.Get("Content-Type")}
	opts := usecase.ScanOptions{
		Language:  r.FormValue("lang"),
		SkipCache: skipCache,
	}
	return img, opts, nil
}

func writeEvent(w io.Writer, rc *http.ResponseController, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return rc.Flush()
}

func scanErrorResponse(err error) ErrorResponse {
	scanErr, ok := domain.AsScanError(err)
	if !ok {
		return ErrorResponse{Success: false, Error: "Internal server error"}
	}
	return ErrorResponse{
		Success:     false,
		Error:       scanErr.Error(),
		Code:        string(scanErr.Code),
		UserMessage: scanErr.UserMessage(),
	}
}

func (h *ScanHandler) sendScanError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if scanErr, ok := domain.AsScanError(err); ok {
		status = scanErr.StatusCode()
	}
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).WithError(err).Error("scan request failed")
	}
	h.sendJSON(w, status, scanErrorResponse(err))
}

func (h *ScanHandler) sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *ScanHandler) sendError(w http.ResponseWriter, message string, status int) {
	h.sendJSON(w, status, ErrorResponse{Success: false, Error: message})
}
