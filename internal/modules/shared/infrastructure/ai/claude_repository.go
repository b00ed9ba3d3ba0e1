//go:build !no_ai

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"winescan-app/internal/config"
	"winescan-app/internal/modules/scan/domain"
)

const (
	// systemPromptMetadata ワインラベル読み取り専用プロンプト
	systemPromptMetadata = `You read wine bottle labels and return structured metadata.
Return JSON only, no prose, no markdown.

Fields:
- wineName: the wine's name as printed (cuvée or appellation name)
- producer: winery / château / domaine
- grapeVariety: array of grape varieties (empty array if not printed and not certain)
- region: wine region or appellation
- country: country of origin
- vintage: four-digit year, or "unknown"

Rules:
1. Only report what is visible on the label or certain from the appellation.
2. Use empty strings for fields you cannot read. Never invent a producer.
3. The OCR text, when given, may contain recognition errors; prefer the image.

Output format:
{"wineName":"","producer":"","grapeVariety":[],"region":"","country":"","vintage":"unknown"}`

	// systemPromptTaste 味わいプロファイル生成プロンプト
	systemPromptTaste = `You are a Swedish sommelier writing for Systembolaget-style product pages.
Given wine metadata and optional web facts, return JSON only:

{
  "sötma": 1-5, "fyllighet": 1-5, "fruktighet": 1-5, "fruktsyra": 1-5,
  "tannin": 1-5 or null for white wines, "ek": 1-5 or null if unoaked,
  "karaktär": "short character description in Swedish",
  "smak": "taste description in Swedish",
  "servering": "serving temperature and advice in Swedish",
  "summary": "ONE sentence, 20-28 words, Swedish, concrete about style and taste",
  "passar_till": ["exactly", "three", "dishes"],
  "used_signals": ["3-5 short bullets naming which facts drove the numbers"]
}

Rules:
1. Numbers in steps of 0.5.
2. Avoid generic words (god, trevlig, fin, härlig, balanserad) in the summary.
3. Do not invent awards, scores or prices.`

	// systemPromptRepairSummary 要約の書き直しプロンプト
	systemPromptRepairSummary = `Rewrite the wine summary so it matches the numeric taste profile.
One Swedish sentence, 20-28 words, concrete and specific.
Do not introduce facts that are not in the input. Avoid generic adjectives.
Return JSON only: {"summary":"..."}`

	// systemPromptRepairPairings 料理の組み合わせ再生成プロンプト
	systemPromptRepairPairings = `Suggest exactly three food pairings in Swedish for a wine with the given taste profile.
Return JSON only: {"passar_till":["","",""]}`

	// systemPromptSommelier ソムリエ推薦プロンプト
	systemPromptSommelier = `You are a sommelier. Recommend wines for the user's request.
Return JSON only:
{"recommendations":[{"name":"","style":"","reason":"","price_range":""}],"confidence":0.0-1.0,"notes":[""]}
At most 10 recommendations and 5 notes.`

	// systemPromptForYou 好みに基づく推薦プロンプト
	systemPromptForYou = `Suggest wines the user is likely to enjoy, based on the taste profiles of wines they saved.
Return JSON only:
{"picks":[{"name":"","why":"","match":0.0-1.0}],"confidence":0.0-1.0,"notes":[""]}
At most 10 picks and 5 notes.`
)

var systemPrompts = map[domain.AITask]string{
	domain.TaskTasteProfile:   systemPromptTaste,
	domain.TaskRepairSummary:  systemPromptRepairSummary,
	domain.TaskRepairPairings: systemPromptRepairPairings,
	domain.TaskSommelier:      systemPromptSommelier,
	domain.TaskForYou:         systemPromptForYou,
}

// ClaudeRepository Claude APIのリポジトリ実装
type ClaudeRepository struct {
	apiKey      string
	model       string
	maxTokens   int
	httpClient  *http.Client
	apiEndpoint string // テスト用にエンドポイントを差し替え可能に
}

// NewClaudeRepository 新しいClaudeRepositoryを作成
func NewClaudeRepository(cfg *config.AnthropicConfig) *ClaudeRepository {
	return &ClaudeRepository{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		apiEndpoint: "https://api.anthropic.com/v1/messages",
	}
}

// SetHTTPClient テスト用にHTTPクライアントを設定（テストコードからのみ使用）
func (r *ClaudeRepository) SetHTTPClient(client *http.Client) {
	r.httpClient = client
}

// ExtractMetadata ラベル画像からワイン情報を抽出
func (r *ClaudeRepository) ExtractMetadata(ctx context.Context, imageData []byte, mediaType, ocrHint string) (*domain.AIResult, error) {
	// 画像の形式を判定（簡易版）
	if mediaType == "" {
		mediaType = "image/png"
		if len(imageData) > 2 && imageData[0] == 0xFF && imageData[1] == 0xD8 {
			mediaType = "image/jpeg"
		}
	}

	userPrompt := "Extract the wine metadata from this label and return JSON."
	if ocrHint != "" {
		userPrompt += "\n\nOCR text from the label (may contain errors):\n" + ocrHint
	}

	content := []map[string]interface{}{
		{
			"type": "image",
			"source": map[string]string{
				"type":       "base64",
				"media_type": mediaType,
				"data":       base64.StdEncoding.EncodeToString(imageData),
			},
		},
		{
			"type": "text",
			"text": userPrompt,
		},
	}

	return r.send(ctx, systemPromptMetadata, userPrompt, content)
}

// Complete タスクのシステムプロンプトでテキスト生成
func (r *ClaudeRepository) Complete(ctx context.Context, task domain.AITask, userPrompt string) (*domain.AIResult, error) {
	systemPrompt, ok := systemPrompts[task]
	if !ok {
		return nil, fmt.Errorf("unknown AI task: %s", task)
	}

	content := []map[string]interface{}{
		{"type": "text", "text": userPrompt},
	}
	return r.send(ctx, systemPrompt, userPrompt, content)
}

// send Messages APIの共通処理
func (r *ClaudeRepository) send(ctx context.Context, systemPrompt, userPrompt string, content []map[string]interface{}) (*domain.AIResult, error) {
	requestBody := map[string]interface{}{
		"model":      r.model,
		"max_tokens": r.maxTokens,
		"system":     systemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": content,
			},
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	text := ""
	for _, block := range response.Content {
		if block.Type == "" || block.Type == "text" {
			text += block.Text
		}
	}

	return domain.NewAIResult(
		userPrompt,
		text,
		response.Usage.InputTokens,
		response.Usage.OutputTokens,
		r.model,
	), nil
}

// ProviderName プロバイダー名を返す
func (r *ClaudeRepository) ProviderName() string {
	return "Anthropic Claude"
}
