package domain

import "time"

// AIResult AI呼び出し結果のエンティティ
type AIResult struct {
	Prompt       string
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
	ProcessedAt  time.Time
}

// NewAIResult 新しいAIResultを作成
func NewAIResult(prompt, text string, inputTokens, outputTokens int, model string) *AIResult {
	return &AIResult{
		Prompt:       prompt,
		Text:         text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Model:        model,
		ProcessedAt:  time.Now(),
	}
}

// HasText 応答テキストがあるか
func (r *AIResult) HasText() bool {
	return r != nil && r.Text != ""
}

// TotalTokens 合計トークン数を返す
func (r *AIResult) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}
