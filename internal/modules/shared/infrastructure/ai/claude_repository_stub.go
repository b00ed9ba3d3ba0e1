//go:build no_ai

package ai

import (
	"context"
	"errors"

	"winescan-app/internal/config"
	"winescan-app/internal/modules/scan/domain"
)

// ErrAIDisabled no_aiビルドでAI呼び出しを行った
var ErrAIDisabled = errors.New("AI gateway disabled in this build")

// ClaudeRepository no_aiビルド用のスタブ
type ClaudeRepository struct{}

// NewClaudeRepository 新しいClaudeRepositoryを作成
func NewClaudeRepository(_ *config.AnthropicConfig) *ClaudeRepository {
	return &ClaudeRepository{}
}

// ExtractMetadata 常にErrAIDisabledを返す
func (r *ClaudeRepository) ExtractMetadata(_ context.Context, _ []byte, _, _ string) (*domain.AIResult, error) {
	return nil, ErrAIDisabled
}

// Complete 常にErrAIDisabledを返す
func (r *ClaudeRepository) Complete(_ context.Context, _ domain.AITask, _ string) (*domain.AIResult, error) {
	return nil, ErrAIDisabled
}

// ProviderName プロバイダー名を返す
func (r *ClaudeRepository) ProviderName() string {
	return "disabled"
}
