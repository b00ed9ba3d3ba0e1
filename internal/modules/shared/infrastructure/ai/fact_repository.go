package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"winescan-app/internal/config"
	"winescan-app/internal/modules/scan/domain"
)

// systemPromptFacts ファクト検索プロンプト
const systemPromptFacts = `You are a wine researcher with web access.
Write a short factual summary (max 80 words) about the wine: producer background, appellation rules,
typical style, grape facts. Cite 1-4 source URLs inline. No tasting-note speculation.`

// FactRepository OpenAI互換APIによるファクト検索（既定はPerplexity）
type FactRepository struct {
	client  *openai.Client
	model   string
	enabled bool
}

// NewFactRepository 新しいFactRepositoryを作成
func NewFactRepository(cfg *config.FactLookupConfig) *FactRepository {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &FactRepository{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		enabled: cfg.APIKey != "",
	}
}

// Enabled APIキーが設定されているか
func (r *FactRepository) Enabled() bool {
	return r.enabled
}

// Lookup ワインに関する要約を取得
func (r *FactRepository) Lookup(ctx context.Context, query string) (*domain.AIResult, error) {
	if !r.enabled {
		return nil, errors.New("fact lookup api key is not configured")
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPromptFacts},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: 0.2,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, fmt.Errorf("fact lookup request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("fact lookup returned no choices")
	}

	return domain.NewAIResult(
		query,
		resp.Choices[0].Message.Content,
		resp.Usage.PromptTokens,
		resp.Usage.CompletionTokens,
		r.model,
	), nil
}
