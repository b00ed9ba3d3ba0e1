package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"winescan-app/internal/modules/scan/domain"
)

func TestParseFactText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantSummary string
		wantSources []string
	}{
		{
			name:        "正常系: 末尾の句読点を除去し本文からURLを削除",
			text:        "Vietti is a historic Barolo producer [1]. See https://vietti.it/wines, and https://example.com/barolo.",
			wantSummary: "Vietti is a historic Barolo producer. See, and.",
			wantSources: []string{"https://vietti.it/wines", "https://example.com/barolo"},
		},
		{
			name:        "正常系: 重複を除去",
			text:        "A (https://a.example) B https://a.example C",
			wantSummary: "A B C",
			wantSources: []string{"https://a.example"},
		},
		{
			name:        "境界値: 5件以上は4件まで",
			text:        "https://1.example https://2.example https://3.example https://4.example https://5.example text",
			wantSummary: "text",
			wantSources: []string{"https://1.example", "https://2.example", "https://3.example", "https://4.example"},
		},
		{
			name:        "正常系: URLなし",
			text:        "Furmint from Tokaj.",
			wantSummary: "Furmint from Tokaj.",
			wantSources: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFactText(tt.text)
			assert.Equal(t, tt.wantSummary, got.Summary)
			assert.Equal(t, tt.wantSources, got.Sources)
		})
	}
}

func TestFactLookupUseCase_Lookup(t *testing.T) {
	meta := &domain.WineMetadata{WineName: "Barolo", Producer: "Vietti", GrapeVariety: []string{"Nebbiolo"}, Region: "Piemonte", Vintage: "2018"}

	tests := []struct {
		name        string
		repo        domain.FactRepository
		wantEmpty   bool
		wantSources int
	}{
		{
			name:        "正常系: 要約と出典",
			repo:        &MockFactRepository{EnabledValue: true},
			wantSources: 1,
		},
		{
			name:      "正常系: APIキー未設定",
			repo:      &MockFactRepository{EnabledValue: false},
			wantEmpty: true,
		},
		{
			name:      "正常系: リポジトリなし",
			repo:      nil,
			wantEmpty: true,
		},
		{
			name: "異常系: 失敗は空の結果に縮退",
			repo: &MockFactRepository{EnabledValue: true, LookupFunc: func(ctx context.Context, query string) (*domain.AIResult, error) {
				return nil, errors.New("status 401")
			}},
			wantEmpty: true,
		},
		{
			name: "異常系: タイムアウトも空の結果",
			repo: &MockFactRepository{EnabledValue: true, LookupFunc: func(ctx context.Context, query string) (*domain.AIResult, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}},
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewFactLookupUseCase(tt.repo, 50*time.Millisecond)
			got := uc.Lookup(context.Background(), meta)
			if tt.wantEmpty {
				assert.True(t, got.IsEmpty())
				assert.NotNil(t, got.Sources)
				return
			}
			assert.NotEmpty(t, got.Summary)
			assert.Len(t, got.Sources, tt.wantSources)
		})
	}
}

func TestFactQuery(t *testing.T) {
	q := factQuery(&domain.WineMetadata{WineName: "Tokaji", GrapeVariety: []string{"Furmint", "Hárslevelű"}, Region: "Tokaj", Country: "Ungern", Vintage: domain.VintageUnknown})
	assert.Contains(t, q, "Wine: Tokaji")
	assert.Contains(t, q, "Grapes: Furmint, Hárslevelű")
	assert.Contains(t, q, "Region: Tokaj")
	assert.NotContains(t, q, domain.VintageUnknown)
}
