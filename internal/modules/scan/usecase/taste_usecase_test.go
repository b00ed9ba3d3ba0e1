package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winescan-app/internal/modules/scan/domain"
)

var testMeta = &domain.WineMetadata{
	WineName: "Barolo Castiglione", Producer: "Vietti", GrapeVariety: []string{"Nebbiolo"},
	Region: "Piemonte", Country: "Italien", Vintage: "2018",
}

const vagueTasteJSON = `{"sötma":1,"fyllighet":4,"fruktighet":3,"fruktsyra":4,
"summary":"Nice wine, very pleasant.","passar_till":["Vilt","Risotto","Ost"]}`

const twoPairingsJSON = `{"sötma":1,"fyllighet":4,"fruktighet":3,"fruktsyra":4,
"summary":"` + baroloSummary + `","passar_till":["Vilt","Risotto"]}`

// scriptedAI タスクごとに応答を返すモック
func scriptedAI(responses map[domain.AITask]string) *MockAIRepository {
	return &MockAIRepository{
		CompleteFunc: func(ctx context.Context, task domain.AITask, userPrompt string) (*domain.AIResult, error) {
			text, ok := responses[task]
			if !ok {
				return nil, errors.New("unexpected task " + string(task))
			}
			return domain.NewAIResult(userPrompt, text, 1, 1, "test-model"), nil
		},
	}
}

func TestTasteUseCase_Generate(t *testing.T) {
	t.Run("正常系: 修復なし", func(t *testing.T) {
		ai := &MockAIRepository{}
		uc := NewTasteUseCase(ai, time.Second)

		got, err := uc.Generate(context.Background(), testMeta, domain.FactSummary{})
		require.NoError(t, err)

		assert.Equal(t, baroloSummary, got.Summary)
		assert.Len(t, got.PassarTill, 3)
		assert.Empty(t, got.Repairs)
		assert.Equal(t, "Kraftfull och stram", got.Karaktar)
		require.NotNil(t, got.Taste.Fyllighet)
		assert.Equal(t, 4.5, *got.Taste.Fyllighet)
		assert.Equal(t, []domain.AITask{domain.TaskTasteProfile}, ai.Calls())
	})

	t.Run("正常系: 値の丸めと非数値", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{
			domain.TaskTasteProfile: `{"sotma":7,"fyllighet":"mycket","fruktighet":2.3,"fruktsyra":-1,"tannin":null,
"summary":"` + baroloSummary + `","passar_till":["A","B","C"]}`,
		})
		got, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		require.NoError(t, err)

		assert.Equal(t, 5.0, *got.Taste.Sotma)
		assert.Equal(t, 3.0, *got.Taste.Fyllighet)
		assert.Equal(t, 2.5, *got.Taste.Fruktighet)
		assert.Equal(t, 1.0, *got.Taste.Fruktsyra)
		assert.Nil(t, got.Taste.Tannin)
		assert.Nil(t, got.Taste.Ek)
	})

	t.Run("正常系: 曖昧な要約を修復", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{
			domain.TaskTasteProfile:  vagueTasteJSON,
			domain.TaskRepairSummary: `{"summary":"` + baroloSummary + `"}`,
		})
		got, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		require.NoError(t, err)
		assert.Equal(t, baroloSummary, got.Summary)
		assert.Equal(t, []string{RepairSummary}, got.Repairs)
	})

	t.Run("異常系: 修復後も曖昧ならQualityGate", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{
			domain.TaskTasteProfile:  vagueTasteJSON,
			domain.TaskRepairSummary: `{"summary":"Good and tasty."}`,
		})
		_, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		assert.ErrorIs(t, err, domain.ErrTasteQualityGate)
		assert.Len(t, ai.Calls(), 2)
	})

	t.Run("正常系: 料理2件を修復で3件に", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{
			domain.TaskTasteProfile:   twoPairingsJSON,
			domain.TaskRepairPairings: `{"passar_till":["Viltgryta","Tryffelrisotto","Lagrad ost"]}`,
		})
		got, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Viltgryta", "Tryffelrisotto", "Lagrad ost"}, got.PassarTill)
		assert.Equal(t, []string{RepairPairings}, got.Repairs)
	})

	t.Run("境界値: 修復で4件なら3件に切り詰め", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{
			domain.TaskTasteProfile:   twoPairingsJSON,
			domain.TaskRepairPairings: `{"passar_till":["A","B","C","D"]}`,
		})
		got, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C"}, got.PassarTill)
	})

	t.Run("異常系: 修復後も3件でなければQualityGate", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{
			domain.TaskTasteProfile:   twoPairingsJSON,
			domain.TaskRepairPairings: `{"passar_till":["A","B"]}`,
		})
		_, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		assert.ErrorIs(t, err, domain.ErrTasteQualityGate)
	})

	t.Run("異常系: 修復呼び出しの失敗は最終ゲートで判定", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{
			domain.TaskTasteProfile: twoPairingsJSON,
		})
		_, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		assert.ErrorIs(t, err, domain.ErrTasteQualityGate)
	})

	t.Run("異常系: 要約が空", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{
			domain.TaskTasteProfile:  `{"summary":"","passar_till":["A","B","C"]}`,
			domain.TaskRepairSummary: `{"summary":""}`,
		})
		_, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		assert.ErrorIs(t, err, domain.ErrTasteQualityGate)
	})

	t.Run("異常系: 不正なJSON", func(t *testing.T) {
		ai := scriptedAI(map[domain.AITask]string{domain.TaskTasteProfile: "Sorry, I can't help."})
		_, err := NewTasteUseCase(ai, time.Second).Generate(context.Background(), testMeta, domain.FactSummary{})
		assert.ErrorIs(t, err, domain.ErrResponseParse)
	})

	t.Run("異常系: 呼び出しごとのタイムアウトはAIGateway", func(t *testing.T) {
		ai := &MockAIRepository{CompleteFunc: func(ctx context.Context, task domain.AITask, userPrompt string) (*domain.AIResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		_, err := NewTasteUseCase(ai, 20*time.Millisecond).Generate(context.Background(), testMeta, domain.FactSummary{})
		assert.ErrorIs(t, err, domain.ErrAIGateway)
	})
}

func TestTastePrompt(t *testing.T) {
	prompt := tastePrompt(testMeta, domain.FactSummary{Summary: "Aged 3 years in large Slavonian oak."})
	assert.Contains(t, prompt, `"producer":"Vietti"`)
	assert.Contains(t, prompt, "Web facts:")

	assert.Equal(t, "unknown", describeTaste(domain.PartialTaste{}))
	assert.Equal(t, "sötma 1.0, tannin 4.5", describeTaste(domain.PartialTaste{Sotma: domain.Float64(1), Tannin: domain.Float64(4.5)}))
}
