package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winescan-app/internal/modules/scan/domain"
)

func TestRefineUseCase_Refine(t *testing.T) {
	ctx := context.Background()

	setup := func() (*pipelineFixture, *RefineUseCase) {
		f := newPipelineFixture()
		uc := NewRefineUseCase(f.cache, NewFactLookupUseCase(f.facts, time.Second), NewTasteUseCase(f.ai, time.Second), 5*time.Second)
		return f, uc
	}

	t.Run("正常系: 新しい結果で置き換え、保存状態を引き継ぐ", func(t *testing.T) {
		f, uc := setup()
		f.cache.PutAnalysis(ctx, &domain.CachedAnalysis{
			LabelHash:  "h",
			OCRText:    "BAROLO",
			ImageThumb: "thumb",
			Saved:      true,
			RemoteID:   "remote-1",
			Result: domain.AnalysisResult{
				Metadata: domain.WineMetadata{WineName: "Barolo?"},
				Meta:     domain.AnalysisMeta{Language: "ita"},
			},
		})
		f.cache.Flush()

		result, err := uc.Refine(ctx, "h", domain.WineMetadata{WineName: " Barolo Castiglione ", Producer: "Vietti", Region: "Piemonte"})
		require.NoError(t, err)
		f.cache.Flush()

		assert.Equal(t, "Barolo Castiglione", result.Metadata.WineName)
		assert.Equal(t, domain.VintageUnknown, result.Metadata.Vintage)
		assert.Equal(t, "BAROLO", result.Evidence.OCRText)
		assert.Equal(t, "ita", result.Meta.Language)

		entry, ok := f.cache.GetAnalysis(ctx, "h")
		require.True(t, ok)
		assert.Equal(t, "Barolo Castiglione", entry.Result.Metadata.WineName)
		assert.True(t, entry.Saved)
		assert.Equal(t, "remote-1", entry.RemoteID)
		assert.Equal(t, "thumb", entry.ImageThumb)
	})

	t.Run("異常系: キャッシュにない", func(t *testing.T) {
		_, uc := setup()
		_, err := uc.Refine(ctx, "missing", domain.WineMetadata{WineName: "Barolo"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("異常系: 空のメタデータ", func(t *testing.T) {
		f, uc := setup()
		f.cache.PutAnalysis(ctx, &domain.CachedAnalysis{LabelHash: "h"})
		f.cache.Flush()

		_, err := uc.Refine(ctx, "h", domain.WineMetadata{Producer: "Vietti"})
		assert.ErrorIs(t, err, domain.ErrContentUnreadable)
	})
}
