package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"winescan-app/internal/logger"
	"winescan-app/internal/modules/scan/domain"
)

// RefineUseCase 利用者が修正したメタデータで事実検索と味わい生成をやり直す
// 新しい結果でキャッシュのエントリを置き換え、保存状態とサムネイルは引き継ぐ
type RefineUseCase struct {
	cache   *LabelCache
	facts   *FactLookupUseCase
	taste   *TasteUseCase
	timeout time.Duration
	now     func() time.Time
}

// NewRefineUseCase 新しいRefineUseCaseを作成
func NewRefineUseCase(cache *LabelCache, facts *FactLookupUseCase, taste *TasteUseCase, timeout time.Duration) *RefineUseCase {
	return &RefineUseCase{
		cache:   cache,
		facts:   facts,
		taste:   taste,
		timeout: timeout,
		now:     time.Now,
	}
}

// Refine 修正済みメタデータから新しい解析結果を作る
func (uc *RefineUseCase) Refine(ctx context.Context, labelHash string, meta domain.WineMetadata) (*domain.AnalysisResult, error) {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, uc.timeout, domain.ErrPipelineTimeout)
		defer cancel()
	}

	cached, ok := uc.cache.GetAnalysis(ctx, labelHash)
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", labelHash, domain.ErrNotFound)
	}

	meta.Normalize()
	if meta.IsUnreadable() {
		return nil, domain.NewScanError(domain.CodeContentUnreadable, domain.StageMetadata, "corrected metadata is empty", nil)
	}

	facts := uc.facts.Lookup(ctx, &meta)
	taste, err := uc.taste.Generate(ctx, &meta, facts)
	if err != nil {
		if ctx.Err() != nil && errors.Is(context.Cause(ctx), domain.ErrPipelineTimeout) {
			return nil, domain.NewScanError(domain.CodePipelineTimeout, domain.StageTaste, "refine deadline exceeded", err)
		}
		return nil, err
	}

	ocr := &domain.OcrResult{Text: cached.OCRText, Language: cached.Result.Meta.Language}
	result := assembleResult(&meta, facts, taste, ocr, labelHash, uc.now())

	uc.cache.PutAnalysis(ctx, &domain.CachedAnalysis{
		LabelHash:  labelHash,
		Result:     *result,
		OCRText:    cached.OCRText,
		ImageThumb: cached.ImageThumb,
		Saved:      cached.Saved,
		RemoteID:   cached.RemoteID,
		CachedAt:   uc.now(),
	})

	logger.WithContext(ctx).WithField("label_hash", labelHash).Info("analysis refined")
	return result, nil
}
