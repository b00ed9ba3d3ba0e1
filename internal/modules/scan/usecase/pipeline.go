package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
)

// ImageLimits 前処理の2つの上限（撮影時の圧縮とVision送信前の縮小）
type ImageLimits struct {
	CaptureMaxDimension int
	CaptureQuality      int
	VisionMaxDimension  int
	VisionQuality       int
}

// PipelineOptions パイプライン全体の設定
type PipelineOptions struct {
	Timeout         time.Duration
	DefaultLanguage string
	Limits          ImageLimits
}

// ScanOptions 1回のスキャンの指定
type ScanOptions struct {
	RunID     string
	Language  string
	Progress  domain.ProgressFunc
	SkipCache bool
}

// ScanOutcome スキャン結果
type ScanOutcome struct {
	Result     *domain.AnalysisResult `json:"result"`
	LabelHash  string                 `json:"label_hash"`
	CacheHit   bool                   `json:"cache_hit"`
	ImageThumb string                 `json:"image_thumb,omitempty"`
}

// ScanPipeline 前処理からキャッシュ書き込みまでを順に実行する
type ScanPipeline struct {
	images   domain.ImageProcessor
	ocr      *OCRUseCase
	cache    *LabelCache
	metadata *MetadataUseCase
	facts    *FactLookupUseCase
	taste    *TasteUseCase
	opts     PipelineOptions
	now      func() time.Time
}

// NewScanPipeline 新しいScanPipelineを作成
func NewScanPipeline(
	images domain.ImageProcessor,
	ocr *OCRUseCase,
	cache *LabelCache,
	metadata *MetadataUseCase,
	facts *FactLookupUseCase,
	taste *TasteUseCase,
	opts PipelineOptions,
) *ScanPipeline {
	return &ScanPipeline{
		images:   images,
		ocr:      ocr,
		cache:    cache,
		metadata: metadata,
		facts:    facts,
		taste:    taste,
		opts:     opts,
		now:      time.Now,
	}
}

// Timeout パイプライン全体の期限
func (p *ScanPipeline) Timeout() time.Duration {
	return p.opts.Timeout
}

// Run スキャンを実行する
// 失敗時は必ずerrorイベントを通知し、部分的な結果は返さない
func (p *ScanPipeline) Run(ctx context.Context, img domain.ScanImage, opts ScanOptions) (*ScanOutcome, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Language == "" {
		opts.Language = p.opts.DefaultLanguage
	}

	ctx = logger.ContextWithFields(ctx, logrus.Fields{"run_id": opts.RunID})
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.opts.Timeout, domain.ErrPipelineTimeout)
		defer cancel()
	}

	started := p.now()
	reporter := newProgressReporter(opts.RunID, opts.Progress)

	outcome, err := p.run(ctx, img, opts, reporter)
	if err != nil {
		err = p.classify(ctx, reporter.currentStep(), err)
		userMessage := "Något gick fel. Försök igen."
		if scanErr, ok := domain.AsScanError(err); ok {
			userMessage = scanErr.UserMessage()
		}
		reporter.emit(domain.StepError, 100, labelError, userMessage)

		logger.WithContext(ctx).WithError(err).WithField("elapsed_ms", p.now().Sub(started).Milliseconds()).Warn("scan failed")
		return nil, err
	}

	note := outcome.Result.Metadata.DisplayName()
	if outcome.CacheHit {
		note = cacheHitNote(note)
	}
	reporter.emit(domain.StepDone, 100, labelDone, note)
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"label_hash": outcome.LabelHash,
		"cache_hit":  outcome.CacheHit,
		"elapsed_ms": p.now().Sub(started).Milliseconds(),
	}).Info("scan completed")
	return outcome, nil
}

func (p *ScanPipeline) run(ctx context.Context, img domain.ScanImage, opts ScanOptions, reporter *progressReporter) (*ScanOutcome, error) {
	// prep: 撮影時の圧縮 → Vision用の縮小
	reporter.emit(domain.StepPrep, 5, labelPrep, "")
	prepared, err := await(ctx, func() (*domain.PreprocessedImage, error) {
		captured, err := p.images.Preprocess(img, p.opts.Limits.CaptureMaxDimension, p.opts.Limits.CaptureQuality)
		if err != nil {
			return nil, err
		}
		return p.images.Preprocess(captured.ToScanImage(), p.opts.Limits.VisionMaxDimension, p.opts.Limits.VisionQuality)
	})
	if err != nil {
		return nil, err
	}

	// ocr
	reporter.emit(domain.StepOCR, 20, labelOCR, "")
	ocrResult, err := p.recognize(ctx, prepared, opts)
	if err != nil {
		return nil, err
	}

	// テキストがない場合は呼び出し元の元画像でハッシュし、事前照会のキーと一致させる
	labelHash := p.cache.Key(ocrResult.Text, img.Data)
	ctx = logger.ContextWithFields(ctx, logrus.Fields{"label_hash": labelHash})

	if !opts.SkipCache {
		cached, err := await(ctx, func() (*domain.CachedAnalysis, error) {
			entry, ok := p.cache.GetAnalysis(ctx, labelHash)
			if !ok {
				return nil, nil
			}
			return entry, nil
		})
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return p.fromCache(ctx, cached), nil
		}
	}

	thumb, err := p.images.Thumbnail(prepared)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("thumbnail generation failed")
	}

	// analysis: メタデータ → 事実 → 味わい → メーター補完
	reporter.emit(domain.StepAnalysis, 45, labelMetadata, "")
	meta, err := await(ctx, func() (*domain.WineMetadata, error) {
		return p.metadata.Extract(ctx, prepared, ocrResult.Text)
	})
	if err != nil {
		return nil, err
	}

	reporter.emit(domain.StepAnalysis, 55, labelFacts, meta.DisplayName())
	facts, err := await(ctx, func() (domain.FactSummary, error) {
		return p.facts.Lookup(ctx, meta), nil
	})
	if err != nil {
		return nil, err
	}

	reporter.emit(domain.StepAnalysis, 70, labelTaste, "")
	taste, err := await(ctx, func() (*TasteOutcome, error) {
		return p.taste.Generate(ctx, meta, facts)
	})
	if err != nil {
		return nil, err
	}

	reporter.emit(domain.StepAnalysis, 85, labelMeters, "")
	result := assembleResult(meta, facts, taste, ocrResult, labelHash, p.now())

	p.cache.PutAnalysis(ctx, &domain.CachedAnalysis{
		LabelHash:  labelHash,
		Result:     *result,
		OCRText:    ocrResult.Text,
		ImageThumb: thumb,
		CachedAt:   p.now(),
	})

	return &ScanOutcome{
		Result:     result,
		LabelHash:  labelHash,
		ImageThumb: thumb,
	}, nil
}

// recognize 画像ハッシュでOCRテキストのキャッシュを引き、なければ認識する
func (p *ScanPipeline) recognize(ctx context.Context, prepared *domain.PreprocessedImage, opts ScanOptions) (*domain.OcrResult, error) {
	imageHash := service.HashBytes(prepared.Data)
	lang := service.ResolveOCRLanguage(opts.Language)

	if !opts.SkipCache {
		if text, ok := p.cache.GetOCRText(ctx, imageHash); ok {
			return &domain.OcrResult{Text: text, Language: lang}, nil
		}
	}

	result, err := await(ctx, func() (*domain.OcrResult, error) {
		return p.ocr.Recognize(ctx, prepared, opts.Language)
	})
	if err != nil {
		return nil, err
	}

	if result.HasText() {
		p.cache.PutOCRText(ctx, imageHash, result.Text)
	}
	return result, nil
}

// fromCache キャッシュヒット時はAI段階を飛ばす
// メーター導入前のエントリはヒューリスティックで補う
func (p *ScanPipeline) fromCache(ctx context.Context, cached *domain.CachedAnalysis) *ScanOutcome {
	result := cached.Result
	if result.NeedsMeters() {
		profile := service.DeriveMeters(result.NarrativeText())
		result.Taste = &profile
		result.Meta.MetersSource = domain.MetersSourceEstimated
		result.Meta.FilledMeters = []string{
			domain.MeterSotma, domain.MeterFyllighet, domain.MeterFruktighet, domain.MeterFruktsyra,
		}
		logger.WithContext(ctx).Info("derived meters for legacy cache entry")
	}

	return &ScanOutcome{
		Result:     &result,
		LabelHash:  cached.LabelHash,
		CacheHit:   true,
		ImageThumb: cached.ImageThumb,
	}
}

func cacheHitNote(name string) string {
	if name == "" {
		return labelCacheHit
	}
	return labelCacheHit + ": " + name
}

// classify コンテキスト終了をタイムアウト／置き換え／キャンセルに変換する
func (p *ScanPipeline) classify(ctx context.Context, step domain.Step, err error) error {
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		switch {
		case errors.Is(cause, domain.ErrPipelineTimeout):
			return domain.NewScanError(domain.CodePipelineTimeout, string(step),
				fmt.Sprintf("exceeded %s", p.opts.Timeout), err)
		case errors.Is(cause, domain.ErrSuperseded):
			return domain.NewScanError(domain.CodeSuperseded, string(step), "superseded by a newer scan", nil)
		default:
			return domain.NewScanError(domain.CodeCanceled, string(step), "scan canceled", cause)
		}
	}
	return err
}

// assembleResult 各段階の結果を1つの解析結果にまとめる
// AIが返さなかった基本次元だけヒューリスティックで埋める
func assembleResult(meta *domain.WineMetadata, facts domain.FactSummary, taste *TasteOutcome, ocr *domain.OcrResult, labelHash string, now time.Time) *domain.AnalysisResult {
	result := &domain.AnalysisResult{
		Metadata:    *meta,
		Karaktar:    taste.Karaktar,
		Smak:        taste.Smak,
		Servering:   taste.Servering,
		PassarTill:  taste.PassarTill,
		Summary:     taste.Summary,
		UsedSignals: taste.UsedSignals,
		Evidence: domain.Evidence{
			OCRText:     ocr.Text,
			Sources:     facts.Sources,
			FactSummary: facts.Summary,
		},
		Meta: domain.AnalysisMeta{
			Repairs:    taste.Repairs,
			LabelHash:  labelHash,
			Language:   ocr.Language,
			Model:      taste.Model,
			AnalyzedAt: now,
		},
	}
	if result.Evidence.Sources == nil {
		result.Evidence.Sources = []string{}
	}

	profile, filled := service.FillMissing(taste.Taste, result.NarrativeText())
	result.Taste = &profile
	result.Meta.FilledMeters = filled
	result.Meta.MetersSource = metersSource(filled, facts)
	return result
}

// metersSource 4次元すべてをAIが返し、かつWeb出典がある場合のみ"web"
func metersSource(filled []string, facts domain.FactSummary) string {
	if len(filled) == 0 && len(facts.Sources) > 0 {
		return domain.MetersSourceWeb
	}
	return domain.MetersSourceEstimated
}

// await 処理を別ゴルーチンで実行し、全体の期限を優先して待つ
// 期限後に処理が戻っても結果は捨てられる
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	case o := <-done:
		return o.value, o.err
	}
}
