package usecase

import (
	"context"
	"errors"

	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
)

// OCRUseCase ラベル画像の文字認識
type OCRUseCase struct {
	recognizer domain.TextRecognizer
}

// NewOCRUseCase 新しいOCRUseCaseを作成
func NewOCRUseCase(recognizer domain.TextRecognizer) *OCRUseCase {
	return &OCRUseCase{recognizer: recognizer}
}

// Recognize UIロケールから認識言語を選び、正規化済みテキストを返す
func (uc *OCRUseCase) Recognize(ctx context.Context, img *domain.PreprocessedImage, uiLanguage string) (*domain.OcrResult, error) {
	lang := service.ResolveOCRLanguage(uiLanguage)

	text, err := uc.recognizer.Recognize(ctx, img.Data, lang)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, domain.NewScanError(domain.CodeOcrEngine, domain.StageOCR, "recognition failed", err)
	}

	return &domain.OcrResult{
		Text:     service.NormalizeOCRText(text),
		Language: lang,
	}, nil
}

// Prewarm 撮影前にエンジンを起動しておく
func (uc *OCRUseCase) Prewarm(ctx context.Context, uiLanguage string) (string, error) {
	lang := service.ResolveOCRLanguage(uiLanguage)
	if err := uc.recognizer.Prewarm(ctx, lang); err != nil {
		return lang, domain.NewScanError(domain.CodeOcrEngine, domain.StageOCR, "prewarm failed", err)
	}
	return lang, nil
}
