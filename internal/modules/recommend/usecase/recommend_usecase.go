package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
	cellardomain "winescan-app/internal/modules/cellar/domain"
	"winescan-app/internal/modules/recommend/domain"
	scandomain "winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
)

// maxLikedWines 提案の根拠に使う保存ワインの上限
const maxLikedWines = 20

// SavedWineLister ユーザーの保存スキャン一覧
type SavedWineLister interface {
	List(ctx context.Context, userID string, limit, offset int) ([]*cellardomain.SavedScan, error)
}

// RecommendUseCase ワイン推薦のユースケース
// AIの応答は必ずスキーマ検証を通し、失敗時はフォールバックを返す
type RecommendUseCase struct {
	aiRepo  scandomain.AIRepository
	saved   SavedWineLister
	timeout time.Duration
}

// NewRecommendUseCase 新しいRecommendUseCaseを作成
func NewRecommendUseCase(aiRepo scandomain.AIRepository, saved SavedWineLister, timeout time.Duration) *RecommendUseCase {
	return &RecommendUseCase{
		aiRepo:  aiRepo,
		saved:   saved,
		timeout: timeout,
	}
}

// Sommelier 依頼内容に合うワインを推薦する
func (uc *RecommendUseCase) Sommelier(ctx context.Context, req domain.SommelierRequest) service.ValidationResult[domain.SommelierResponse] {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n", strings.TrimSpace(req.Query))
	if req.Dish != "" {
		fmt.Fprintf(&b, "Dish: %s\n", req.Dish)
	}
	if req.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", req.Budget)
	}
	writeLanguage(&b, req.Language)

	raw := uc.complete(ctx, scandomain.TaskSommelier, b.String())
	return service.ValidateResponse(raw, domain.SommelierFallback())
}

// ForYou 保存済みワインの味わいから好みに合うワインを提案する
// リクエストにワインがなければユーザーのセラーから読み込む
func (uc *RecommendUseCase) ForYou(ctx context.Context, userID string, req domain.ForYouRequest) service.ValidationResult[domain.ForYouResponse] {
	wines := req.Wines
	if len(wines) == 0 {
		wines = uc.loadSaved(ctx, userID)
	}
	if len(wines) > maxLikedWines {
		wines = wines[:maxLikedWines]
	}

	payload, err := json.Marshal(wines)
	if err != nil {
		return service.ValidateResponse(nil, domain.ForYouFallback())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Saved wines: %s\n", payload)
	writeLanguage(&b, req.Language)

	raw := uc.complete(ctx, scandomain.TaskForYou, b.String())
	return service.ValidateResponse(raw, domain.ForYouFallback())
}

// complete AIを呼び出す。失敗時はnilを返し、検証側でフォールバックさせる
func (uc *RecommendUseCase) complete(ctx context.Context, task scandomain.AITask, prompt string) interface{} {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	result, err := uc.aiRepo.Complete(ctx, task, prompt)
	if err != nil {
		logger.WithContext(ctx).WithFields(logrus.Fields{
			"task":  task,
			"error": err.Error(),
		}).Warn("recommendation call failed")
		return nil
	}
	return result.Text
}

func (uc *RecommendUseCase) loadSaved(ctx context.Context, userID string) []domain.LikedWine {
	if uc.saved == nil || userID == "" {
		return nil
	}

	scans, err := uc.saved.List(ctx, userID, maxLikedWines, 0)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("failed to load saved wines")
		return nil
	}

	wines := make([]domain.LikedWine, 0, len(scans))
	for _, s := range scans {
		wines = append(wines, domain.LikedWine{
			Name:  s.Analysis.Metadata.DisplayName(),
			Taste: s.Analysis.Taste,
		})
	}
	return wines
}

func writeLanguage(b *strings.Builder, lang string) {
	if lang == "" {
		return
	}
	fmt.Fprintf(b, "Answer in language: %s\n", lang)
}
