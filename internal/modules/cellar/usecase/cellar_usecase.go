package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
	"winescan-app/internal/modules/cellar/domain"
	scandomain "winescan-app/internal/modules/scan/domain"
)

const (
	// DefaultListLimit 一覧取得の既定件数
	DefaultListLimit = 20
	// MaxListLimit 一覧取得の上限件数
	MaxListLimit = 100
)

// CellarUseCase スキャン結果をユーザーのセラーに保存するユースケース
type CellarUseCase struct {
	repo   domain.ScanRepository
	source domain.AnalysisSource
	now    func() time.Time
}

// NewCellarUseCase 新しいCellarUseCaseを作成。repoがnilならリモート保存は無効
func NewCellarUseCase(repo domain.ScanRepository, source domain.AnalysisSource) *CellarUseCase {
	return &CellarUseCase{
		repo:   repo,
		source: source,
		now:    time.Now,
	}
}

// Enabled リモート保存が使えるか
func (uc *CellarUseCase) Enabled() bool {
	return uc.repo != nil
}

// Save キャッシュ済みの解析結果を保存し、キャッシュに保存済みフラグを立てる
// 既に保存済みのラベルは同じレコードを返す
func (uc *CellarUseCase) Save(ctx context.Context, userID, labelHash string) (*domain.SavedScan, error) {
	if err := uc.check(userID); err != nil {
		return nil, err
	}
	if labelHash == "" {
		return nil, fmt.Errorf("label hash is required: %w", scandomain.ErrNotFound)
	}

	entry, ok := uc.source.GetAnalysis(ctx, labelHash)
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", labelHash, scandomain.ErrNotFound)
	}

	if entry.Saved && entry.RemoteID != "" {
		existing, err := uc.repo.FindByID(ctx, userID, entry.RemoteID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, scandomain.ErrNotFound) {
			return nil, err
		}
	}

	scan := &domain.SavedScan{
		UserID:     userID,
		LabelHash:  labelHash,
		RawOCR:     entry.OCRText,
		ImageThumb: entry.ImageThumb,
		Analysis:   entry.Result,
		Vintage:    entry.Result.Metadata.Vintage,
		CreatedAt:  uc.now(),
	}

	id, err := uc.repo.Save(ctx, scan)
	if err != nil {
		return nil, fmt.Errorf("failed to save scan: %w", err)
	}
	scan.ID = id

	uc.source.MarkSaved(ctx, labelHash, id)

	logger.WithContext(ctx).WithFields(logrus.Fields{
		"label_hash": labelHash,
		"scan_id":    id,
	}).Info("scan saved to cellar")

	return scan, nil
}

// List ユーザーの保存スキャンを新しい順に返す
func (uc *CellarUseCase) List(ctx context.Context, userID string, limit, offset int) ([]*domain.SavedScan, error) {
	if err := uc.check(userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	return uc.repo.ListByUser(ctx, userID, limit, offset)
}

// Get 保存スキャンを1件取得
func (uc *CellarUseCase) Get(ctx context.Context, userID, id string) (*domain.SavedScan, error) {
	if err := uc.check(userID); err != nil {
		return nil, err
	}
	return uc.repo.FindByID(ctx, userID, id)
}

func (uc *CellarUseCase) check(userID string) error {
	if uc.repo == nil {
		return domain.ErrPersistenceDisabled
	}
	if userID == "" {
		return domain.ErrUnauthorized
	}
	return nil
}
