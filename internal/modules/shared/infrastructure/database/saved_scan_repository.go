package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	cellardomain "winescan-app/internal/modules/cellar/domain"
	"winescan-app/internal/modules/scan/domain"
)

// SavedScanModel 保存スキャンのBUNモデル
type SavedScanModel struct {
	bun.BaseModel `bun:"table:saved_scans"`

	ID           string    `bun:"id,pk,type:varchar(36)"`
	UserID       string    `bun:"user_id,notnull,type:varchar(128)"`
	LabelHash    string    `bun:"label_hash,notnull,type:varchar(64)"`
	RawOCR       string    `bun:"raw_ocr,type:text"`
	ImageThumb   string    `bun:"image_thumb,type:mediumtext"`
	AnalysisJSON string    `bun:"analysis_json,notnull,type:longtext"`
	Vintage      string    `bun:"vintage,type:varchar(16)"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// BunScanRepository 保存スキャンのBUN実装
type BunScanRepository struct {
	db *bun.DB
}

// NewBunScanRepository 新しいBunScanRepositoryを作成
func NewBunScanRepository(db *bun.DB) *BunScanRepository {
	return &BunScanRepository{db: db}
}

// Save スキャンを保存し、生成したIDを返す
func (r *BunScanRepository) Save(ctx context.Context, scan *cellardomain.SavedScan) (string, error) {
	analysis, err := json.Marshal(scan.Analysis)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	createdAt := scan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	model := &SavedScanModel{
		ID:           uuid.NewString(),
		UserID:       scan.UserID,
		LabelHash:    scan.LabelHash,
		RawOCR:       scan.RawOCR,
		ImageThumb:   scan.ImageThumb,
		AnalysisJSON: string(analysis),
		Vintage:      scan.Vintage,
		CreatedAt:    createdAt.UTC(),
	}

	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to save scan: %w", err)
	}
	return model.ID, nil
}

// FindByID IDでスキャンを取得
func (r *BunScanRepository) FindByID(ctx context.Context, userID, id string) (*cellardomain.SavedScan, error) {
	model := &SavedScanModel{}
	err := r.db.NewSelect().
		Model(model).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("saved scan %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find saved scan: %w", err)
	}

	return toSavedScan(model)
}

// ListByUser ユーザーの保存スキャンを新しい順に取得
func (r *BunScanRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*cellardomain.SavedScan, error) {
	var models []SavedScanModel
	query := r.db.NewSelect().
		Model(&models).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list saved scans: %w", err)
	}

	scans := make([]*cellardomain.SavedScan, 0, len(models))
	for i := range models {
		scan, err := toSavedScan(&models[i])
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, nil
}

func toSavedScan(model *SavedScanModel) (*cellardomain.SavedScan, error) {
	scan := &cellardomain.SavedScan{
		ID:         model.ID,
		UserID:     model.UserID,
		LabelHash:  model.LabelHash,
		RawOCR:     model.RawOCR,
		ImageThumb: model.ImageThumb,
		Vintage:    model.Vintage,
		CreatedAt:  model.CreatedAt,
	}
	if err := json.Unmarshal([]byte(model.AnalysisJSON), &scan.Analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return scan, nil
}
