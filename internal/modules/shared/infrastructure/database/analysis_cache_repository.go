package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"winescan-app/internal/modules/scan/domain"
)

// mysqlErrDupKeyName インデックス名重複（CREATE INDEX の再実行）
const mysqlErrDupKeyName = 1061

// AnalysisCacheModel サーバー側解析キャッシュのBUNモデル
type AnalysisCacheModel struct {
	bun.BaseModel `bun:"table:analysis_cache"`

	LabelHash  string     `bun:"label_hash,pk,type:varchar(64)"`
	Payload    string     `bun:"payload,notnull,type:longtext"`
	OCRText    string     `bun:"ocr_text,type:text"`
	ImageThumb string     `bun:"image_thumb,type:mediumtext"`
	Saved      bool       `bun:"saved,notnull,default:false"`
	RemoteID   *string    `bun:"remote_id,type:varchar(36)"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	ExpiresAt  *time.Time `bun:"expires_at"`
}

// BunAnalysisCacheRepository 解析キャッシュのBUN実装
type BunAnalysisCacheRepository struct {
	db *bun.DB
}

// NewBunAnalysisCacheRepository 新しいBunAnalysisCacheRepositoryを作成
func NewBunAnalysisCacheRepository(db *bun.DB) *BunAnalysisCacheRepository {
	return &BunAnalysisCacheRepository{db: db}
}

// FindValid 有効期限内のエントリを取得する
// 期限切れの行は読み取り時に無視するだけで削除しない
func (r *BunAnalysisCacheRepository) FindValid(ctx context.Context, labelHash string, now time.Time) (*domain.CachedAnalysis, error) {
	model := &AnalysisCacheModel{}
	err := r.db.NewSelect().
		Model(model).
		Where("label_hash = ?", labelHash).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("expires_at IS NULL").WhereOr("expires_at > ?", now.UTC())
		}).
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis cache %s: %w", labelHash, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis cache: %w", err)
	}

	return toCachedAnalysis(model)
}

// Upsert エントリを作成、既存なら置き換える
func (r *BunAnalysisCacheRepository) Upsert(ctx context.Context, entry *domain.CachedAnalysis) error {
	model, err := toAnalysisCacheModel(entry)
	if err != nil {
		return err
	}

	_, err = r.db.NewInsert().
		Model(model).
		On("DUPLICATE KEY UPDATE").
		Set("payload = VALUES(payload)").
		Set("ocr_text = VALUES(ocr_text)").
		Set("image_thumb = VALUES(image_thumb)").
		Set("saved = VALUES(saved)").
		Set("remote_id = VALUES(remote_id)").
		Set("created_at = VALUES(created_at)").
		Set("expires_at = VALUES(expires_at)").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis cache: %w", err)
	}
	return nil
}

func toAnalysisCacheModel(entry *domain.CachedAnalysis) (*AnalysisCacheModel, error) {
	payload, err := json.Marshal(entry.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}

	model := &AnalysisCacheModel{
		LabelHash:  entry.LabelHash,
		Payload:    string(payload),
		OCRText:    entry.OCRText,
		ImageThumb: entry.ImageThumb,
		Saved:      entry.Saved,
		CreatedAt:  entry.CachedAt.UTC(),
	}
	if entry.RemoteID != "" {
		model.RemoteID = &entry.RemoteID
	}
	if entry.ExpiresAt != nil {
		exp := entry.ExpiresAt.UTC()
		model.ExpiresAt = &exp
	}
	return model, nil
}

func toCachedAnalysis(model *AnalysisCacheModel) (*domain.CachedAnalysis, error) {
	entry := &domain.CachedAnalysis{
		LabelHash:  model.LabelHash,
		OCRText:    model.OCRText,
		ImageThumb: model.ImageThumb,
		Saved:      model.Saved,
		CachedAt:   model.CreatedAt,
		ExpiresAt:  model.ExpiresAt,
	}
	if model.RemoteID != nil {
		entry.RemoteID = *model.RemoteID
	}
	if err := json.Unmarshal([]byte(model.Payload), &entry.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return entry, nil
}

func isDuplicateKeyName(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDupKeyName
}
