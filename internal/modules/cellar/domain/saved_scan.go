package domain

import (
	"context"
	"errors"
	"time"

	scandomain "winescan-app/internal/modules/scan/domain"
)

var (
	// ErrUnauthorized ユーザーIDがない
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPersistenceDisabled リモート保存が設定されていない
	ErrPersistenceDisabled = errors.New("persistence disabled")
)

// SavedScan ユーザーのセラーに保存されたスキャン
type SavedScan struct {
	ID         string                    `json:"id"`
	UserID     string                    `json:"user_id"`
	LabelHash  string                    `json:"label_hash"`
	RawOCR     string                    `json:"raw_ocr"`
	ImageThumb string                    `json:"image_thumb,omitempty"`
	Analysis   scandomain.AnalysisResult `json:"analysis"`
	Vintage    string                    `json:"vintage"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// ScanRepository 保存スキャンのリポジトリインターフェース
type ScanRepository interface {
	// Save 保存して生成されたIDを返す
	Save(ctx context.Context, scan *SavedScan) (string, error)

	// FindByID ユーザーのスキャンを1件取得。他ユーザーのものはErrNotFound
	FindByID(ctx context.Context, userID, id string) (*SavedScan, error)

	// ListByUser 新しい順に取得
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*SavedScan, error)
}

// AnalysisSource 保存対象の解析結果を提供するキャッシュ
type AnalysisSource interface {
	GetAnalysis(ctx context.Context, labelHash string) (*scandomain.CachedAnalysis, bool)
	MarkSaved(ctx context.Context, labelHash, remoteID string)
}
