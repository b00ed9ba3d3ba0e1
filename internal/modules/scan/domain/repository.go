package domain

import (
	"context"
	"time"
)

// AITask システムプロンプトの種類
type AITask string

const (
	TaskTasteProfile   AITask = "taste_profile"
	TaskRepairSummary  AITask = "repair_summary"
	TaskRepairPairings AITask = "repair_pairings"
	TaskSommelier      AITask = "sommelier"
	TaskForYou         AITask = "for_you"
)

// AIRepository AIゲートウェイのリポジトリインターフェース
type AIRepository interface {
	// ExtractMetadata ラベル画像からワイン情報をJSONで抽出（OCRテキストはヒントとして添付）
	ExtractMetadata(ctx context.Context, imageData []byte, mediaType, ocrHint string) (*AIResult, error)

	// Complete タスクに対応するシステムプロンプトでテキスト生成
	Complete(ctx context.Context, task AITask, userPrompt string) (*AIResult, error)

	// ProviderName プロバイダー名を返す
	ProviderName() string
}

// FactRepository ファクト検索のリポジトリインターフェース
type FactRepository interface {
	// Enabled APIキーが設定されているか
	Enabled() bool

	// Lookup 自由記述の要約（URLを含みうる）を返す
	Lookup(ctx context.Context, query string) (*AIResult, error)
}

// TextRecognizer OCRエンジンのインターフェース
type TextRecognizer interface {
	Recognize(ctx context.Context, imageData []byte, language string) (string, error)
	Prewarm(ctx context.Context, language string) error
}

// ImageProcessor 画像前処理のインターフェース
type ImageProcessor interface {
	// Preprocess 長辺をmaxDimension以下に縮小し、quality でJPEG再圧縮する
	Preprocess(img ScanImage, maxDimension, quality int) (*PreprocessedImage, error)

	// Thumbnail 保存用サムネイル（base64 JPEG）
	Thumbnail(img *PreprocessedImage) (string, error)
}

// CacheRepository ローカルキャッシュのリポジトリインターフェース
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// AnalysisCacheRepository サーバー側の解析キャッシュ（expires_at付き）
type AnalysisCacheRepository interface {
	// FindValid 有効期限内のエントリを返す。期限切れは削除せずErrNotFound
	FindValid(ctx context.Context, labelHash string, now time.Time) (*CachedAnalysis, error)

	// Upsert エントリを作成または置き換える
	Upsert(ctx context.Context, entry *CachedAnalysis) error
}
