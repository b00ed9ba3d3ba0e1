package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"winescan-app/internal/config"
	"winescan-app/internal/logger"
	cellarDomain "winescan-app/internal/modules/cellar/domain"
	cellarHandler "winescan-app/internal/modules/cellar/presentation/handler"
	cellarUsecase "winescan-app/internal/modules/cellar/usecase"
	recommendHandler "winescan-app/internal/modules/recommend/presentation/handler"
	recommendUsecase "winescan-app/internal/modules/recommend/usecase"
	scanDomain "winescan-app/internal/modules/scan/domain"
	scanHandler "winescan-app/internal/modules/scan/presentation/handler"
	scanUsecase "winescan-app/internal/modules/scan/usecase"
	sharedAI "winescan-app/internal/modules/shared/infrastructure/ai"
	sharedCache "winescan-app/internal/modules/shared/infrastructure/cache"
	sharedDB "winescan-app/internal/modules/shared/infrastructure/database"
	"winescan-app/internal/modules/shared/infrastructure/imageproc"
	sharedOCR "winescan-app/internal/modules/shared/infrastructure/ocr"
	httpHandler "winescan-app/internal/presentation/http/handler"
)

// schemaTimeout テーブル作成の待ち時間
const schemaTimeout = 30 * time.Second

// options コンテナの構築オプション
type options struct {
	redis  bool
	mysql  bool
	aiRepo scanDomain.AIRepository
}

// Option コンテナの構築オプション
type Option func(*options)

// WithoutRedis ローカルキャッシュ層（Redis）を使わない
func WithoutRedis() Option {
	return func(o *options) { o.redis = false }
}

// WithoutMySQL サーバーキャッシュ層と保存（MySQL）を使わない
func WithoutMySQL() Option {
	return func(o *options) { o.mysql = false }
}

// WithAIRepository AIゲートウェイを差し替える（テスト・CLI用）
func WithAIRepository(repo scanDomain.AIRepository) Option {
	return func(o *options) { o.aiRepo = repo }
}

// Container DIコンテナ
type Container struct {
	// Shared Infrastructure
	aiRepo    scanDomain.AIRepository
	factRepo  *sharedAI.FactRepository
	cacheRepo *sharedCache.RedisRepository
	db        *bun.DB
	ocrEngine *sharedOCR.EngineManager

	// Scan Module
	labelCache    *scanUsecase.LabelCache
	pipeline      *scanUsecase.ScanPipeline
	sessions      *scanUsecase.SessionRegistry
	refineUseCase *scanUsecase.RefineUseCase
	scanHandler   *scanHandler.ScanHandler

	// Cellar Module
	cellarUseCase *cellarUsecase.CellarUseCase
	cellarHandler *cellarHandler.CellarHandler

	// Recommend Module
	recommendUseCase *recommendUsecase.RecommendUseCase
	recommendHandler *recommendHandler.RecommendHandler

	healthHandler *httpHandler.HealthHandler

	closeOnce sync.Once
	closeErr  error
}

// NewContainer 新しいContainerを作成
// Redis・MySQLに接続できない場合はその層なしで起動する
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	o := &options{redis: true, mysql: true}
	for _, opt := range opts {
		opt(o)
	}

	container := &Container{}

	// Shared Infrastructure: AI Repository
	if o.aiRepo != nil {
		container.aiRepo = o.aiRepo
	} else {
		container.aiRepo = sharedAI.NewClaudeRepository(&cfg.Anthropic)
	}

	// Shared Infrastructure: Fact Lookup
	container.factRepo = sharedAI.NewFactRepository(&cfg.FactLookup)

	// Shared Infrastructure: OCR Engine
	container.ocrEngine = sharedOCR.NewEngineManager(&cfg.OCR)

	// Shared Infrastructure: Cache Repository（ローカル層）
	var localCache scanDomain.CacheRepository
	if o.redis {
		cacheRepo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, running without local cache tier")
		} else {
			container.cacheRepo = cacheRepo
			localCache = cacheRepo
		}
	}

	// Shared Infrastructure: Database（サーバー層と保存）
	var serverCache scanDomain.AnalysisCacheRepository
	var scanRepo cellarDomain.ScanRepository
	if o.mysql {
		db, err := openDatabase(&cfg.MySQL)
		if err != nil {
			logger.WithError(err).Warn("mysql unavailable, running without server cache tier and cellar")
		} else {
			container.db = db
			serverCache = sharedDB.NewBunAnalysisCacheRepository(db)
			if cfg.Pipeline.PersistenceEnabled {
				scanRepo = sharedDB.NewBunScanRepository(db)
			}
		}
	}

	// Scan Module: UseCase
	labelCache := scanUsecase.NewLabelCache(localCache, serverCache, cfg.Pipeline.AnalysisTTL)
	container.labelCache = labelCache

	ocrUseCase := scanUsecase.NewOCRUseCase(container.ocrEngine)
	factUseCase := scanUsecase.NewFactLookupUseCase(container.factRepo, cfg.Pipeline.FactTimeout)
	tasteUseCase := scanUsecase.NewTasteUseCase(container.aiRepo, cfg.Pipeline.AICallTimeout)

	container.pipeline = scanUsecase.NewScanPipeline(
		imageproc.NewPreprocessor(),
		ocrUseCase,
		labelCache,
		scanUsecase.NewMetadataUseCase(container.aiRepo),
		factUseCase,
		tasteUseCase,
		scanUsecase.PipelineOptions{
			Timeout:         cfg.Pipeline.Timeout,
			DefaultLanguage: cfg.Pipeline.DefaultLanguage,
			Limits: scanUsecase.ImageLimits{
				CaptureMaxDimension: imageproc.CaptureMaxDimension,
				CaptureQuality:      imageproc.CaptureQuality,
				VisionMaxDimension:  imageproc.VisionMaxDimension,
				VisionQuality:       imageproc.VisionQuality,
			},
		},
	)
	container.sessions = scanUsecase.NewSessionRegistry(container.pipeline)
	container.refineUseCase = scanUsecase.NewRefineUseCase(labelCache, factUseCase, tasteUseCase, cfg.Pipeline.Timeout)

	// Scan Module: Handler
	container.scanHandler = scanHandler.NewScanHandler(container.sessions, labelCache, ocrUseCase, container.refineUseCase)

	// Cellar Module
	container.cellarUseCase = cellarUsecase.NewCellarUseCase(scanRepo, labelCache)
	container.cellarHandler = cellarHandler.NewCellarHandler(container.cellarUseCase)

	// Recommend Module
	var saved recommendUsecase.SavedWineLister
	if container.cellarUseCase.Enabled() {
		saved = container.cellarUseCase
	}
	container.recommendUseCase = recommendUsecase.NewRecommendUseCase(container.aiRepo, saved, cfg.Pipeline.AICallTimeout)
	container.recommendHandler = recommendHandler.NewRecommendHandler(container.recommendUseCase)

	components := httpHandler.Components{
		OCR:         container.ocrEngine.Enabled(),
		FactLookup:  container.factRepo.Enabled(),
		LocalCache:  localCache != nil,
		ServerCache: serverCache != nil,
		Cellar:      scanRepo != nil,
	}
	container.healthHandler = httpHandler.NewHealthHandler(components)

	logger.WithFields(map[string]interface{}{
		"ai_provider":  container.aiRepo.ProviderName(),
		"ocr_enabled":  components.OCR,
		"fact_lookup":  components.FactLookup,
		"local_cache":  components.LocalCache,
		"server_cache": components.ServerCache,
		"cellar":       components.Cellar,
	}).Info("container initialized")

	return container, nil
}

func openDatabase(cfg *config.MySQLConfig) (*bun.DB, error) {
	db, err := sharedDB.NewDB(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	if err := sharedDB.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return db, nil
}

// AIProviderName AIプロバイダー名を取得
func (c *Container) AIProviderName() string {
	return c.aiRepo.ProviderName()
}

// Pipeline スキャンパイプラインを取得
func (c *Container) Pipeline() *scanUsecase.ScanPipeline {
	return c.pipeline
}

// LabelCache ラベルキャッシュを取得
func (c *Container) LabelCache() *scanUsecase.LabelCache {
	return c.labelCache
}

// OCREngine OCRエンジンを取得
func (c *Container) OCREngine() *sharedOCR.EngineManager {
	return c.ocrEngine
}

// ScanHandler スキャンAPIハンドラーを取得
func (c *Container) ScanHandler() *scanHandler.ScanHandler {
	return c.scanHandler
}

// CellarHandler セラーAPIハンドラーを取得
func (c *Container) CellarHandler() *cellarHandler.CellarHandler {
	return c.cellarHandler
}

// RecommendHandler 推薦APIハンドラーを取得
func (c *Container) RecommendHandler() *recommendHandler.RecommendHandler {
	return c.recommendHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *httpHandler.HealthHandler {
	return c.healthHandler
}

// Close 実行中のキャッシュ書き込みを待ってからリソースをクローズ
// 2回目以降の呼び出しは最初の結果を返す
func (c *Container) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.close()
	})
	return c.closeErr
}

func (c *Container) close() error {
	if c.labelCache != nil {
		c.labelCache.Flush()
	}

	if c.ocrEngine != nil {
		if err := c.ocrEngine.Close(); err != nil {
			return fmt.Errorf("failed to close ocr engine: %w", err)
		}
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Close(); err != nil {
			return fmt.Errorf("failed to close cache repository: %w", err)
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
