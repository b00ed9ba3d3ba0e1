package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"winescan-app/internal/config"
	"winescan-app/internal/logger"
	"winescan-app/internal/presentation/di"
	"winescan-app/internal/presentation/http/router"
)

// AppConfig アプリケーション設定
type AppConfig struct {
	ConfigPath string
	Port       string

	// ContainerOptions DIコンテナの構築オプション（テスト用）
	ContainerOptions []di.Option
}

// ServerInterface サーバーインターフェース（Seam化）
type ServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App アプリケーション構造体（Seamパターン）
type App struct {
	config     *AppConfig
	container  *di.Container
	server     *http.Server
	serverSeam ServerInterface // テスト用のSeam
}

// NewApp 新しいAppを作成
func NewApp(appCfg *AppConfig) (*App, error) {
	// ポートのデフォルト値設定
	if appCfg.Port == "" {
		appCfg.Port = "8080"
	}

	// 設定の読み込み
	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		logger.WithError(err).Warn("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	// DIコンテナの初期化
	container, err := di.NewContainer(cfg, appCfg.ContainerOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DI container: %w", err)
	}

	// ルーターの作成
	handler := router.NewRouter(container)

	// サーバーの設定
	// SSEはパイプライン全体（最大90秒）の間接続を保持する
	server := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	app := &App{
		config:    appCfg,
		container: container,
		server:    server,
	}
	// デフォルトでは実際のサーバーを使用
	app.serverSeam = server

	return app, nil
}

// Start サーバーを起動
func (a *App) Start() error {
	a.printStartupMessage()
	return a.serverSeam.ListenAndServe()
}

// printStartupMessage 起動メッセージを出力
func (a *App) printStartupMessage() {
	fmt.Println("=== WineScan API Server ===")
	fmt.Printf("AI Provider: %s\n", a.container.AIProviderName())
	fmt.Printf("OCR: %v\n", a.container.OCREngine().Enabled())
	fmt.Printf("Server listening on http://0.0.0.0:%s\n", a.config.Port)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health                       - Health check")
	fmt.Println("  POST /api/v1/scans/analyze         - Scan a wine label")
	fmt.Println("  POST /api/v1/scans/stream          - Scan with progress events (SSE)")
	fmt.Println("  POST /api/v1/scans/refine          - Re-analyze with corrected metadata")
	fmt.Println("  POST /api/v1/scans/cancel          - Cancel the session's running scan")
	fmt.Println("  POST /api/v1/meters                - Derive taste meters from text")
	fmt.Println("  POST /api/v1/cache/key             - Cache key lookup")
	fmt.Println("  POST /api/v1/ocr/prewarm           - Prewarm the OCR engine")
	fmt.Println("  GET  /api/v1/cellar                - List saved scans")
	fmt.Println("  POST /api/v1/cellar                - Save a scan")
	fmt.Println("  GET  /api/v1/cellar/{id}           - Get a saved scan")
	fmt.Println("  POST /api/v1/recommend/sommelier   - Sommelier recommendations")
	fmt.Println("  POST /api/v1/recommend/for-you     - Picks based on saved wines")
	fmt.Println()
}

// Shutdown サーバーをシャットダウン
func (a *App) Shutdown(ctx context.Context) error {
	logger.Logger.Info("Shutting down server...")

	// サーバーのシャットダウン（Seamを使用）
	if err := a.serverSeam.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// キャッシュ書き込みの完了を待ってからクローズ
	if err := a.container.Close(); err != nil {
		return fmt.Errorf("container close failed: %w", err)
	}

	logger.Logger.Info("Server stopped")
	return nil
}

// Run アプリケーションを実行（グレースフルシャットダウン付き）
func (a *App) Run() error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// シグナルの待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return a.Shutdown(ctx)
	}
}

// defaultConfigPath 設定ファイルのパス（WINESCAN_CONFIGで上書き可能）
func defaultConfigPath() string {
	if path := os.Getenv("WINESCAN_CONFIG"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.WithError(err).Warn("Failed to get home directory, using current directory")
		homeDir = "."
	}
	return filepath.Join(homeDir, ".winescan", "config.yaml")
}

// realMain 実際のmain処理（テスト可能にするため分離）
func realMain() error {
	// .envは任意
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Warn("Failed to load .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	app, err := NewApp(&AppConfig{
		ConfigPath: defaultConfigPath(),
		Port:       port,
	})
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return app.Run()
}

func main() {
	if err := realMain(); err != nil {
		logger.WithError(err).Fatal("Application error")
	}
}
