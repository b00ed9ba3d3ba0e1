package ocr

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"winescan-app/internal/config"
	"winescan-app/internal/logger"
)

// engineHandle 認識エンジンのハンドル
type engineHandle interface {
	SetLanguage(lang string) error
	Recognize(imageData []byte) (string, error)
	Close() error
}

type engineFactory func(tessdataPrefix string) (engineHandle, error)

// EngineManager プロセスで1つの認識エンジンを管理する
// acquire（遅延初期化）→ configure（言語変更時のみ再設定）→ release の順で使う
type EngineManager struct {
	factory        engineFactory
	tessdataPrefix string
	enabled        bool

	// 言語切り替えと認識を直列化する（ctxでキャンセル可能なロック）
	sem   chan struct{}
	group singleflight.Group

	mu     sync.Mutex
	engine engineHandle
	lang   string
}

// NewEngineManager 新しいEngineManagerを作成
func NewEngineManager(cfg *config.OCRConfig) *EngineManager {
	return newEngineManager(cfg, defaultEngineFactory)
}

func newEngineManager(cfg *config.OCRConfig, factory engineFactory) *EngineManager {
	return &EngineManager{
		factory:        factory,
		tessdataPrefix: cfg.TessdataPrefix,
		enabled:        cfg.Enabled && factory != nil,
		sem:            make(chan struct{}, 1),
	}
}

// Enabled OCRが利用可能か
func (m *EngineManager) Enabled() bool {
	return m.enabled
}

// Language 現在ロードされている言語
func (m *EngineManager) Language() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lang
}

// Prewarm 撮影前にエンジンを初期化し言語をロードしておく
func (m *EngineManager) Prewarm(ctx context.Context, lang string) error {
	if !m.enabled {
		return nil
	}

	engine, err := m.acquire(ctx)
	if err != nil {
		return err
	}

	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.unlock()

	return m.configure(engine, lang)
}

// Recognize 画像からテキストを認識する。OCR無効時は空文字を返す
func (m *EngineManager) Recognize(ctx context.Context, imageData []byte, lang string) (string, error) {
	if !m.enabled {
		return "", nil
	}

	engine, err := m.acquire(ctx)
	if err != nil {
		return "", err
	}

	if err := m.lock(ctx); err != nil {
		return "", err
	}
	defer m.unlock()

	if err := m.configure(engine, lang); err != nil {
		return "", err
	}

	text, err := engine.Recognize(imageData)
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}
	return text, nil
}

// Close エンジンを解放する。次回の利用時に再初期化される
func (m *EngineManager) Close() error {
	if err := m.lock(context.Background()); err != nil {
		return err
	}
	defer m.unlock()

	m.mu.Lock()
	engine := m.engine
	m.engine = nil
	m.lang = ""
	m.mu.Unlock()

	if engine == nil {
		return nil
	}
	return engine.Close()
}

// acquire エンジンを遅延初期化する。同時呼び出しは1回の初期化にまとめる
func (m *EngineManager) acquire(ctx context.Context) (engineHandle, error) {
	m.mu.Lock()
	if m.engine != nil {
		engine := m.engine
		m.mu.Unlock()
		return engine, nil
	}
	m.mu.Unlock()

	ch := m.group.DoChan("engine", func() (interface{}, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.engine != nil {
			return m.engine, nil
		}

		engine, err := m.factory(m.tessdataPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OCR engine: %w", err)
		}
		m.engine = engine
		m.lang = ""
		logger.WithField("tessdata_prefix", m.tessdataPrefix).Info("OCR engine initialized")
		return engine, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(engineHandle), nil
	}
}

// configure 言語が変わったときだけ再設定する（semを保持して呼ぶこと）
func (m *EngineManager) configure(engine engineHandle, lang string) error {
	m.mu.Lock()
	current := m.lang
	m.mu.Unlock()

	if current == lang {
		return nil
	}

	if err := engine.SetLanguage(lang); err != nil {
		return fmt.Errorf("failed to set OCR language %s: %w", lang, err)
	}

	m.mu.Lock()
	m.lang = lang
	m.mu.Unlock()

	logger.WithFields(map[string]interface{}{"from": current, "to": lang}).Debug("OCR language switched")
	return nil
}

func (m *EngineManager) lock(ctx context.Context) error {
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *EngineManager) unlock() {
	<-m.sem
}
