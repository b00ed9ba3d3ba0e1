package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
)

// キャッシュキーの種類
const (
	cacheKindOCR      = "ocr"
	cacheKindAnalysis = "analysis"

	cacheWriteTimeout = 5 * time.Second
)

// LabelCache ラベルハッシュをキーにしたOCRテキストと解析結果のキャッシュ
// ローカル層（Redis）とサーバー層（MySQL）の2段構成で、どちらも省略可能
// 読み取りは待つが、書き込みはバックグラウンドで行い失敗はログのみ
type LabelCache struct {
	local  domain.CacheRepository
	server domain.AnalysisCacheRepository
	ttl    time.Duration
	now    func() time.Time

	wg sync.WaitGroup
}

// NewLabelCache 新しいLabelCacheを作成
func NewLabelCache(local domain.CacheRepository, server domain.AnalysisCacheRepository, ttl time.Duration) *LabelCache {
	return &LabelCache{
		local:  local,
		server: server,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Key キャッシュキー（ラベルハッシュ）を計算する
func (c *LabelCache) Key(text string, imageData []byte) string {
	return service.LabelHash(text, imageData)
}

// GetOCRText 画像ハッシュに対するOCRテキストを取得する
func (c *LabelCache) GetOCRText(ctx context.Context, imageHash string) (string, bool) {
	if c.local == nil {
		return "", false
	}

	data, err := c.local.Get(ctx, service.CacheKey(cacheKindOCR, imageHash))
	if err != nil {
		c.logReadError(ctx, err)
		return "", false
	}
	return string(data), true
}

// PutOCRText OCRテキストを期限なしで保存する
func (c *LabelCache) PutOCRText(ctx context.Context, imageHash, text string) {
	if c.local == nil {
		return
	}
	c.goWrite(ctx, "ocr", func(ctx context.Context) error {
		return c.local.Set(ctx, service.CacheKey(cacheKindOCR, imageHash), []byte(text), 0)
	})
}

// GetAnalysis 有効な解析結果を探す。期限切れは存在しないものとして扱う
func (c *LabelCache) GetAnalysis(ctx context.Context, labelHash string) (*domain.CachedAnalysis, bool) {
	now := c.now()

	if entry, ok := c.getLocalAnalysis(ctx, labelHash, now); ok {
		return entry, true
	}

	if c.server == nil {
		return nil, false
	}

	entry, err := c.server.FindValid(ctx, labelHash, now)
	if err != nil {
		c.logReadError(ctx, err)
		return nil, false
	}

	// サーバー層のヒットはローカル層に書き戻す
	c.putLocalAnalysis(ctx, entry)
	return entry, true
}

// Contains 有効な解析結果があるかだけを確認する（本体は読まない）
func (c *LabelCache) Contains(ctx context.Context, labelHash string) bool {
	if c.local != nil {
		ok, err := c.local.Exists(ctx, service.CacheKey(cacheKindAnalysis, labelHash))
		if err != nil {
			c.logReadError(ctx, err)
		} else if ok {
			return true
		}
	}

	if c.server == nil {
		return false
	}
	if _, err := c.server.FindValid(ctx, labelHash, c.now()); err != nil {
		c.logReadError(ctx, err)
		return false
	}
	return true
}

// PutAnalysis 解析結果を両方の層に保存する（期限はttl）
func (c *LabelCache) PutAnalysis(ctx context.Context, entry *domain.CachedAnalysis) {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = c.now()
	}
	if entry.ExpiresAt == nil && c.ttl > 0 {
		exp := entry.CachedAt.Add(c.ttl)
		entry.ExpiresAt = &exp
	}

	c.putLocalAnalysis(ctx, entry)

	if c.server != nil {
		snapshot := *entry
		c.goWrite(ctx, "analysis_server", func(ctx context.Context) error {
			return c.server.Upsert(ctx, &snapshot)
		})
	}
}

// MarkSaved リモート保存後に保存フラグとリモートIDを記録する
func (c *LabelCache) MarkSaved(ctx context.Context, labelHash, remoteID string) {
	c.goWrite(ctx, "mark_saved", func(ctx context.Context) error {
		entry, ok := c.GetAnalysis(ctx, labelHash)
		if !ok {
			return domain.ErrNotFound
		}
		entry.Saved = true
		entry.RemoteID = remoteID
		c.PutAnalysis(ctx, entry)
		return nil
	})
}

// Flush 実行中のバックグラウンド書き込みを待つ（終了処理とテスト用）
func (c *LabelCache) Flush() {
	c.wg.Wait()
}

func (c *LabelCache) getLocalAnalysis(ctx context.Context, labelHash string, now time.Time) (*domain.CachedAnalysis, bool) {
	if c.local == nil {
		return nil, false
	}

	data, err := c.local.Get(ctx, service.CacheKey(cacheKindAnalysis, labelHash))
	if err != nil {
		c.logReadError(ctx, err)
		return nil, false
	}

	var entry domain.CachedAnalysis
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("corrupt analysis cache entry dropped")
		c.dropLocal(ctx, labelHash)
		return nil, false
	}
	if entry.IsExpired(now) {
		c.dropLocal(ctx, labelHash)
		return nil, false
	}
	return &entry, true
}

// dropLocal 使えないローカルエントリを消す。サーバー層の行は消さない
func (c *LabelCache) dropLocal(ctx context.Context, labelHash string) {
	key := service.CacheKey(cacheKindAnalysis, labelHash)
	c.goWrite(ctx, "analysis_local_delete", func(ctx context.Context) error {
		return c.local.Delete(ctx, key)
	})
}

func (c *LabelCache) putLocalAnalysis(ctx context.Context, entry *domain.CachedAnalysis) {
	if c.local == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("failed to encode analysis cache entry")
		return
	}

	var expiration time.Duration
	if entry.ExpiresAt != nil {
		expiration = entry.ExpiresAt.Sub(c.now())
		if expiration <= 0 {
			return
		}
	}

	key := service.CacheKey(cacheKindAnalysis, entry.LabelHash)
	c.goWrite(ctx, "analysis_local", func(ctx context.Context) error {
		return c.local.Set(ctx, key, data, expiration)
	})
}

// goWrite 書き込みを切り離して実行する。呼び出し元のキャンセルは引き継がない
func (c *LabelCache) goWrite(ctx context.Context, target string, write func(ctx context.Context) error) {
	writeCtx := context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(writeCtx, cacheWriteTimeout)
		defer cancel()

		if err := write(ctx); err != nil {
			logger.WithContext(ctx).WithFields(logrus.Fields{
				"code":   domain.CodeCacheWrite,
				"stage":  domain.StageCache,
				"target": target,
			}).WithError(err).Warn("cache write failed")
		}
	}()
}

func (c *LabelCache) logReadError(ctx context.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	logger.WithContext(ctx).WithField("stage", domain.StageCache).WithError(err).Warn("cache read failed, treating as miss")
}
