package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
)

func newTestCache(local domain.CacheRepository, server domain.AnalysisCacheRepository, now *time.Time) *LabelCache {
	c := NewLabelCache(local, server, 180*24*time.Hour)
	c.now = func() time.Time { return *now }
	return c
}

func TestLabelCache_Key(t *testing.T) {
	c := NewLabelCache(nil, nil, 0)
	img := []byte{1, 2, 3}

	assert.Equal(t, c.Key("Tokaji Furmint", img), c.Key("Tokaji Furmint", []byte{9}))
	assert.NotEqual(t, c.Key("Tokaji Furmint", img), c.Key("Tokaji Aszú", img))
	assert.Equal(t, c.Key("", img), c.Key("   ", img))
	assert.GreaterOrEqual(t, len(c.Key("x", nil)), 20)
}

func TestLabelCache_OCRText(t *testing.T) {
	local := NewMockCacheRepository()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(local, nil, &now)
	ctx := context.Background()

	_, ok := c.GetOCRText(ctx, "img")
	assert.False(t, ok)

	c.PutOCRText(ctx, "img", "VIETTI BAROLO")
	c.Flush()

	got, ok := c.GetOCRText(ctx, "img")
	assert.True(t, ok)
	assert.Equal(t, "VIETTI BAROLO", got)
}

func TestLabelCache_Analysis(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("正常系: 書き込み後に読み取れる", func(t *testing.T) {
		local := NewMockCacheRepository()
		server := NewMockAnalysisCacheRepository()
		c := newTestCache(local, server, &now)

		c.PutAnalysis(ctx, &domain.CachedAnalysis{LabelHash: "h1", Result: domain.AnalysisResult{Summary: "s"}})
		c.Flush()

		got, ok := c.GetAnalysis(ctx, "h1")
		require.True(t, ok)
		assert.Equal(t, "s", got.Result.Summary)
		require.NotNil(t, got.ExpiresAt)
		assert.Equal(t, now.Add(180*24*time.Hour), *got.ExpiresAt)

		_, ok = server.Entry("h1")
		assert.True(t, ok)
	})

	t.Run("境界値: 期限切れは存在しない扱い", func(t *testing.T) {
		local := NewMockCacheRepository()
		server := NewMockAnalysisCacheRepository()
		clock := now
		c := newTestCache(local, server, &clock)

		c.PutAnalysis(ctx, &domain.CachedAnalysis{LabelHash: "h2"})
		c.Flush()

		clock = now.Add(180 * 24 * time.Hour)
		_, ok := c.GetAnalysis(ctx, "h2")
		assert.False(t, ok)

		// 期限切れの行は削除されない。ローカル層のエントリは消える
		_, stored := server.Entry("h2")
		assert.True(t, stored)
		c.Flush()
		assert.Equal(t, 0, local.Len())
	})

	t.Run("異常系: 壊れたローカルエントリは消して読み飛ばす", func(t *testing.T) {
		local := NewMockCacheRepository()
		require.NoError(t, local.Set(ctx, service.CacheKey(cacheKindAnalysis, "h6"), []byte("{not json"), 0))
		c := newTestCache(local, nil, &now)

		_, ok := c.GetAnalysis(ctx, "h6")
		assert.False(t, ok)
		c.Flush()
		assert.Equal(t, 0, local.Len())
	})

	t.Run("正常系: サーバー層のヒットをローカル層に書き戻す", func(t *testing.T) {
		local := NewMockCacheRepository()
		server := NewMockAnalysisCacheRepository()
		exp := now.Add(time.Hour)
		require.NoError(t, server.Upsert(ctx, &domain.CachedAnalysis{LabelHash: "h3", ExpiresAt: &exp}))

		c := newTestCache(local, server, &now)
		_, ok := c.GetAnalysis(ctx, "h3")
		require.True(t, ok)
		c.Flush()

		assert.Equal(t, 1, local.Len())
	})

	t.Run("異常系: 書き込み失敗はログのみ", func(t *testing.T) {
		local := NewMockCacheRepository()
		local.SetFunc = func(ctx context.Context, key string, value []byte, expiration time.Duration) error {
			return errors.New("OOM command not allowed")
		}
		c := newTestCache(local, nil, &now)

		assert.NotPanics(t, func() {
			c.PutAnalysis(ctx, &domain.CachedAnalysis{LabelHash: "h4"})
			c.PutOCRText(ctx, "img", "text")
			c.Flush()
		})
		_, ok := c.GetAnalysis(ctx, "h4")
		assert.False(t, ok)
	})

	t.Run("正常系: キャンセル済みでも書き込みは継続", func(t *testing.T) {
		local := NewMockCacheRepository()
		c := newTestCache(local, nil, &now)

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		c.PutOCRText(canceled, "img", "text")
		c.Flush()

		_, ok := c.GetOCRText(ctx, "img")
		assert.True(t, ok)
	})

	t.Run("正常系: キャッシュなし", func(t *testing.T) {
		c := newTestCache(nil, nil, &now)
		c.PutAnalysis(ctx, &domain.CachedAnalysis{LabelHash: "h5"})
		c.Flush()
		_, ok := c.GetAnalysis(ctx, "h5")
		assert.False(t, ok)
	})
}

func TestLabelCache_Contains(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := now.Add(time.Hour)

	tests := []struct {
		name  string
		setup func(local *MockCacheRepository, server *MockAnalysisCacheRepository)
		want  bool
	}{
		{
			name: "正常系: ローカル層にある",
			setup: func(local *MockCacheRepository, server *MockAnalysisCacheRepository) {
				_ = local.Set(ctx, service.CacheKey(cacheKindAnalysis, "h"), []byte("{}"), 0)
			},
			want: true,
		},
		{
			name: "正常系: サーバー層にだけある",
			setup: func(local *MockCacheRepository, server *MockAnalysisCacheRepository) {
				_ = server.Upsert(ctx, &domain.CachedAnalysis{LabelHash: "h", ExpiresAt: &exp})
			},
			want: true,
		},
		{
			name:  "正常系: どちらにもない",
			setup: func(local *MockCacheRepository, server *MockAnalysisCacheRepository) {},
			want:  false,
		},
		{
			name: "境界値: サーバー層の期限切れ",
			setup: func(local *MockCacheRepository, server *MockAnalysisCacheRepository) {
				past := now.Add(-time.Second)
				_ = server.Upsert(ctx, &domain.CachedAnalysis{LabelHash: "h", ExpiresAt: &past})
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := NewMockCacheRepository()
			server := NewMockAnalysisCacheRepository()
			tt.setup(local, server)
			c := newTestCache(local, server, &now)

			assert.Equal(t, tt.want, c.Contains(ctx, "h"))
		})
	}
}

func TestLabelCache_MarkSaved(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	server := NewMockAnalysisCacheRepository()
	c := newTestCache(NewMockCacheRepository(), server, &now)

	c.PutAnalysis(ctx, &domain.CachedAnalysis{LabelHash: "h", ImageThumb: "thumb"})
	c.Flush()

	c.MarkSaved(ctx, "h", "remote-1")
	c.Flush()

	got, ok := c.GetAnalysis(ctx, "h")
	require.True(t, ok)
	assert.True(t, got.Saved)
	assert.Equal(t, "remote-1", got.RemoteID)
	assert.Equal(t, "thumb", got.ImageThumb)

	entry, _ := server.Entry("h")
	assert.True(t, entry.Saved)
}
