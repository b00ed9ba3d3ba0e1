package usecase

import (
	"context"
	"sync"
	"time"

	"winescan-app/internal/modules/scan/domain"
)

// MockAIRepository モックAIリポジトリ
type MockAIRepository struct {
	ExtractMetadataFunc func(ctx context.Context, imageData []byte, mediaType, ocrHint string) (*domain.AIResult, error)
	CompleteFunc        func(ctx context.Context, task domain.AITask, userPrompt string) (*domain.AIResult, error)

	mu    sync.Mutex
	calls []domain.AITask
}

func (m *MockAIRepository) ExtractMetadata(ctx context.Context, imageData []byte, mediaType, ocrHint string) (*domain.AIResult, error) {
	if m.ExtractMetadataFunc != nil {
		return m.ExtractMetadataFunc(ctx, imageData, mediaType, ocrHint)
	}
	return domain.NewAIResult("", baroloMetadataJSON, 100, 50, "test-model"), nil
}

func (m *MockAIRepository) Complete(ctx context.Context, task domain.AITask, userPrompt string) (*domain.AIResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, task)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, task, userPrompt)
	}
	return domain.NewAIResult(userPrompt, baroloTasteJSON, 100, 200, "test-model"), nil
}

func (m *MockAIRepository) ProviderName() string {
	return "Mock AI Provider"
}

func (m *MockAIRepository) Calls() []domain.AITask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AITask(nil), m.calls...)
}

// MockFactRepository モックファクト検索
type MockFactRepository struct {
	EnabledValue bool
	LookupFunc   func(ctx context.Context, query string) (*domain.AIResult, error)
}

func (m *MockFactRepository) Enabled() bool {
	return m.EnabledValue
}

func (m *MockFactRepository) Lookup(ctx context.Context, query string) (*domain.AIResult, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, query)
	}
	return domain.NewAIResult(query, "Barolo from Vietti is aged in large casks [1]. https://vietti.it/barolo.", 10, 10, "sonar"), nil
}

// MockTextRecognizer モックOCR
type MockTextRecognizer struct {
	RecognizeFunc func(ctx context.Context, imageData []byte, language string) (string, error)
	PrewarmFunc   func(ctx context.Context, language string) error
}

func (m *MockTextRecognizer) Recognize(ctx context.Context, imageData []byte, language string) (string, error) {
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, imageData, language)
	}
	return "  VIETTI   BAROLO\n CASTIGLIONE  2018 ", nil
}

func (m *MockTextRecognizer) Prewarm(ctx context.Context, language string) error {
	if m.PrewarmFunc != nil {
		return m.PrewarmFunc(ctx, language)
	}
	return nil
}

// MockImageProcessor モック画像前処理
type MockImageProcessor struct {
	PreprocessFunc func(img domain.ScanImage, maxDimension, quality int) (*domain.PreprocessedImage, error)
}

func (m *MockImageProcessor) Preprocess(img domain.ScanImage, maxDimension, quality int) (*domain.PreprocessedImage, error) {
	if m.PreprocessFunc != nil {
		return m.PreprocessFunc(img, maxDimension, quality)
	}
	// 実際の再エンコードと同じく元とは異なるバイト列を返す
	data := append(append([]byte{}, img.Data...), reencodeMarker...)
	return &domain.PreprocessedImage{Data: data, MimeType: "image/jpeg", Width: maxDimension, Height: maxDimension}, nil
}

var reencodeMarker = []byte("|reencoded")

func (m *MockImageProcessor) Thumbnail(img *domain.PreprocessedImage) (string, error) {
	return "dGh1bWI=", nil
}

// MockCacheRepository インメモリのローカルキャッシュ
type MockCacheRepository struct {
	mu      sync.Mutex
	data    map[string][]byte
	SetFunc func(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// MockAnalysisCacheRepository インメモリのサーバーキャッシュ
type MockAnalysisCacheRepository struct {
	mu      sync.Mutex
	entries map[string]domain.CachedAnalysis
}

func NewMockAnalysisCacheRepository() *MockAnalysisCacheRepository {
	return &MockAnalysisCacheRepository{entries: make(map[string]domain.CachedAnalysis)}
}

func (m *MockAnalysisCacheRepository) FindValid(ctx context.Context, labelHash string, now time.Time) (*domain.CachedAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[labelHash]
	if !ok || entry.IsExpired(now) {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (m *MockAnalysisCacheRepository) Upsert(ctx context.Context, entry *domain.CachedAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.LabelHash] = *entry
	return nil
}

func (m *MockAnalysisCacheRepository) Entry(labelHash string) (domain.CachedAnalysis, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[labelHash]
	return entry, ok
}

const baroloMetadataJSON = "```json\n" + `{"wineName":"Barolo Castiglione","producer":"Vietti","grapeVariety":["Nebbiolo"],"region":"Piemonte","country":"Italien","vintage":2018}` + "\n```"

const baroloSummary = "En fyllig, mörk Nebbiolo med markanta tanniner och syrlig körsbärston som balanserar väl mot ekfatets kryddighet."

const baroloTasteJSON = `{
  "sötma": 1, "fyllighet": 4.5, "fruktighet": 3.5, "fruktsyra": 4, "tannin": 4.5, "ek": 3,
  "karaktär": "Kraftfull och stram",
  "smak": "Körsbär, ros, tjära och lakrits",
  "servering": "16-18 grader, gärna dekanterad",
  "summary": "` + baroloSummary + `",
  "passar_till": ["Viltgryta", "Tryffelrisotto", "Lagrad parmesan"],
  "used_signals": ["Nebbiolo ger hög syra", "Barolo lagras länge på fat", "Piemonte"]
}`
