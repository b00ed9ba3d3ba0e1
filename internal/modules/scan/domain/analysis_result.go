package domain

import "time"

// FactSummary ファクト検索の結果（未設定・失敗時は空）
type FactSummary struct {
	Summary string   `json:"summary"`
	Sources []string `json:"sources"`
}

// IsEmpty 要約も出典もない場合true
func (f FactSummary) IsEmpty() bool {
	return f.Summary == "" && len(f.Sources) == 0
}

// Evidence 結果の根拠（OCRテキストと出典リンク）
type Evidence struct {
	OCRText     string   `json:"ocr_text"`
	Sources     []string `json:"sources"`
	FactSummary string   `json:"fact_summary,omitempty"`
}

// AnalysisMeta 解析結果のメタ情報
type AnalysisMeta struct {
	MetersSource string    `json:"meters_source"`
	FilledMeters []string  `json:"filled_meters,omitempty"`
	Repairs      []string  `json:"repairs,omitempty"`
	LabelHash    string    `json:"label_hash"`
	Language     string    `json:"language"`
	Model        string    `json:"model,omitempty"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}

// AnalysisResult スキャン1回分の最終解析結果
// 生成後は変更せず、再解析時は新しい結果でキャッシュを置き換える
type AnalysisResult struct {
	Metadata    WineMetadata  `json:"metadata"`
	Taste       *TasteProfile `json:"taste"`
	Karaktar    string        `json:"karaktär"`
	Smak        string        `json:"smak"`
	Servering   string        `json:"servering"`
	PassarTill  []string      `json:"passar_till"`
	Summary     string        `json:"summary"`
	UsedSignals []string      `json:"used_signals"`
	Evidence    Evidence      `json:"evidence"`
	Meta        AnalysisMeta  `json:"meta"`
}

// NeedsMeters メーター導入前にキャッシュされた結果か
func (r *AnalysisResult) NeedsMeters() bool {
	return r.Taste == nil
}

// NarrativeText ヒューリスティック推定に使う自由記述テキストを連結する
func (r *AnalysisResult) NarrativeText() string {
	text := r.Karaktar + " " + r.Smak + " " + r.Summary + " " + r.Evidence.FactSummary + " " + r.Evidence.OCRText
	for _, g := range r.Metadata.GrapeVariety {
		text += " " + g
	}
	return text + " " + r.Metadata.Region
}

// CachedAnalysis キャッシュに保存される解析結果と付随情報
type CachedAnalysis struct {
	LabelHash  string         `json:"label_hash"`
	Result     AnalysisResult `json:"result"`
	OCRText    string         `json:"ocr_text"`
	ImageThumb string         `json:"image_thumb,omitempty"`
	Saved      bool           `json:"saved"`
	RemoteID   string         `json:"remote_id,omitempty"`
	CachedAt   time.Time      `json:"cached_at"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

// IsExpired 有効期限切れか（期限なしは常にfalse）
func (c *CachedAnalysis) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
