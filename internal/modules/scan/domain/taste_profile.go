package domain

// メーターの次元名
const (
	MeterSotma      = "sötma"
	MeterFyllighet  = "fyllighet"
	MeterFruktighet = "fruktighet"
	MeterFruktsyra  = "fruktsyra"
	MeterTannin     = "tannin"
	MeterEk         = "ek"
)

// メーターの出所
const (
	MetersSourceWeb       = "web"
	MetersSourceEstimated = "estimated"
)

// TasteProfile 味わいの数値プロファイル（0〜5）
type TasteProfile struct {
	Sotma      float64  `json:"sötma"`
	Fyllighet  float64  `json:"fyllighet"`
	Fruktighet float64  `json:"fruktighet"`
	Fruktsyra  float64  `json:"fruktsyra"`
	Tannin     *float64 `json:"tannin,omitempty"`
	Ek         *float64 `json:"ek,omitempty"`
}

// PartialTaste AIが返した味わいの値（未返却の次元はnil）
type PartialTaste struct {
	Sotma      *float64
	Fyllighet  *float64
	Fruktighet *float64
	Fruktsyra  *float64
	Tannin     *float64
	Ek         *float64
}

// CoreMissing 4つの基本次元のうち欠けている次元名を返す
func (p PartialTaste) CoreMissing() []string {
	var missing []string
	if p.Sotma == nil {
		missing = append(missing, MeterSotma)
	}
	if p.Fyllighet == nil {
		missing = append(missing, MeterFyllighet)
	}
	if p.Fruktighet == nil {
		missing = append(missing, MeterFruktighet)
	}
	if p.Fruktsyra == nil {
		missing = append(missing, MeterFruktsyra)
	}
	return missing
}

// IsCoreEmpty 4つの基本次元がすべて欠けているか
func (p PartialTaste) IsCoreEmpty() bool {
	return len(p.CoreMissing()) == 4
}

// Float64 ポインタ生成のヘルパー
func Float64(v float64) *float64 {
	return &v
}
