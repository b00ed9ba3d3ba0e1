package domain

import "strings"

// VintageUnknown ヴィンテージが読み取れない場合の値
const VintageUnknown = "unknown"

// WineMetadata ラベルから抽出したワインの基本情報（すべてベストエフォート）
type WineMetadata struct {
	WineName     string   `json:"wineName"`
	Producer     string   `json:"producer"`
	GrapeVariety []string `json:"grapeVariety"`
	Region       string   `json:"region"`
	Country      string   `json:"country"`
	Vintage      string   `json:"vintage"`
}

// Normalize 前後の空白を除去し、空のぶどう品種を取り除き、ヴィンテージ未設定を補う
func (m *WineMetadata) Normalize() {
	m.WineName = strings.TrimSpace(m.WineName)
	m.Producer = strings.TrimSpace(m.Producer)
	m.Region = strings.TrimSpace(m.Region)
	m.Country = strings.TrimSpace(m.Country)
	m.Vintage = strings.TrimSpace(m.Vintage)

	grapes := make([]string, 0, len(m.GrapeVariety))
	for _, g := range m.GrapeVariety {
		if g = strings.TrimSpace(g); g != "" {
			grapes = append(grapes, g)
		}
	}
	m.GrapeVariety = grapes

	if m.Vintage == "" || strings.EqualFold(m.Vintage, "null") {
		m.Vintage = VintageUnknown
	}
}

// IsUnreadable 名前・品種・産地がすべて空の場合true
func (m *WineMetadata) IsUnreadable() bool {
	return strings.TrimSpace(m.WineName) == "" &&
		len(m.GrapeVariety) == 0 &&
		strings.TrimSpace(m.Region) == ""
}

// DisplayName 表示用の名称（生産者 + 名前 + ヴィンテージ）
func (m *WineMetadata) DisplayName() string {
	parts := make([]string, 0, 3)
	if m.Producer != "" && !strings.Contains(strings.ToLower(m.WineName), strings.ToLower(m.Producer)) {
		parts = append(parts, m.Producer)
	}
	if m.WineName != "" {
		parts = append(parts, m.WineName)
	}
	if m.Vintage != "" && m.Vintage != VintageUnknown {
		parts = append(parts, m.Vintage)
	}
	return strings.Join(parts, " ")
}
