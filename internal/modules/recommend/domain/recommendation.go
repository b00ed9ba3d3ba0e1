package domain

import (
	scandomain "winescan-app/internal/modules/scan/domain"
)

// NeutralConfidence 検証失敗時の信頼度
const NeutralConfidence = 0.5

// FallbackNote 検証失敗時に返す注記
const FallbackNote = "Rekommendationen kunde inte tas fram just nu. Försök igen om en stund."

// Recommendation ソムリエの推薦1件
type Recommendation struct {
	Name       string `json:"name" validate:"required"`
	Style      string `json:"style"`
	Reason     string `json:"reason"`
	PriceRange string `json:"price_range"`
}

// SommelierResponse ソムリエ推薦のスキーマ
type SommelierResponse struct {
	Recommendations []Recommendation `json:"recommendations" validate:"required,max=10,dive"`
	Confidence      float64          `json:"confidence" validate:"gte=0,lte=1"`
	Notes           []string         `json:"notes" validate:"max=5"`
}

// SommelierFallback 検証失敗時のソムリエ推薦
func SommelierFallback() SommelierResponse {
	return SommelierResponse{
		Recommendations: []Recommendation{},
		Confidence:      NeutralConfidence,
		Notes:           []string{FallbackNote},
	}
}

// Pick 好みに基づく提案1件
type Pick struct {
	Name  string  `json:"name" validate:"required"`
	Why   string  `json:"why"`
	Match float64 `json:"match" validate:"gte=0,lte=1"`
}

// ForYouResponse 好みに基づく提案のスキーマ
type ForYouResponse struct {
	Picks      []Pick   `json:"picks" validate:"required,max=10,dive"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
	Notes      []string `json:"notes" validate:"max=5"`
}

// ForYouFallback 検証失敗時の提案
func ForYouFallback() ForYouResponse {
	return ForYouResponse{
		Picks:      []Pick{},
		Confidence: NeutralConfidence,
		Notes:      []string{FallbackNote},
	}
}

// SommelierRequest ソムリエへの依頼
type SommelierRequest struct {
	Query    string `json:"query"`
	Dish     string `json:"dish,omitempty"`
	Budget   string `json:"budget,omitempty"`
	Language string `json:"lang,omitempty"`
}

// LikedWine 好みの根拠となる保存済みワイン
type LikedWine struct {
	Name  string                   `json:"name"`
	Taste *scandomain.TasteProfile `json:"taste,omitempty"`
}

// ForYouRequest 好みに基づく提案の依頼
type ForYouRequest struct {
	Wines    []LikedWine `json:"wines"`
	Language string      `json:"lang,omitempty"`
}
