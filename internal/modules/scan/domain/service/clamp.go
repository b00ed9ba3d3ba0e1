package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NeutralTaste 数値でない値を受け取ったときの中立値
const NeutralTaste = 3.0

// ClampTaste AIが返した味わいの値を[1,5]・0.5刻みに丸める
// nil（未返却）はnilのまま、数値でない値はNeutralTasteとして扱う
func ClampTaste(raw interface{}) *float64 {
	if raw == nil {
		return nil
	}

	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		v = NeutralTaste
	}

	v = math.Max(1, math.Min(5, v))
	v = math.Round(v*2) / 2
	return &v
}

// ClampMeter メーター値を[0,5]・小数1桁に丸める
func ClampMeter(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(0, math.Min(5, v))
	return math.Round(v*10) / 10
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
