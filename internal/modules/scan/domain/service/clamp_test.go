package service

import (
	"encoding/json"
	"math"
	"testing"
)

func TestClampTaste(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want *float64
	}{
		{name: "正常系: 範囲内", raw: 3.5, want: ptr(3.5)},
		{name: "正常系: 0.5刻みに丸め（切り上げ）", raw: 3.3, want: ptr(3.5)},
		{name: "正常系: 0.5刻みに丸め（切り捨て）", raw: 3.2, want: ptr(3.0)},
		{name: "正常系: 整数", raw: 4, want: ptr(4)},
		{name: "正常系: json.Number", raw: json.Number("4.4"), want: ptr(4.5)},
		{name: "正常系: 数値文字列", raw: "2,5", want: ptr(2.5)},
		{name: "境界値: 上限超過", raw: 7.0, want: ptr(5)},
		{name: "境界値: 下限未満", raw: -3.0, want: ptr(1)},
		{name: "境界値: 0は1に", raw: 0.0, want: ptr(1)},
		{name: "異常系: 数値でない文字列は中立値", raw: "medium", want: ptr(3)},
		{name: "異常系: boolは中立値", raw: true, want: ptr(3)},
		{name: "異常系: NaNは中立値", raw: math.NaN(), want: ptr(3)},
		{name: "異常系: 未返却はnil", raw: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampTaste(tt.raw)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ClampTaste() = %v, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ClampTaste() = nil, want %v", *tt.want)
			}
			if *got != *tt.want {
				t.Errorf("ClampTaste() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestClampMeter(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 2.36, want: 2.4},
		{in: 5.04, want: 5.0},
		{in: 9.9, want: 5.0},
		{in: -1, want: 0},
		{in: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		if got := ClampMeter(tt.in); got != tt.want {
			t.Errorf("ClampMeter(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func ptr(v float64) *float64 {
	return &v
}
