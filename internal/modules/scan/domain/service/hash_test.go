package service

import (
	"encoding/hex"
	"testing"
)

func TestHashText(t *testing.T) {
	a := HashText("Tokaji Furmint 2017")
	b := HashText("Tokaji Furmint 2017")
	c := HashText("Tokaji Furmint 2018")

	if a != b {
		t.Errorf("HashText() not deterministic: %s vs %s", a, b)
	}
	if a == c {
		t.Error("HashText() returned the same hash for different text")
	}
	if len(a) != LabelHashLength {
		t.Errorf("len(HashText()) = %d, want %d", len(a), LabelHashLength)
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("HashText() is not hex: %v", err)
	}
}

func TestLabelHash(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0x01, 0x02}

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "正常系: テキストを優先", text: "Barolo", want: HashText("Barolo")},
		{name: "正常系: テキストが空なら画像", text: "", want: HashBytes(image)},
		{name: "境界値: 空白のみは空扱い", text: "  \n ", want: HashBytes(image)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LabelHash(tt.text, image); got != tt.want {
				t.Errorf("LabelHash() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("analysis", "abc"); got != "winescan:analysis:abc" {
		t.Errorf("CacheKey() = %s", got)
	}
}
