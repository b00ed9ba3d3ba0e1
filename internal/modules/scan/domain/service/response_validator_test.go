package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pickSchema struct {
	Picks      []string `json:"picks" validate:"required,max=3"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
}

func TestValidateResponse(t *testing.T) {
	fallback := pickSchema{Picks: []string{}, Confidence: 0.5}

	tests := []struct {
		name      string
		raw       interface{}
		wantValid bool
		wantData  pickSchema
		wantIssue string
	}{
		{
			name:      "正常系: JSON文字列",
			raw:       `{"picks":["Barolo"],"confidence":0.9}`,
			wantValid: true,
			wantData:  pickSchema{Picks: []string{"Barolo"}, Confidence: 0.9},
		},
		{
			name:      "正常系: フェンス付き",
			raw:       "```json\n{\"picks\":[],\"confidence\":0.1}\n```",
			wantValid: true,
			wantData:  pickSchema{Picks: []string{}, Confidence: 0.1},
		},
		{
			name:      "正常系: パース済みオブジェクト",
			raw:       map[string]interface{}{"picks": []string{"Chablis"}, "confidence": 1},
			wantValid: true,
			wantData:  pickSchema{Picks: []string{"Chablis"}, Confidence: 1},
		},
		{
			name:      "正常系: バイト列",
			raw:       []byte(`{"picks":["Rioja"],"confidence":0}`),
			wantValid: true,
			wantData:  pickSchema{Picks: []string{"Rioja"}, Confidence: 0},
		},
		{
			name:      "異常系: 不正なJSON",
			raw:       `{"picks": [`,
			wantValid: false,
			wantData:  fallback,
			wantIssue: "parse",
		},
		{
			name:      "異常系: 範囲外の値",
			raw:       `{"picks":["Barolo"],"confidence":2}`,
			wantValid: false,
			wantData:  fallback,
			wantIssue: "confidence",
		},
		{
			name:      "異常系: 必須項目なし",
			raw:       `{"confidence":0.3}`,
			wantValid: false,
			wantData:  fallback,
			wantIssue: "picks",
		},
		{
			name:      "異常系: 件数超過",
			raw:       `{"picks":["a","b","c","d"],"confidence":0.3}`,
			wantValid: false,
			wantData:  fallback,
			wantIssue: "max",
		},
		{
			name:      "異常系: nil",
			raw:       nil,
			wantValid: false,
			wantData:  fallback,
			wantIssue: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateResponse(tt.raw, fallback)

			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.Equal(t, tt.wantData, got.Data)
			if tt.wantIssue != "" {
				assert.NotEmpty(t, got.Issues)
				assert.True(t, strings.Contains(strings.Join(got.Issues, ";"), tt.wantIssue),
					"issues %v should mention %q", got.Issues, tt.wantIssue)
			} else {
				assert.Empty(t, got.Issues)
			}
		})
	}
}

func TestValidateResponse_NonStructSchema(t *testing.T) {
	got := ValidateResponse(`["a","b"]`, []string{"fallback"})

	assert.False(t, got.IsValid)
	assert.Equal(t, []string{"fallback"}, got.Data)
}
