package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/usecase"
)

func init() {
	Init(true)
}

func TestMeterBar(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "境界値: 0", value: 0, want: "○○○○○ 0.0"},
		{name: "正常系: 四捨五入", value: 2.5, want: "●●●○○ 2.5"},
		{name: "正常系: 切り捨て", value: 3.4, want: "●●●○○ 3.4"},
		{name: "境界値: 5", value: 5, want: "●●●●● 5.0"},
		{name: "境界値: 上限超え", value: 7, want: "●●●●● 7.0"},
		{name: "境界値: 負の値", value: -1, want: "○○○○○ -1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeterBar(tt.value))
		})
	}
}

func TestMeters_SkipsMissingOptional(t *testing.T) {
	var buf bytes.Buffer
	Meters(&buf, domain.TasteProfile{Sotma: 1, Fyllighet: 2, Fruktighet: 3, Fruktsyra: 4, Tannin: domain.Float64(2.5)})

	out := buf.String()
	assert.Contains(t, out, domain.MeterTannin)
	assert.NotContains(t, out, domain.MeterEk+" ")
}

func TestAnalysis(t *testing.T) {
	outcome := &usecase.ScanOutcome{
		LabelHash: "abc123",
		CacheHit:  true,
		Result: &domain.AnalysisResult{
			Metadata: domain.WineMetadata{
				WineName:     "Barolo",
				Producer:     "Vietti",
				GrapeVariety: []string{"Nebbiolo"},
				Region:       "Piemonte",
				Country:      "Italien",
				Vintage:      "2018",
			},
			Taste:      &domain.TasteProfile{Sotma: 1, Fyllighet: 4, Fruktighet: 3, Fruktsyra: 4},
			Karaktar:   "Stram och elegant",
			PassarTill: []string{"Tryffel", "Vilt"},
			Evidence:   domain.Evidence{Sources: []string{"https://example.com/barolo"}},
			Meta:       domain.AnalysisMeta{MetersSource: domain.MetersSourceEstimated},
		},
	}

	var buf bytes.Buffer
	Analysis(&buf, outcome)

	out := buf.String()
	assert.Contains(t, out, "Vietti Barolo 2018")
	assert.Contains(t, out, "Piemonte, Italien")
	assert.Contains(t, out, "Tryffel, Vilt")
	assert.Contains(t, out, "https://example.com/barolo")
	assert.Contains(t, out, "Från cache (abc123)")
}

func TestProgressBar_FinishOnce(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, "test")

	bar.Update(domain.ProgressEvent{Step: domain.StepPrep, Percent: 10, Label: "prep"})
	bar.Update(domain.ProgressEvent{Step: domain.StepDone, Percent: 100, Label: "done"})
	bar.Finish()

	assert.True(t, bar.finished)
	assert.NotEmpty(t, buf.String())
}
