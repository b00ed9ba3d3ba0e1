package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/usecase"
)

var (
	headingColor = color.New(color.FgMagenta, color.Bold)
	labelColor   = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// meterScale メーターの最大値
const meterScale = 5

// Init 色の有効・無効を設定する
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Success 成功メッセージ
func Success(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning 警告メッセージ
func Warning(w io.Writer, format string, args ...interface{}) {
	warningColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Error エラーメッセージ
func Error(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Section 見出しを表示する
func Section(w io.Writer, title string) {
	headingColor.Fprintf(w, "\n%s\n", title)
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", len([]rune(title))))
}

// MeterBar 0〜5の値を●○で表す（例: ●●●○○ 3.2）
func MeterBar(v float64) string {
	filled := int(v + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > meterScale {
		filled = meterScale
	}
	return fmt.Sprintf("%s%s %.1f", strings.Repeat("●", filled), strings.Repeat("○", meterScale-filled), v)
}

// Meters 味わいメーターを表示する
func Meters(w io.Writer, taste domain.TasteProfile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		name  string
		value *float64
	}{
		{domain.MeterSotma, &taste.Sotma},
		{domain.MeterFyllighet, &taste.Fyllighet},
		{domain.MeterFruktighet, &taste.Fruktighet},
		{domain.MeterFruktsyra, &taste.Fruktsyra},
		{domain.MeterTannin, taste.Tannin},
		{domain.MeterEk, taste.Ek},
	}
	for _, row := range rows {
		if row.value == nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", labelColor.Sprint(row.name), MeterBar(*row.value))
	}
	_ = tw.Flush()
}

// Analysis スキャン結果を表示する
func Analysis(w io.Writer, outcome *usecase.ScanOutcome) {
	result := outcome.Result

	name := result.Metadata.DisplayName()
	if name == "" {
		name = "(okänt vin)"
	}
	Section(w, name)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(tw, "%s\t%s\n", labelColor.Sprint(label), value)
	}
	field("Producent", result.Metadata.Producer)
	field("Druvor", strings.Join(result.Metadata.GrapeVariety, ", "))
	field("Region", joinNonEmpty(result.Metadata.Region, result.Metadata.Country))
	field("Årgång", result.Metadata.Vintage)
	_ = tw.Flush()

	if result.Taste != nil {
		Section(w, "Smakprofil ("+result.Meta.MetersSource+")")
		Meters(w, *result.Taste)
	}

	Section(w, "Beskrivning")
	for _, text := range []string{result.Karaktar, result.Smak, result.Servering} {
		if text != "" {
			fmt.Fprintln(w, text)
		}
	}
	if len(result.PassarTill) > 0 {
		fmt.Fprintf(w, "%s %s\n", labelColor.Sprint("Passar till:"), strings.Join(result.PassarTill, ", "))
	}

	if len(result.Evidence.Sources) > 0 {
		Section(w, "Källor")
		for _, src := range result.Evidence.Sources {
			fmt.Fprintf(w, "- %s\n", src)
		}
	}

	fmt.Fprintln(w)
	if outcome.CacheHit {
		Success(w, "Från cache (%s)", outcome.LabelHash)
	} else {
		Success(w, "Analyserad (%s)", outcome.LabelHash)
	}
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
