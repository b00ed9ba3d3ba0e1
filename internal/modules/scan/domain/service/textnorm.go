package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]{2,}`)

// NormalizeOCRText NFC正規化し、2文字以上連続する空白を1つのスペースにまとめてトリムする
func NormalizeOCRText(text string) string {
	text = norm.NFC.String(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// FoldText 発音区別符号を除去して小文字化する（ö → o, é → e）
func FoldText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}
