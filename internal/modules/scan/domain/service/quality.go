package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	vagueMinLength        = 20
	vagueGenericMaxLength = 50
)

// 曖昧な要約に使われがちな形容詞（発音区別符号除去後の表記）
var genericAdjectives = regexp.MustCompile(`\b(nice|pleasant|good|great|lovely|tasty|delicious|balanced|god|gott|goda|trevlig|trevligt|fin|fint|harlig|harligt|behaglig|behagligt|smakrik|smakrikt|balanserad|balanserat)\b`)

// IsVagueSummary 要約が曖昧か判定する
// 20文字未満、または汎用的な形容詞を含み50文字未満なら曖昧
func IsVagueSummary(summary string) bool {
	summary = strings.TrimSpace(summary)
	length := utf8.RuneCountInString(summary)
	if length < vagueMinLength {
		return true
	}
	return length < vagueGenericMaxLength && genericAdjectives.MatchString(FoldText(summary))
}
