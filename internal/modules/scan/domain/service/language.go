package service

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultOCRLanguage 未対応ロケールのフォールバック
const DefaultOCRLanguage = "eng"

// UIの言語コード → Tesseractの言語データ名
var ocrLanguages = map[string]string{
	"en": "eng",
	"sv": "swe",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"nl": "nld",
	"da": "dan",
	"fi": "fin",
}

// ResolveOCRLanguage UIロケール（"sv", "sv-SE", "sv_SE"）をOCR言語に変換する
func ResolveOCRLanguage(locale string) string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if locale == "" {
		return DefaultOCRLanguage
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultOCRLanguage
	}

	base, _ := tag.Base()
	if lang, ok := ocrLanguages[base.String()]; ok {
		return lang
	}
	return DefaultOCRLanguage
}

// SupportedOCRLanguages 対応しているOCR言語の一覧
func SupportedOCRLanguages() []string {
	langs := make([]string, 0, len(ocrLanguages))
	for _, l := range ocrLanguages {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}
