package usecase

import (
	"encoding/json"
	"strings"
)

// flexibleStrings 文字列または文字列配列を受け付ける（AIの出力揺れ対策）
type flexibleStrings []string

func (f *flexibleStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = cleanStrings(list)
		return nil
	}

	var single *string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == nil || strings.TrimSpace(*single) == "" {
		*f = []string{}
		return nil
	}
	*f = []string{strings.TrimSpace(*single)}
	return nil
}

func cleanStrings(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}

// firstNonNil ASCII表記の別名キーを許容する
func firstNonNil(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
