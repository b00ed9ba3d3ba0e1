package service

import "strings"

// ExtractJSON AIの応答から ```json フェンスや前後の説明文を取り除く
func ExtractJSON(text string) string {
	clean := text
	if idx := strings.Index(clean, "```json"); idx != -1 {
		clean = clean[idx+7:]
		if idx := strings.Index(clean, "```"); idx != -1 {
			clean = clean[:idx]
		}
	} else if idx := strings.Index(clean, "```"); idx != -1 {
		clean = clean[idx+3:]
		if idx := strings.Index(clean, "```"); idx != -1 {
			clean = clean[:idx]
		}
	}
	clean = strings.TrimSpace(clean)

	if strings.HasPrefix(clean, "{") || strings.HasPrefix(clean, "[") {
		return clean
	}

	// 説明文に埋め込まれたオブジェクトを切り出す
	start := strings.IndexAny(clean, "{[")
	end := strings.LastIndexAny(clean, "}]")
	if start != -1 && end > start {
		return clean[start : end+1]
	}
	return clean
}
