package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
	"winescan-app/internal/modules/scan/domain"
)

// MaxFactSources 出典リンクの上限
const MaxFactSources = 4

var (
	urlPattern       = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)
	urlTrailing      = ".,;:!?'\""
	citationPattern  = regexp.MustCompile(`\[\d+\]`)
	spacesPattern    = regexp.MustCompile(`[ \t]{2,}`)
	emptyParenthesis = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
)

// FactLookupUseCase ワインの事実情報を検索する（失敗しても空の結果を返す）
type FactLookupUseCase struct {
	factRepo domain.FactRepository
	timeout  time.Duration
}

// NewFactLookupUseCase 新しいFactLookupUseCaseを作成
func NewFactLookupUseCase(factRepo domain.FactRepository, timeout time.Duration) *FactLookupUseCase {
	return &FactLookupUseCase{factRepo: factRepo, timeout: timeout}
}

// Lookup メタデータから要約と出典を取得する。パイプラインを止めることはない
func (uc *FactLookupUseCase) Lookup(ctx context.Context, meta *domain.WineMetadata) domain.FactSummary {
	if uc.factRepo == nil || !uc.factRepo.Enabled() {
		return domain.FactSummary{Sources: []string{}}
	}

	callCtx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	result, err := uc.factRepo.Lookup(callCtx, factQuery(meta))
	if err != nil || !result.HasText() {
		entry := logger.WithContext(ctx).WithFields(logrus.Fields{
			"code":  domain.CodeFactLookup,
			"stage": domain.StageFacts,
		})
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Warn("fact lookup degraded to empty summary")
		return domain.FactSummary{Sources: []string{}}
	}

	return ParseFactText(result.Text)
}

// ParseFactText 自由記述からURLを抜き出し、本文からは取り除く
func ParseFactText(text string) domain.FactSummary {
	sources := []string{}
	seen := make(map[string]bool)
	for _, raw := range urlPattern.FindAllString(text, -1) {
		url := strings.TrimRight(raw, urlTrailing)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		if len(sources) < MaxFactSources {
			sources = append(sources, url)
		}
	}

	// URLだけを消し、直後の句読点は本文に残す
	summary := urlPattern.ReplaceAllStringFunc(text, func(raw string) string {
		return raw[len(strings.TrimRight(raw, urlTrailing)):]
	})
	summary = citationPattern.ReplaceAllString(summary, "")
	summary = emptyParenthesis.ReplaceAllString(summary, "")
	summary = spacesPattern.ReplaceAllString(summary, " ")
	summary = strings.ReplaceAll(summary, " .", ".")
	summary = strings.ReplaceAll(summary, " ,", ",")

	return domain.FactSummary{
		Summary: strings.TrimSpace(summary),
		Sources: sources,
	}
}

func factQuery(meta *domain.WineMetadata) string {
	var b strings.Builder
	b.WriteString("Wine: ")
	b.WriteString(meta.DisplayName())
	if len(meta.GrapeVariety) > 0 {
		b.WriteString("\nGrapes: ")
		b.WriteString(strings.Join(meta.GrapeVariety, ", "))
	}
	if meta.Region != "" {
		b.WriteString("\nRegion: ")
		b.WriteString(meta.Region)
	}
	if meta.Country != "" {
		b.WriteString("\nCountry: ")
		b.WriteString(meta.Country)
	}
	return b.String()
}
