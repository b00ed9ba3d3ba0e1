package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
)

// RequiredPairings 料理の組み合わせの必要数
const RequiredPairings = 3

// 修復の種類（AnalysisMeta.Repairsに記録）
const (
	RepairSummary  = "summary"
	RepairPairings = "pairings"
)

// tastePayload AIが返す味わいJSON。数値は型を信用せずinterface{}で受ける
type tastePayload struct {
	Sotma         interface{}     `json:"sötma"`
	SotmaASCII    interface{}     `json:"sotma"`
	Fyllighet     interface{}     `json:"fyllighet"`
	Fruktighet    interface{}     `json:"fruktighet"`
	Fruktsyra     interface{}     `json:"fruktsyra"`
	Tannin        interface{}     `json:"tannin"`
	Ek            interface{}     `json:"ek"`
	Karaktar      string          `json:"karaktär"`
	KaraktarASCII string          `json:"karaktar"`
	Smak          string          `json:"smak"`
	Servering     string          `json:"servering"`
	Summary       string          `json:"summary"`
	PassarTill    flexibleStrings `json:"passar_till"`
	UsedSignals   flexibleStrings `json:"used_signals"`
}

// TasteOutcome 味わい生成の結果（品質ゲート通過済み）
type TasteOutcome struct {
	Taste       domain.PartialTaste
	Karaktar    string
	Smak        string
	Servering   string
	Summary     string
	PassarTill  []string
	UsedSignals []string
	Repairs     []string
	Model       string
}

// TasteUseCase 味わいプロファイルを生成し、品質ゲートで修復する
// 修復は要約と料理の組み合わせそれぞれ最大1回
type TasteUseCase struct {
	aiRepo      domain.AIRepository
	callTimeout time.Duration
}

// NewTasteUseCase 新しいTasteUseCaseを作成
func NewTasteUseCase(aiRepo domain.AIRepository, callTimeout time.Duration) *TasteUseCase {
	return &TasteUseCase{aiRepo: aiRepo, callTimeout: callTimeout}
}

// Generate メタデータと事実情報から味わいと説明文を生成する
func (uc *TasteUseCase) Generate(ctx context.Context, meta *domain.WineMetadata, facts domain.FactSummary) (*TasteOutcome, error) {
	result, err := uc.complete(ctx, domain.TaskTasteProfile, tastePrompt(meta, facts))
	if err != nil {
		return nil, err
	}

	var payload tastePayload
	if err := json.Unmarshal([]byte(service.ExtractJSON(result.Text)), &payload); err != nil {
		return nil, domain.NewScanError(domain.CodeResponseParse, domain.StageTaste, "invalid taste json", err)
	}

	outcome := &TasteOutcome{
		Taste: domain.PartialTaste{
			Sotma:      service.ClampTaste(firstNonNil(payload.Sotma, payload.SotmaASCII)),
			Fyllighet:  service.ClampTaste(payload.Fyllighet),
			Fruktighet: service.ClampTaste(payload.Fruktighet),
			Fruktsyra:  service.ClampTaste(payload.Fruktsyra),
			Tannin:     service.ClampTaste(payload.Tannin),
			Ek:         service.ClampTaste(payload.Ek),
		},
		Karaktar:    firstNonEmpty(payload.Karaktar, payload.KaraktarASCII),
		Smak:        strings.TrimSpace(payload.Smak),
		Servering:   strings.TrimSpace(payload.Servering),
		Summary:     strings.TrimSpace(payload.Summary),
		PassarTill:  []string(payload.PassarTill),
		UsedSignals: []string(payload.UsedSignals),
		Model:       result.Model,
	}
	if outcome.PassarTill == nil {
		outcome.PassarTill = []string{}
	}
	if outcome.UsedSignals == nil {
		outcome.UsedSignals = []string{}
	}

	if service.IsVagueSummary(outcome.Summary) {
		if err := uc.repairSummary(ctx, meta, outcome); err != nil {
			return nil, err
		}
	}

	if len(outcome.PassarTill) != RequiredPairings {
		if err := uc.repairPairings(ctx, outcome); err != nil {
			return nil, err
		}
	}

	if err := checkQuality(outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

// repairSummary 要約を書き直させる。曖昧なままなら元の要約を残す
// コンテキスト終了以外の失敗は修復失敗として扱い、最終ゲートに任せる
func (uc *TasteUseCase) repairSummary(ctx context.Context, meta *domain.WineMetadata, outcome *TasteOutcome) error {
	prompt := fmt.Sprintf("Wine: %s\nTaste profile: %s\nCurrent summary: %q\nRewrite the summary.",
		meta.DisplayName(), describeTaste(outcome.Taste), outcome.Summary)

	result, err := uc.complete(ctx, domain.TaskRepairSummary, prompt)
	if err != nil {
		return uc.repairFailed(ctx, RepairSummary, err)
	}

	var payload struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(service.ExtractJSON(result.Text)), &payload); err != nil {
		return uc.repairFailed(ctx, RepairSummary, err)
	}

	repaired := strings.TrimSpace(payload.Summary)
	if service.IsVagueSummary(repaired) {
		logger.WithContext(ctx).WithField("summary", repaired).Info("summary repair still vague, keeping original")
		return nil
	}

	outcome.Summary = repaired
	outcome.Repairs = append(outcome.Repairs, RepairSummary)
	return nil
}

// repairPairings 味わいの数値だけを渡して料理を3つ出し直させる
func (uc *TasteUseCase) repairPairings(ctx context.Context, outcome *TasteOutcome) error {
	prompt := fmt.Sprintf("Taste profile: %s\nGive exactly %d pairings.", describeTaste(outcome.Taste), RequiredPairings)

	result, err := uc.complete(ctx, domain.TaskRepairPairings, prompt)
	if err != nil {
		return uc.repairFailed(ctx, RepairPairings, err)
	}

	var payload struct {
		PassarTill flexibleStrings `json:"passar_till"`
	}
	if err := json.Unmarshal([]byte(service.ExtractJSON(result.Text)), &payload); err != nil {
		return uc.repairFailed(ctx, RepairPairings, err)
	}

	pairings := []string(payload.PassarTill)
	if len(pairings) > RequiredPairings {
		pairings = pairings[:RequiredPairings]
	}
	if len(pairings) == RequiredPairings {
		outcome.PassarTill = pairings
		outcome.Repairs = append(outcome.Repairs, RepairPairings)
	}
	return nil
}

func (uc *TasteUseCase) repairFailed(ctx context.Context, repair string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s repair: %w", repair, ctx.Err())
	}
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"stage":  domain.StageTaste,
		"repair": repair,
	}).WithError(err).Warn("taste repair call failed")
	return nil
}

// complete 呼び出しごとのタイムアウトを付けてAIを呼ぶ
// 全体の期限の方が短ければそちらが優先される
func (uc *TasteUseCase) complete(ctx context.Context, task domain.AITask, prompt string) (*domain.AIResult, error) {
	callCtx := ctx
	if uc.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.callTimeout)
		defer cancel()
	}

	result, err := uc.aiRepo.Complete(callCtx, task, prompt)
	if err != nil {
		return nil, aiCallError(ctx, domain.StageTaste, err)
	}
	return result, nil
}

func checkQuality(outcome *TasteOutcome) error {
	switch {
	case outcome.Summary == "":
		return domain.NewScanError(domain.CodeTasteQualityGate, domain.StageTaste, "summary is empty", nil)
	case service.IsVagueSummary(outcome.Summary):
		return domain.NewScanError(domain.CodeTasteQualityGate, domain.StageTaste, "summary is still vague after repair", nil)
	case len(outcome.PassarTill) != RequiredPairings:
		return domain.NewScanError(domain.CodeTasteQualityGate, domain.StageTaste,
			fmt.Sprintf("expected %d pairings, got %d", RequiredPairings, len(outcome.PassarTill)), nil)
	}
	return nil
}

func tastePrompt(meta *domain.WineMetadata, facts domain.FactSummary) string {
	metaJSON, _ := json.Marshal(meta)

	var b strings.Builder
	b.WriteString("Wine metadata:\n")
	b.Write(metaJSON)
	if facts.Summary != "" {
		b.WriteString("\n\nWeb facts:\n")
		b.WriteString(facts.Summary)
	}
	return b.String()
}

// describeTaste 修復プロンプト用に数値だけを並べる
func describeTaste(t domain.PartialTaste) string {
	dims := []struct {
		name  string
		value *float64
	}{
		{domain.MeterSotma, t.Sotma},
		{domain.MeterFyllighet, t.Fyllighet},
		{domain.MeterFruktighet, t.Fruktighet},
		{domain.MeterFruktsyra, t.Fruktsyra},
		{domain.MeterTannin, t.Tannin},
		{domain.MeterEk, t.Ek},
	}

	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		if d.value != nil {
			parts = append(parts, fmt.Sprintf("%s %.1f", d.name, *d.value))
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ", ")
}
