package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
)

// metadataPayload AIが返すメタデータJSON
type metadataPayload struct {
	WineName     string          `json:"wineName"`
	Producer     string          `json:"producer"`
	GrapeVariety flexibleStrings `json:"grapeVariety"`
	Region       string          `json:"region"`
	Country      string          `json:"country"`
	Vintage      interface{}     `json:"vintage"`
}

// MetadataUseCase ラベルからワイン情報を抽出する
type MetadataUseCase struct {
	aiRepo domain.AIRepository
}

// NewMetadataUseCase 新しいMetadataUseCaseを作成
func NewMetadataUseCase(aiRepo domain.AIRepository) *MetadataUseCase {
	return &MetadataUseCase{aiRepo: aiRepo}
}

// Extract 画像（とOCRヒント）からメタデータを抽出する
// 不正なJSONはResponseParseError、名前・品種・産地がすべて空ならContentUnreadableError
func (uc *MetadataUseCase) Extract(ctx context.Context, img *domain.PreprocessedImage, ocrHint string) (*domain.WineMetadata, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, domain.NewScanError(domain.CodeImageDecode, domain.StageMetadata, "image data is empty", nil)
	}

	result, err := uc.aiRepo.ExtractMetadata(ctx, img.Data, img.MimeType, ocrHint)
	if err != nil {
		return nil, aiCallError(ctx, domain.StageMetadata, err)
	}

	return ParseMetadata(result.Text)
}

// ParseMetadata AIの応答テキストをWineMetadataに変換する
func ParseMetadata(text string) (*domain.WineMetadata, error) {
	var payload metadataPayload
	if err := json.Unmarshal([]byte(service.ExtractJSON(text)), &payload); err != nil {
		return nil, domain.NewScanError(domain.CodeResponseParse, domain.StageMetadata, "invalid metadata json", err)
	}

	meta := &domain.WineMetadata{
		WineName:     payload.WineName,
		Producer:     payload.Producer,
		GrapeVariety: []string(payload.GrapeVariety),
		Region:       payload.Region,
		Country:      payload.Country,
		Vintage:      vintageString(payload.Vintage),
	}
	meta.Normalize()

	if meta.IsUnreadable() {
		return nil, domain.NewScanError(domain.CodeContentUnreadable, domain.StageMetadata, "name, grapes and region are all empty", nil)
	}
	return meta, nil
}

func vintageString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.Itoa(int(t))
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// aiCallError AI呼び出しの失敗を分類する
// コンテキスト終了はそのまま返し、パイプライン側でタイムアウト／キャンセルに変換する
func aiCallError(ctx context.Context, stage string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", stage, ctx.Err())
	}
	return domain.NewScanError(domain.CodeAIGateway, stage, "AI request failed", err)
}
