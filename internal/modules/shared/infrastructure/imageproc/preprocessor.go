package imageproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // WebP形式のサポート

	"winescan-app/internal/modules/scan/domain"
)

// 撮影直後の圧縮と、Vision API送信前の縮小は別々の上限を持つ
const (
	CaptureMaxDimension = 2048
	CaptureQuality      = 90
	VisionMaxDimension  = 1600
	VisionQuality       = 85
	ThumbnailSize       = 256
	ThumbnailQuality    = 75

	// MaxImageBytes 受け付ける画像サイズの上限（10MB）
	MaxImageBytes = 10 << 20
)

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// Preprocessor imagingによる画像前処理
type Preprocessor struct{}

// NewPreprocessor 新しいPreprocessorを作成
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Preprocess 長辺をmaxDimension以下に縮小（アスペクト比維持）し、JPEGで再圧縮する
// 向きの補正は行わない。EXIFの回転は撮影側の自動処理に任せる
func (p *Preprocessor) Preprocess(img domain.ScanImage, maxDimension, quality int) (*domain.PreprocessedImage, error) {
	src, err := decode(img.Data)
	if err != nil {
		return nil, domain.NewScanError(domain.CodeImageDecode, domain.StagePreprocess, "failed to decode image", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		src = imaging.Fit(src, maxDimension, maxDimension, imaging.Lanczos)
	}

	data, err := encodeJPEG(src, quality)
	if err != nil {
		return nil, domain.NewScanError(domain.CodeImageDecode, domain.StagePreprocess, "failed to encode image", err)
	}

	resized := src.Bounds()
	return &domain.PreprocessedImage{
		Data:     data,
		MimeType: "image/jpeg",
		Width:    resized.Dx(),
		Height:   resized.Dy(),
	}, nil
}

// Thumbnail 保存用の小さなサムネイルをbase64で返す
func (p *Preprocessor) Thumbnail(img *domain.PreprocessedImage) (string, error) {
	src, err := decode(img.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode image for thumbnail: %w", err)
	}

	thumb := imaging.Fit(src, ThumbnailSize, ThumbnailSize, imaging.Box)
	data, err := encodeJPEG(thumb, ThumbnailQuality)
	if err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ValidateImageData 画像データを検証
func ValidateImageData(data []byte) error {
	if len(data) == 0 {
		return errors.New("image data is empty")
	}

	if len(data) > MaxImageBytes {
		return errors.New("image size exceeds 10MB")
	}

	mtype := mimetype.Detect(data)
	if !allowedMimeTypes[mtype.String()] {
		return fmt.Errorf("unsupported format: %s", mtype.String())
	}

	return nil
}

func decode(data []byte) (image.Image, error) {
	if err := ValidateImageData(data); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image data: %w", err)
	}
	return img, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
