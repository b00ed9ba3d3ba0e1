//go:build !no_ocr

package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

var defaultEngineFactory engineFactory = newTesseractEngine

// tesseractEngine gosseractクライアントのラッパー
type tesseractEngine struct {
	client *gosseract.Client
}

func newTesseractEngine(tessdataPrefix string) (engineHandle, error) {
	client := gosseract.NewClient()

	if tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(tessdataPrefix); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}

	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &tesseractEngine{client: client}, nil
}

func (e *tesseractEngine) SetLanguage(lang string) error {
	return e.client.SetLanguage(lang)
}

func (e *tesseractEngine) Recognize(imageData []byte) (string, error) {
	if err := e.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	return e.client.Text()
}

func (e *tesseractEngine) Close() error {
	return e.client.Close()
}
