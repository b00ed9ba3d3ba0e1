package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// LabelHashLength ラベルハッシュの桁数（16進）
const LabelHashLength = 40

// HashText テキストのラベルハッシュ
func HashText(text string) string {
	return HashBytes([]byte(text))
}

// HashBytes バイト列のラベルハッシュ
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:LabelHashLength]
}

// LabelHash OCRテキストを優先し、空なら画像バイトからハッシュを作る
func LabelHash(text string, imageData []byte) string {
	if strings.TrimSpace(text) != "" {
		return HashText(text)
	}
	return HashBytes(imageData)
}

// CacheKey キャッシュキーを生成（winescan:<kind>:<hash>）
func CacheKey(kind, hash string) string {
	return fmt.Sprintf("winescan:%s:%s", kind, hash)
}
