//go:build no_ocr

package ocr

// no_ocrビルドではエンジンを持たず、Recognizeは常に空文字を返す
var defaultEngineFactory engineFactory
