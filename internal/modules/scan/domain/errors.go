package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode スキャンエラーの分類
type ErrorCode string

const (
	CodeImageDecode       ErrorCode = "ImageDecodeError"
	CodeOcrEngine         ErrorCode = "OcrEngineError"
	CodeContentUnreadable ErrorCode = "ContentUnreadableError"
	CodeResponseParse     ErrorCode = "ResponseParseError"
	CodeTasteQualityGate  ErrorCode = "TasteQualityGateError"
	CodePipelineTimeout   ErrorCode = "PipelineTimeoutError"
	CodeCacheWrite        ErrorCode = "CacheWriteFailure"
	CodeFactLookup        ErrorCode = "FactLookupDegraded"
	CodeAIGateway         ErrorCode = "AIGatewayError"
	CodeSuperseded        ErrorCode = "ScanSuperseded"
	CodeCanceled          ErrorCode = "ScanCanceled"
)

// ステージ名
const (
	StagePreprocess = "prep"
	StageOCR        = "ocr"
	StageCache      = "cache"
	StageMetadata   = "metadata"
	StageFacts      = "facts"
	StageTaste      = "taste"
	StagePipeline   = "pipeline"
)

// errors.Is で判定するためのセンチネル
var (
	ErrImageDecode       = &ScanError{Code: CodeImageDecode}
	ErrOcrEngine         = &ScanError{Code: CodeOcrEngine}
	ErrContentUnreadable = &ScanError{Code: CodeContentUnreadable}
	ErrResponseParse     = &ScanError{Code: CodeResponseParse}
	ErrTasteQualityGate  = &ScanError{Code: CodeTasteQualityGate}
	ErrPipelineTimeout   = &ScanError{Code: CodePipelineTimeout}
	ErrCacheWrite        = &ScanError{Code: CodeCacheWrite}
	ErrAIGateway         = &ScanError{Code: CodeAIGateway}
	ErrSuperseded        = &ScanError{Code: CodeSuperseded}
	ErrCanceled          = &ScanError{Code: CodeCanceled}
)

// ErrNotFound キャッシュ・永続化層で対象が見つからない
var ErrNotFound = errors.New("not found")

var userMessages = map[ErrorCode]string{
	CodeImageDecode:       "Bilden kunde inte läsas. Prova att ta ett nytt foto.",
	CodeOcrEngine:         "Textigenkänningen misslyckades. Försök igen.",
	CodeContentUnreadable: "Etiketten gick inte att tyda. Ta en skarpare bild av etiketten.",
	CodeResponseParse:     "Analysen gav ett ogiltigt svar. Försök igen.",
	CodeTasteQualityGate:  "Vi kunde inte ta fram en tillräckligt bra smakprofil. Försök igen.",
	CodePipelineTimeout:   "Analysen tog för lång tid. Försök igen.",
	CodeAIGateway:         "Analystjänsten svarar inte just nu. Försök igen om en stund.",
	CodeSuperseded:        "Skanningen ersattes av en nyare skanning.",
	CodeCanceled:          "Skanningen avbröts.",
}

// ScanError パイプラインの型付きエラー
type ScanError struct {
	Code    ErrorCode
	Stage   string
	Message string
	Cause   error
}

// NewScanError 新しいScanErrorを作成
func NewScanError(code ErrorCode, stage, message string, cause error) *ScanError {
	return &ScanError{
		Code:    code,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// Error errorインターフェースの実装
func (e *ScanError) Error() string {
	msg := string(e.Code)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Stage)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap 原因エラーを返す
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is コードが一致すれば同一とみなす
func (e *ScanError) Is(target error) bool {
	t, ok := target.(*ScanError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// UserMessage 利用者向けメッセージ
func (e *ScanError) UserMessage() string {
	if msg, ok := userMessages[e.Code]; ok {
		return msg
	}
	return "Något gick fel. Försök igen."
}

// StatusCode HTTPステータスコードへの対応
func (e *ScanError) StatusCode() int {
	switch e.Code {
	case CodeImageDecode:
		return http.StatusBadRequest
	case CodeContentUnreadable:
		return http.StatusUnprocessableEntity
	case CodeResponseParse, CodeTasteQualityGate, CodeAIGateway:
		return http.StatusBadGateway
	case CodePipelineTimeout:
		return http.StatusGatewayTimeout
	case CodeSuperseded, CodeCanceled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsScanError エラーチェーンからScanErrorを取り出す
func AsScanError(err error) (*ScanError, bool) {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr, true
	}
	return nil, false
}
