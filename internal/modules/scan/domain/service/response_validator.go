package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"winescan-app/internal/logger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーメッセージにJSONのフィールド名を使う
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationResult スキーマ検証の結果。IsValidがfalseのときDataはフォールバック
type ValidationResult[T any] struct {
	Data    T        `json:"data"`
	IsValid bool     `json:"is_valid"`
	Issues  []string `json:"issues,omitempty"`
}

// ValidateResponse AIの応答（JSON文字列・バイト列・オブジェクト）をスキーマ検証する
// パース失敗も検証失敗として扱い、決してpanicやerrorを返さない
func ValidateResponse[T any](raw interface{}, fallback T) (result ValidationResult[T]) {
	defer func() {
		if r := recover(); r != nil {
			result = invalidResult(fallback, []string{fmt.Sprintf("validator panic: %v", r)})
		}
	}()

	payload, err := toJSONPayload(raw)
	if err != nil {
		return invalidResult(fallback, []string{err.Error()})
	}

	var data T
	if err := json.Unmarshal(payload, &data); err != nil {
		return invalidResult(fallback, []string{fmt.Sprintf("parse: %v", err)})
	}

	if err := validate.Struct(data); err != nil {
		return invalidResult(fallback, validationIssues(err))
	}

	return ValidationResult[T]{Data: data, IsValid: true}
}

func invalidResult[T any](fallback T, issues []string) ValidationResult[T] {
	logger.WithFields(logrus.Fields{
		"schema": fmt.Sprintf("%T", fallback),
		"issues": issues,
	}).Warn("AI response failed schema validation, using fallback")

	return ValidationResult[T]{Data: fallback, IsValid: false, Issues: issues}
}

func toJSONPayload(raw interface{}) ([]byte, error) {
	switch v := raw.(type) {
	case nil:
		return nil, errors.New("empty payload")
	case string:
		return []byte(ExtractJSON(v)), nil
	case []byte:
		return []byte(ExtractJSON(string(v))), nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		return data, nil
	}
}

func validationIssues(err error) []string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []string{err.Error()}
	}

	issues := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		if fe.Param() != "" {
			issues = append(issues, fmt.Sprintf("%s: failed '%s=%s'", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		issues = append(issues, fmt.Sprintf("%s: failed '%s'", fe.Namespace(), fe.Tag()))
	}
	return issues
}
