package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger プロセス共通のロガー
var Logger *logrus.Logger

type fieldsKey struct{}

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Configure(os.Getenv("LOG_LEVEL"), "json")
}

// Configure ログレベルとフォーマットを設定する
// 未知のレベルはinfo、未知のフォーマットはjsonとして扱う
func Configure(level, format string) {
	switch strings.ToLower(level) {
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	default:
		Logger.SetLevel(logrus.InfoLevel)
	}

	if strings.ToLower(format) == "text" {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
		return
	}

	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// SetOutput 出力先を差し替える（CLIやテストで使用）
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// WithFields 複数フィールド付きのエントリを作成
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithField 単一フィールド付きのエントリを作成
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithError エラー付きのエントリを作成
func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}

// ContextWithFields コンテキストにログ用フィールドを追加する
func ContextWithFields(ctx context.Context, fields logrus.Fields) context.Context {
	merged := logrus.Fields{}
	if existing, ok := ctx.Value(fieldsKey{}).(logrus.Fields); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// WithContext コンテキストに紐づくフィールド（run_id等）付きのエントリを作成
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(Logger)
	if fields, ok := ctx.Value(fieldsKey{}).(logrus.Fields); ok {
		entry = entry.WithFields(fields)
	}
	return entry
}
