// Package ui winescan CLIの表示部品
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"winescan-app/internal/modules/scan/domain"
)

// ProgressBar パイプラインの進捗（0〜100%）を表示するバー
type ProgressBar struct {
	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	finished bool
}

// NewProgressBar 新しいProgressBarを作成
func NewProgressBar(w io.Writer, description string) *ProgressBar {
	bar := progressbar.NewOptions(
		100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

// Update 進捗イベントをバーに反映する
// 終端イベントでバーを閉じる
func (p *ProgressBar) Update(ev domain.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.bar.Describe(ev.Label)
	_ = p.bar.Set(ev.Percent)
	if ev.Step.IsTerminal() {
		p.finish()
	}
}

// Finish バーを完了させる
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finish()
}

func (p *ProgressBar) finish() {
	if p.finished {
		return
	}
	p.finished = true
	_ = p.bar.Finish()
}
