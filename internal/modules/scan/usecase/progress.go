package usecase

import (
	"sync"

	"winescan-app/internal/modules/scan/domain"
)

// 進捗ラベル
const (
	labelPrep     = "Förbereder bilden"
	labelOCR      = "Läser etiketten"
	labelCacheHit = "Hittade tidigare analys"
	labelMetadata = "Identifierar vinet"
	labelFacts    = "Söker fakta om vinet"
	labelTaste    = "Tar fram smakprofil"
	labelMeters   = "Beräknar smakmätare"
	labelDone     = "Klart"
	labelError    = "Något gick fel"
)

// progressReporter 段階遷移を単調増加の進捗として通知する
// 終端イベントの後は何も通知しない
type progressReporter struct {
	mu       sync.Mutex
	runID    string
	sink     domain.ProgressFunc
	percent  int
	step     domain.Step
	finished bool
}

func newProgressReporter(runID string, sink domain.ProgressFunc) *progressReporter {
	return &progressReporter{runID: runID, sink: sink}
}

func (r *progressReporter) emit(step domain.Step, percent int, label, note string) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	if percent < r.percent {
		percent = r.percent
	}
	r.percent = percent
	r.step = step
	r.finished = step.IsTerminal()
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		sink(domain.ProgressEvent{
			RunID:   r.runID,
			Step:    step,
			Percent: percent,
			Label:   label,
			Note:    note,
		})
	}
}

func (r *progressReporter) currentStep() domain.Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}
