package domain

// Step 進捗ステップ
type Step string

const (
	StepPrep     Step = "prep"
	StepOCR      Step = "ocr"
	StepAnalysis Step = "analysis"
	StepDone     Step = "done"
	StepError    Step = "error"
)

// IsTerminal 終端ステップか
func (s Step) IsTerminal() bool {
	return s == StepDone || s == StepError
}

// ProgressEvent 段階遷移ごとに通知される進捗イベント
type ProgressEvent struct {
	RunID   string `json:"run_id,omitempty"`
	Step    Step   `json:"step"`
	Percent int    `json:"percent"`
	Label   string `json:"label"`
	Note    string `json:"note,omitempty"`
}

// ProgressFunc 進捗の受け取り関数
type ProgressFunc func(ProgressEvent)
