package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"winescan-app/internal/modules/scan/domain"
)

// runEventBuffer 1回のスキャンで発生するイベント数より大きくしておく
const runEventBuffer = 16

// ScanRunner パイプラインの実行インターフェース
type ScanRunner interface {
	Run(ctx context.Context, img domain.ScanImage, opts ScanOptions) (*ScanOutcome, error)
}

// ScanRun 実行中のスキャン
type ScanRun struct {
	ID         string
	generation uint64

	events chan domain.ProgressEvent
	done   chan struct{}

	outcome *ScanOutcome
	err     error
}

// Events 進捗イベント。スキャン終了時に閉じられる
func (r *ScanRun) Events() <-chan domain.ProgressEvent {
	return r.events
}

// Done スキャン終了時に閉じられる
func (r *ScanRun) Done() <-chan struct{} {
	return r.done
}

// Wait 結果を待つ
func (r *ScanRun) Wait(ctx context.Context) (*ScanOutcome, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return r.outcome, r.err
	}
}

// ScanSession 1つの画面（利用者）に属するスキャンを世代番号で管理する
// 新しいスキャンを開始すると古いスキャンはキャンセルされ、その進捗と結果は捨てられる
type ScanSession struct {
	runner     ScanRunner
	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelCauseFunc
}

// NewScanSession 新しいScanSessionを作成
func NewScanSession(runner ScanRunner) *ScanSession {
	return &ScanSession{runner: runner}
}

// Start スキャンを開始する。実行中のスキャンは置き換えられる
func (s *ScanSession) Start(ctx context.Context, img domain.ScanImage, opts ScanOptions) *ScanRun {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	runCtx, cancel := context.WithCancelCause(ctx)

	// 世代の採番とcancelの差し替えは同じロック内で行う
	s.mu.Lock()
	gen := s.generation.Add(1)
	if s.cancel != nil {
		s.cancel(domain.ErrSuperseded)
	}
	s.cancel = cancel
	s.mu.Unlock()

	run := &ScanRun{
		ID:         opts.RunID,
		generation: gen,
		events:     make(chan domain.ProgressEvent, runEventBuffer),
		done:       make(chan struct{}),
	}

	forward := opts.Progress
	opts.Progress = func(ev domain.ProgressEvent) {
		if !s.IsCurrent(gen) {
			return
		}
		select {
		case run.events <- ev:
		default:
		}
		if forward != nil {
			forward(ev)
		}
	}

	go func() {
		outcome, err := s.runner.Run(runCtx, img, opts)
		if err == nil && !s.IsCurrent(gen) {
			outcome = nil
			err = domain.NewScanError(domain.CodeSuperseded, domain.StagePipeline, "superseded by a newer scan", nil)
		}
		run.outcome, run.err = outcome, err

		cancel(nil)
		s.mu.Lock()
		if s.IsCurrent(gen) {
			s.cancel = nil
		}
		s.mu.Unlock()

		close(run.events)
		close(run.done)
	}()

	return run
}

// Cancel 実行中のスキャンを中止する
func (s *ScanSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(domain.ErrCanceled)
	}
}

// IsCurrent 指定の世代が最新か
func (s *ScanSession) IsCurrent(gen uint64) bool {
	return s.generation.Load() == gen
}

// Idle 実行中のスキャンがないか
func (s *ScanSession) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel == nil
}

// SessionRegistry セッションIDごとのScanSession
type SessionRegistry struct {
	runner ScanRunner

	mu       sync.Mutex
	sessions map[string]*ScanSession
}

// NewSessionRegistry 新しいSessionRegistryを作成
func NewSessionRegistry(runner ScanRunner) *SessionRegistry {
	return &SessionRegistry{
		runner:   runner,
		sessions: make(map[string]*ScanSession),
	}
}

// Start セッション内でスキャンを開始する。セッションIDが空なら単独のスキャン
func (r *SessionRegistry) Start(ctx context.Context, sessionID string, img domain.ScanImage, opts ScanOptions) *ScanRun {
	if sessionID == "" {
		return NewScanSession(r.runner).Start(ctx, img, opts)
	}

	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if !ok {
		session = NewScanSession(r.runner)
		r.sessions[sessionID] = session
	}
	run := session.Start(ctx, img, opts)
	r.mu.Unlock()

	go func() {
		<-run.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		if current, ok := r.sessions[sessionID]; ok && current == session && session.Idle() {
			delete(r.sessions, sessionID)
		}
	}()

	return run
}

// Cancel セッションのスキャンを中止する
func (r *SessionRegistry) Cancel(sessionID string) bool {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if ok {
		session.Cancel()
	}
	return ok
}

// Len 管理中のセッション数
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
