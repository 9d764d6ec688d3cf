package research

import (
	"log/slog"
)

// Stage names a lifecycle point of the research pipeline.
type Stage string

const (
	StagePlanning    Stage = "planning"
	StageSearching   Stage = "searching"
	StageScraping    Stage = "scraping"
	StageSummarizing Stage = "summarizing"
	StageEvaluating  Stage = "evaluating"
	StageRanking     Stage = "ranking"
	StageReporting   Stage = "reporting"
	StageDone        Stage = "done"
)

// Event is one progress notification. Percent is monotonically
// non-decreasing over a session.
type Event struct {
	Stage   Stage
	Percent int
	Message string
}

// ProgressFunc receives progress events. It is called synchronously at
// step boundaries; it must not block for long, and a panic inside it is
// swallowed rather than aborting the session.
type ProgressFunc func(Event)

// progress wraps the user sink with the monotonic clamp and the panic
// guard.
type progress struct {
	sink    ProgressFunc
	logger  *slog.Logger
	percent int
}

func newProgress(sink ProgressFunc, logger *slog.Logger) *progress {
	return &progress{sink: sink, logger: logger}
}

func (p *progress) emit(stage Stage, percent int, message string) {
	if percent < p.percent {
		percent = p.percent
	}
	p.percent = percent

	if p.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("progress sink panicked", "stage", stage, "panic", r)
		}
	}()
	p.sink(Event{Stage: stage, Percent: percent, Message: message})
}
