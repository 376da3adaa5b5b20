package writer

import (
	"finedb/internal/common"
)

// ErrorSink receives failures the writer cannot hand back to producers.
type ErrorSink interface {
	// ReportError is called once per rejected mutation. The writer keeps going.
	ReportError(err *common.EngineError)
	// ReportFatal is called at most once, right before the writer stops.
	ReportFatal(err error)
}

// LogSink reports errors through the common logger.
type LogSink struct{}

func (LogSink) ReportError(err *common.EngineError) {
	common.Errorf("writer: %v", err)
}

func (LogSink) ReportFatal(err error) {
	common.Errorf("writer: FATAL, abandoning queued writes: %v", err)
}
