package metrics

import "time"

// BatchResult labels the outcome of one batch generation entry.
type BatchResult string

const (
	BatchCopied    BatchResult = "copied"
	BatchGenerated BatchResult = "generated"
	BatchSkipped   BatchResult = "skipped"
	BatchFailed    BatchResult = "failed"
)

// Recorder defines observability hooks for derivative serving and generation.
type Recorder interface {
	IncRequest(outcome string)
	ObserveGeneration(style string, d time.Duration, success bool)
	IncBatchEntry(result BatchResult)
	ObserveBatchDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncRequest(string)                             {}
func (NoopRecorder) ObserveGeneration(string, time.Duration, bool) {}
func (NoopRecorder) IncBatchEntry(BatchResult)                     {}
func (NoopRecorder) ObserveBatchDuration(time.Duration)            {}
