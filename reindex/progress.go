package reindex

import (
	"log/slog"
	"time"
)

// ProgressTracker reports periodic progress while reindexing a corpus.
// It logs a line every reportInterval processed chunks and a summary
// when Finish is called.
type ProgressTracker struct {
	logger         *slog.Logger
	total          int
	processed      int
	failed         int
	reportInterval int
	lastReport     int
	startTime      time.Time
}

// NewProgressTracker creates a tracker for the given total. A
// reportInterval of zero or less disables periodic reporting.
func NewProgressTracker(logger *slog.Logger, total, reportInterval int) *ProgressTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressTracker{
		logger:         logger,
		total:          total,
		reportInterval: reportInterval,
		startTime:      time.Now(),
	}
}

// Add records n successfully processed chunks and emits a progress line
// when the report interval is crossed.
func (t *ProgressTracker) Add(n int) {
	t.processed += n
	if t.reportInterval <= 0 {
		return
	}
	if t.processed-t.lastReport >= t.reportInterval {
		t.lastReport = t.processed
		t.report()
	}
}

// AddFailed records n chunks that could not be re-embedded.
func (t *ProgressTracker) AddFailed(n int) {
	t.failed += n
}

// Processed returns the number of successfully processed chunks.
func (t *ProgressTracker) Processed() int {
	return t.processed
}

// Failed returns the number of chunks that failed.
func (t *ProgressTracker) Failed() int {
	return t.failed
}

func (t *ProgressTracker) report() {
	elapsed := time.Since(t.startTime)
	rate := float64(t.processed) / elapsed.Seconds()
	t.logger.Info("reindex progress",
		"processed", t.processed,
		"total", t.total,
		"failed", t.failed,
		"rate_per_sec", rate,
		"elapsed", elapsed.Round(time.Second).String())
}

// Finish logs a summary of the completed run.
func (t *ProgressTracker) Finish() {
	elapsed := time.Since(t.startTime)
	t.logger.Info("reindex complete",
		"processed", t.processed,
		"total", t.total,
		"failed", t.failed,
		"elapsed", elapsed.Round(time.Millisecond).String())
}
