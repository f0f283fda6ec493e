package metrics

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Recorder provides a convenient API for recording analysis metrics. A nil
// *Recorder discards everything.
type Recorder struct {
	collector *Collector
}

// NewRecorder creates a new metrics recorder
func NewRecorder(collector *Collector) *Recorder {
	return &Recorder{collector: collector}
}

// Collector returns the collector events are recorded into.
func (r *Recorder) Collector() *Collector {
	if r == nil {
		return nil
	}
	return r.collector
}

// FileBuilder builds the AnalysisEvent of one file incrementally.
type FileBuilder struct {
	recorder *Recorder
	event    AnalysisEvent
	timing   *AnalysisTiming
	mu       sync.Mutex
}

// QueueFile starts recording a file when it is handed to the worker pool.
func (r *Recorder) QueueFile(path string, content []byte) *FileBuilder {
	b := &FileBuilder{
		recorder: r,
		timing:   NewTiming(),
		event: AnalysisEvent{
			ID:          generateID(),
			Timestamp:   time.Now(),
			FilePath:    path,
			FileSize:    len(content),
			LineCount:   bytes.Count(content, []byte("\n")) + 1,
			CacheResult: CacheDisabled,
		},
	}
	if len(content) == 0 {
		b.event.LineCount = 0
	}
	return b
}

// MarkStarted marks the file as picked up by a worker.
func (b *FileBuilder) MarkStarted() *FileBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timing.Start()
	return b
}

// WithCacheResult records a cache lookup result
func (b *FileBuilder) WithCacheResult(result CacheResult) *FileBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.event.CacheResult = result
	return b
}

// Complete finishes recording and submits the event.
func (b *FileBuilder) Complete(nodes int, issuesByRule map[string]int, failures int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timing.Complete()
	total := 0
	for _, n := range issuesByRule {
		total += n
	}
	b.event.Nodes = nodes
	b.event.IssueCount = total
	b.event.IssuesByRule = issuesByRule
	b.event.FailureCount = failures
	b.submit()
}

// CompleteWithError finishes recording with an error
func (b *FileBuilder) CompleteWithError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timing.Complete()
	b.event.Error = err.Error()
	b.submit()
}

// Skip records a file that was not analyzed.
func (b *FileBuilder) Skip(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.Skipped = reason
	b.submit()
}

// must hold b.mu
func (b *FileBuilder) submit() {
	b.event.QueueDuration = b.timing.QueueDuration()
	b.event.AnalysisDuration = b.timing.AnalysisDuration()
	b.event.TotalDuration = b.timing.TotalDuration()
	if b.recorder != nil && b.recorder.collector != nil {
		b.recorder.collector.Record(b.event)
	}
}

// generateID generates a unique ID for an analysis event
func generateID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// NoOpRecorder returns a recorder that discards all metrics
func NoOpRecorder() *Recorder {
	return &Recorder{
		collector: NewCollector(WithMaxEvents(0)),
	}
}
