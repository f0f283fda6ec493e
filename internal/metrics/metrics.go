// Package metrics collects per-file analysis events during a run and
// aggregates them into latency, cache and per-rule statistics.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CacheResult indicates whether a cache lookup was a hit or miss
type CacheResult string

const (
	CacheHit      CacheResult = "hit"
	CacheMiss     CacheResult = "miss"
	CacheDisabled CacheResult = "disabled"
)

// AnalysisEvent captures metrics for one file.
type AnalysisEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	FilePath  string `json:"file_path"`
	FileSize  int    `json:"file_size"` // bytes
	LineCount int    `json:"line_count"`
	Nodes     int    `json:"nodes"`

	// Skipped is the reason the file was not analyzed, if any.
	Skipped string `json:"skipped,omitempty"`

	QueueDuration    time.Duration `json:"queue_duration"`    // waiting for a worker
	AnalysisDuration time.Duration `json:"analysis_duration"` // parse, resolve and scan
	TotalDuration    time.Duration `json:"total_duration"`

	IssueCount   int            `json:"issue_count"`
	IssuesByRule map[string]int `json:"issues_by_rule,omitempty"`
	FailureCount int            `json:"failure_count"`

	CacheResult CacheResult `json:"cache_result"`

	Error string `json:"error,omitempty"`
}

// AnalysisTiming is a helper for tracking analysis timing
type AnalysisTiming struct {
	queuedAt    time.Time
	startedAt   time.Time
	completedAt time.Time
}

// NewTiming creates a new timing tracker, marking queue time as now
func NewTiming() *AnalysisTiming {
	return &AnalysisTiming{
		queuedAt: time.Now(),
	}
}

// Start marks the analysis as started (dequeued)
func (t *AnalysisTiming) Start() {
	t.startedAt = time.Now()
}

// Complete marks the analysis as completed
func (t *AnalysisTiming) Complete() {
	t.completedAt = time.Now()
}

// QueueDuration returns time spent in queue
func (t *AnalysisTiming) QueueDuration() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	return t.startedAt.Sub(t.queuedAt)
}

// AnalysisDuration returns time spent in analysis
func (t *AnalysisTiming) AnalysisDuration() time.Duration {
	if t.completedAt.IsZero() || t.startedAt.IsZero() {
		return 0
	}
	return t.completedAt.Sub(t.startedAt)
}

// TotalDuration returns total end-to-end time
func (t *AnalysisTiming) TotalDuration() time.Duration {
	if t.completedAt.IsZero() {
		return 0
	}
	return t.completedAt.Sub(t.queuedAt)
}

// AggregateStats holds computed aggregate statistics
type AggregateStats struct {
	TotalFiles    int64 `json:"total_files"`
	SkippedFiles  int64 `json:"skipped_files"`
	TotalErrors   int64 `json:"total_errors"`
	TotalIssues   int64 `json:"total_issues"`
	TotalFailures int64 `json:"total_failures"`
	TotalLines    int64 `json:"total_lines"`
	TotalNodes    int64 `json:"total_nodes"`

	// Latency stats (in milliseconds for JSON readability)
	AvgAnalysisDurationMs float64 `json:"avg_analysis_duration_ms"`
	P50AnalysisDurationMs float64 `json:"p50_analysis_duration_ms"`
	P95AnalysisDurationMs float64 `json:"p95_analysis_duration_ms"`
	P99AnalysisDurationMs float64 `json:"p99_analysis_duration_ms"`
	MaxAnalysisDurationMs float64 `json:"max_analysis_duration_ms"`
	AvgQueueDurationMs    float64 `json:"avg_queue_duration_ms"`

	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	FilesPerSecond float64 `json:"files_per_second"`
	IssuesPerFile  float64 `json:"issues_per_file"`

	IssuesByRule map[string]int64 `json:"issues_by_rule"`
	// SlowestFiles lists up to five analyzed files, slowest first.
	SlowestFiles []string `json:"slowest_files,omitempty"`
}

// atomicCounters holds atomic counters for real-time stats
type atomicCounters struct {
	totalFiles    atomic.Int64
	skippedFiles  atomic.Int64
	totalErrors   atomic.Int64
	totalIssues   atomic.Int64
	totalFailures atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
}

// Collector collects analysis events. It is safe for concurrent use.
type Collector struct {
	mu       sync.RWMutex
	events   []AnalysisEvent
	counters atomicCounters

	maxEvents int
	startTime time.Time
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithMaxEvents sets the maximum number of events to retain
func WithMaxEvents(n int) CollectorOption {
	return func(c *Collector) {
		c.maxEvents = n
	}
}

// NewCollector creates a new metrics collector
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		events:    make([]AnalysisEvent, 0, 256),
		maxEvents: 100000,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record adds an analysis event to the collector
func (c *Collector) Record(event AnalysisEvent) {
	if event.Skipped != "" {
		c.counters.skippedFiles.Add(1)
	} else {
		c.counters.totalFiles.Add(1)
	}
	c.counters.totalIssues.Add(int64(event.IssueCount))
	c.counters.totalFailures.Add(int64(event.FailureCount))
	if event.Error != "" {
		c.counters.totalErrors.Add(1)
	}
	switch event.CacheResult {
	case CacheHit:
		c.counters.cacheHits.Add(1)
	case CacheMiss:
		c.counters.cacheMisses.Add(1)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxEvents <= 0 {
		return
	}
	c.events = append(c.events, event)
	if len(c.events) > c.maxEvents {
		// Drop the oldest 10%
		pruneCount := c.maxEvents / 10
		if pruneCount == 0 {
			pruneCount = 1
		}
		c.events = c.events[pruneCount:]
	}
}

// GetStats computes aggregate statistics from collected events
func (c *Collector) GetStats() AggregateStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := AggregateStats{
		TotalFiles:    c.counters.totalFiles.Load(),
		SkippedFiles:  c.counters.skippedFiles.Load(),
		TotalErrors:   c.counters.totalErrors.Load(),
		TotalIssues:   c.counters.totalIssues.Load(),
		TotalFailures: c.counters.totalFailures.Load(),
		CacheHits:     c.counters.cacheHits.Load(),
		CacheMisses:   c.counters.cacheMisses.Load(),
		IssuesByRule:  make(map[string]int64),
	}

	if lookups := stats.CacheHits + stats.CacheMisses; lookups > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(lookups)
	}
	if stats.TotalFiles > 0 {
		stats.IssuesPerFile = float64(stats.TotalIssues) / float64(stats.TotalFiles)
	}
	if elapsed := time.Since(c.startTime).Seconds(); elapsed > 0 {
		stats.FilesPerSecond = float64(stats.TotalFiles) / elapsed
	}

	var analyzed []AnalysisEvent
	for _, e := range c.events {
		for rule, n := range e.IssuesByRule {
			stats.IssuesByRule[rule] += int64(n)
		}
		if e.Skipped == "" {
			analyzed = append(analyzed, e)
			stats.TotalLines += int64(e.LineCount)
			stats.TotalNodes += int64(e.Nodes)
		}
	}
	if len(analyzed) == 0 {
		return stats
	}

	durations := make([]float64, 0, len(analyzed))
	var sumAnalysis, sumQueue float64
	for _, e := range analyzed {
		ms := float64(e.AnalysisDuration.Microseconds()) / 1000
		durations = append(durations, ms)
		sumAnalysis += ms
		sumQueue += float64(e.QueueDuration.Microseconds()) / 1000
	}
	n := float64(len(analyzed))
	stats.AvgAnalysisDurationMs = sumAnalysis / n
	stats.AvgQueueDurationMs = sumQueue / n

	sort.Float64s(durations)
	stats.P50AnalysisDurationMs = percentile(durations, 0.50)
	stats.P95AnalysisDurationMs = percentile(durations, 0.95)
	stats.P99AnalysisDurationMs = percentile(durations, 0.99)
	stats.MaxAnalysisDurationMs = durations[len(durations)-1]

	sort.SliceStable(analyzed, func(i, j int) bool {
		return analyzed[i].AnalysisDuration > analyzed[j].AnalysisDuration
	})
	for i := 0; i < len(analyzed) && i < 5; i++ {
		stats.SlowestFiles = append(stats.SlowestFiles, analyzed[i].FilePath)
	}
	return stats
}

// GetRecentEvents returns the most recent n events
func (c *Collector) GetRecentEvents(n int) []AnalysisEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n > len(c.events) {
		n = len(c.events)
	}
	if n <= 0 {
		return nil
	}

	result := make([]AnalysisEvent, n)
	copy(result, c.events[len(c.events)-n:])
	return result
}

// Reset clears all collected metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = c.events[:0]
	c.counters = atomicCounters{}
	c.startTime = time.Now()
}

// percentile returns the value at the given percentile (0.0-1.0)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
