package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Exporter handles exporting metrics to various formats
type Exporter struct {
	collector *Collector
}

// NewExporter creates a new metrics exporter
func NewExporter(collector *Collector) *Exporter {
	return &Exporter{collector: collector}
}

// ExportJSON writes aggregate stats and every retained event to path.
func (e *Exporter) ExportJSON(path string) error {
	report := struct {
		GeneratedAt time.Time       `json:"generated_at"`
		Stats       AggregateStats  `json:"stats"`
		Events      []AnalysisEvent `json:"events"`
	}{
		GeneratedAt: time.Now(),
		Stats:       e.collector.GetStats(),
		Events:      e.collector.GetRecentEvents(e.collector.maxEvents),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// WriteReport writes a human-readable report to the given writer
func (e *Exporter) WriteReport(w io.Writer) error {
	stats := e.collector.GetStats()

	fmt.Fprintf(w, "Assay Analysis Metrics Report\n")
	fmt.Fprintf(w, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(w, "=== Summary ===\n")
	fmt.Fprintf(w, "Files Analyzed:   %d\n", stats.TotalFiles)
	fmt.Fprintf(w, "Files Skipped:    %d\n", stats.SkippedFiles)
	fmt.Fprintf(w, "Errors:           %d (%.1f%%)\n",
		stats.TotalErrors,
		safePercent(float64(stats.TotalErrors), float64(stats.TotalFiles)))
	fmt.Fprintf(w, "Issues:           %d\n", stats.TotalIssues)
	fmt.Fprintf(w, "Rule Failures:    %d\n", stats.TotalFailures)
	fmt.Fprintf(w, "Issues/File:      %.2f\n", stats.IssuesPerFile)
	fmt.Fprintf(w, "Lines:            %d\n", stats.TotalLines)
	fmt.Fprintf(w, "Nodes:            %d\n\n", stats.TotalNodes)

	fmt.Fprintf(w, "=== Latency ===\n")
	fmt.Fprintf(w, "Average:   %.1fms\n", stats.AvgAnalysisDurationMs)
	fmt.Fprintf(w, "P50:       %.1fms\n", stats.P50AnalysisDurationMs)
	fmt.Fprintf(w, "P95:       %.1fms\n", stats.P95AnalysisDurationMs)
	fmt.Fprintf(w, "P99:       %.1fms\n", stats.P99AnalysisDurationMs)
	fmt.Fprintf(w, "Max:       %.1fms\n", stats.MaxAnalysisDurationMs)
	fmt.Fprintf(w, "Avg Queue: %.1fms\n\n", stats.AvgQueueDurationMs)

	fmt.Fprintf(w, "=== Cache ===\n")
	fmt.Fprintf(w, "Hits:     %d\n", stats.CacheHits)
	fmt.Fprintf(w, "Misses:   %d\n", stats.CacheMisses)
	fmt.Fprintf(w, "Hit Rate: %.1f%%\n\n", stats.CacheHitRate*100)

	if len(stats.IssuesByRule) > 0 {
		fmt.Fprintf(w, "=== By Rule ===\n")
		rules := make([]string, 0, len(stats.IssuesByRule))
		for rule := range stats.IssuesByRule {
			rules = append(rules, rule)
		}
		sort.Strings(rules)
		for _, rule := range rules {
			fmt.Fprintf(w, "%-16s %d\n", rule, stats.IssuesByRule[rule])
		}
		fmt.Fprintln(w)
	}

	if len(stats.SlowestFiles) > 0 {
		fmt.Fprintf(w, "=== Slowest Files ===\n")
		for _, f := range stats.SlowestFiles {
			fmt.Fprintf(w, "%s\n", f)
		}
	}

	return nil
}

var csvHeader = []string{
	"id", "timestamp", "file_path", "file_size", "line_count", "nodes", "skipped",
	"queue_duration_ms", "analysis_duration_ms", "total_duration_ms",
	"issue_count", "failure_count", "cache_result", "error",
}

// WriteCSV writes events in CSV format for external analysis
func (e *Exporter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, ev := range e.collector.GetRecentEvents(e.collector.maxEvents) {
		row := []string{
			ev.ID,
			ev.Timestamp.Format(time.RFC3339),
			ev.FilePath,
			strconv.Itoa(ev.FileSize),
			strconv.Itoa(ev.LineCount),
			strconv.Itoa(ev.Nodes),
			ev.Skipped,
			strconv.FormatInt(ev.QueueDuration.Milliseconds(), 10),
			strconv.FormatInt(ev.AnalysisDuration.Milliseconds(), 10),
			strconv.FormatInt(ev.TotalDuration.Milliseconds(), 10),
			strconv.Itoa(ev.IssueCount),
			strconv.Itoa(ev.FailureCount),
			string(ev.CacheResult),
			ev.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func safePercent(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return (numerator / denominator) * 100
}
