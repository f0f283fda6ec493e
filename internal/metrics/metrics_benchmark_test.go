package metrics

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

var benchContent = []byte("class A {\n  void m() {}\n}\n")

func BenchmarkCollector_Record(b *testing.B) {
	c := NewCollector()
	event := AnalysisEvent{
		FilePath:         "src/test/java/ATest.java",
		AnalysisDuration: time.Millisecond,
		IssueCount:       2,
		CacheResult:      CacheMiss,
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Record(event)
	}
}

func BenchmarkCollector_RecordParallel(b *testing.B) {
	c := NewCollector()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Record(AnalysisEvent{IssueCount: 1, CacheResult: CacheHit})
		}
	})
}

func BenchmarkCollector_GetStats(b *testing.B) {
	c := NewCollector()
	for i := 0; i < 1000; i++ {
		c.Record(AnalysisEvent{
			AnalysisDuration: time.Duration(i) * time.Microsecond,
			IssuesByRule:     map[string]int{"S5779": 1},
		})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetStats()
	}
}

func BenchmarkRecorder_FileLifecycle(b *testing.B) {
	r := NewRecorder(NewCollector())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.QueueFile("ATest.java", benchContent).MarkStarted().Complete(10, map[string]int{"S5779": 1}, 0)
	}
}

func BenchmarkExporter_WriteReport(b *testing.B) {
	c := NewCollector()
	for i := 0; i < 1000; i++ {
		c.Record(AnalysisEvent{FilePath: "F.java", AnalysisDuration: time.Millisecond})
	}
	e := NewExporter(c)
	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		e.WriteReport(&buf)
	}
}

// TestConcurrentMetricsStability checks counters stay consistent under
// concurrent load.
func TestConcurrentMetricsStability(t *testing.T) {
	c := NewCollector()
	r := NewRecorder(c)

	workers := 10
	opsPerWorker := 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				r.QueueFile("ATest.java", benchContent).MarkStarted().Complete(10, map[string]int{"S5779": 1}, 0)
			}
		}()
	}
	wg.Wait()

	expected := int64(workers * opsPerWorker)
	stats := c.GetStats()
	if stats.TotalFiles != expected {
		t.Errorf("expected %d files, got %d", expected, stats.TotalFiles)
	}
	if stats.IssuesByRule["S5779"] != expected {
		t.Errorf("expected %d S5779 issues, got %d", expected, stats.IssuesByRule["S5779"])
	}
}
