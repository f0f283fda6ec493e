package analyzer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/chris-regnier/assay/internal/astcheck"
	"github.com/chris-regnier/assay/internal/cache"
	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/input"
	"github.com/chris-regnier/assay/internal/metrics"
	"github.com/chris-regnier/assay/internal/tree"
)

const swallowedFail = `import static org.junit.Assert.fail;
class %s {
  void m() {
    try {
      fail();
    } catch (AssertionError e) {}
  }
}
`

func javaArtifact(path, class string) input.Artifact {
	return input.Artifact{Path: path, Content: []byte(fmt.Sprintf(swallowedFail, class))}
}

func defaultRules(t testing.TB) []dispatch.Rule {
	t.Helper()
	rules, err := astcheck.DefaultRegistry().Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	return rules
}

type panicRule struct{}

func (panicRule) Key() string { return "boom" }
func (panicRule) NodesToVisit() []tree.Kind { return []tree.Kind{tree.KindCatchClause} }
func (panicRule) VisitNode(*dispatch.Context, *tree.Node) { panic(errors.New("boom")) }

func TestAnalyzer_Analyze(t *testing.T) {
	a, err := NewAnalyzer(defaultRules(t), Options{Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}

	res, err := a.Analyze(context.Background(), []input.Artifact{
		javaArtifact("src/test/java/BTest.java", "BTest"),
		javaArtifact("src/test/java/ATest.java", "ATest"),
	})
	if err != nil {
		t.Fatal(err)
	}

	// S5779 and empty-catch per file.
	if len(res.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(res.Issues), res.Issues)
	}
	if res.Issues[0].Primary.File != "src/test/java/ATest.java" {
		t.Errorf("expected issues sorted by file, first is %s", res.Issues[0].Primary.File)
	}
	if res.Stats.Files != 2 || res.Stats.Issues != 4 || res.Stats.Skipped != 0 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
	if len(res.Files) != 2 || res.Files[0].Path != "src/test/java/ATest.java" || res.Files[0].Nodes == 0 {
		t.Errorf("unexpected file stats %+v", res.Files)
	}
}

func TestAnalyzer_Skips(t *testing.T) {
	a, err := NewAnalyzer(defaultRules(t), Options{MaxFileBytes: 400, IncludeTestsOnly: true})
	if err != nil {
		t.Fatal(err)
	}

	big := javaArtifact("src/test/java/BigTest.java", "BigTest")
	big.Content = append(big.Content, []byte(strings.Repeat("// padding\n", 50))...)

	res, err := a.Analyze(context.Background(), []input.Artifact{
		{Path: "README.md", Content: []byte("# hi")},
		big,
		javaArtifact("src/main/java/Widget.java", "Widget"),
		javaArtifact("src/test/java/WidgetTest.java", "WidgetTest"),
	})
	if err != nil {
		t.Fatal(err)
	}

	reasons := map[string]string{}
	for _, f := range res.Files {
		reasons[f.Path] = f.Skipped
	}
	want := map[string]string{
		"README.md":                     SkipUnsupported,
		"src/test/java/BigTest.java":    SkipTooLarge,
		"src/main/java/Widget.java":     SkipNotTest,
		"src/test/java/WidgetTest.java": "",
	}
	if !reflect.DeepEqual(reasons, want) {
		t.Errorf("skip reasons = %v, want %v", reasons, want)
	}
	if res.Stats.Files != 1 || res.Stats.Skipped != 3 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
	for _, is := range res.Issues {
		if is.Primary.File != "src/test/java/WidgetTest.java" {
			t.Errorf("issue from skipped file %s", is.Primary.File)
		}
	}
}

func TestAnalyzer_ResultIndependentOfJobs(t *testing.T) {
	var artifacts []input.Artifact
	for i := 0; i < 24; i++ {
		class := fmt.Sprintf("Case%02dTest", i)
		artifacts = append(artifacts, javaArtifact("src/test/java/"+class+".java", class))
	}

	run := func(jobs int) *Result {
		a, err := NewAnalyzer(defaultRules(t), Options{Jobs: jobs})
		if err != nil {
			t.Fatal(err)
		}
		res, err := a.Analyze(context.Background(), artifacts)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	serial, parallel := run(1), run(8)
	if len(serial.Issues) != 48 {
		t.Fatalf("expected 48 issues, got %d", len(serial.Issues))
	}
	if !reflect.DeepEqual(serial.Issues, parallel.Issues) {
		t.Error("issues differ between 1 and 8 jobs")
	}
}

func TestAnalyzer_RuleFailureIsolated(t *testing.T) {
	rules := append([]dispatch.Rule{panicRule{}}, defaultRules(t)...)
	a, err := NewAnalyzer(rules, Options{})
	if err != nil {
		t.Fatal(err)
	}

	res, err := a.Analyze(context.Background(), []input.Artifact{javaArtifact("ATest.java", "ATest")})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Failures) != 1 || res.Failures[0].RuleKey != "boom" {
		t.Fatalf("expected one failure from boom, got %v", res.Failures)
	}
	if res.Stats.Failures != 1 || res.Files[0].Failures != 1 {
		t.Errorf("failure not counted: %+v / %+v", res.Stats, res.Files[0])
	}
	if len(res.Issues) != 2 {
		t.Errorf("other rules should still report, got %d issues", len(res.Issues))
	}
}

func TestAnalyzer_CancelledContext(t *testing.T) {
	a, err := NewAnalyzer(defaultRules(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.Analyze(ctx, []input.Artifact{javaArtifact("ATest.java", "ATest")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewAnalyzer_RejectsBadRule(t *testing.T) {
	_, err := NewAnalyzer([]dispatch.Rule{badKindRule{}}, Options{})
	if err == nil || !strings.Contains(err.Error(), "building dispatcher") {
		t.Fatalf("expected dispatcher error, got %v", err)
	}
}

type badKindRule struct{}

func (badKindRule) Key() string { return "bad" }
func (badKindRule) NodesToVisit() []tree.Kind { return []tree.Kind{tree.Kind(255)} }
func (badKindRule) VisitNode(*dispatch.Context, *tree.Node) {}

func TestAnalyzer_Cache(t *testing.T) {
	mem := cache.NewMemoryCache()
	opts := Options{
		Jobs:     2,
		Cache:    mem,
		CacheKey: cache.CacheKey{ToolVersion: "test", Rules: map[string]string{"S5779": "x"}},
	}
	a, err := NewAnalyzer(defaultRules(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	arts := []input.Artifact{
		javaArtifact("src/test/java/ATest.java", "ATest"),
		javaArtifact("src/test/java/BTest.java", "BTest"),
	}

	first, err := a.Analyze(context.Background(), arts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.Cached != 0 || mem.Size() != 2 {
		t.Fatalf("expected a cold run filling the cache, got stats %+v and size %d", first.Stats, mem.Size())
	}

	second, err := a.Analyze(context.Background(), arts)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.Cached != 2 {
		t.Errorf("expected both files served from cache, got %+v", second.Stats)
	}
	if !reflect.DeepEqual(first.Issues, second.Issues) {
		t.Errorf("cached issues differ:\n%v\n%v", first.Issues, second.Issues)
	}

	// Changed content misses.
	arts[0].Content = append(arts[0].Content, '\n')
	third, err := a.Analyze(context.Background(), arts)
	if err != nil {
		t.Fatal(err)
	}
	if third.Stats.Cached != 1 {
		t.Errorf("expected one cache hit after an edit, got %+v", third.Stats)
	}
}

func TestAnalyzer_Invalidate(t *testing.T) {
	mem := cache.NewMemoryCache()
	a, err := NewAnalyzer(defaultRules(t), Options{Cache: mem})
	if err != nil {
		t.Fatal(err)
	}
	art := javaArtifact("src/test/java/ATest.java", "ATest")
	if _, err := a.Analyze(context.Background(), []input.Artifact{art}); err != nil {
		t.Fatal(err)
	}
	if err := a.Invalidate(context.Background(), art); err != nil {
		t.Fatal(err)
	}
	res, err := a.Analyze(context.Background(), []input.Artifact{art})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Cached != 0 {
		t.Errorf("expected a fresh scan after invalidation, got %+v", res.Stats)
	}

	uncached, _ := NewAnalyzer(defaultRules(t), Options{})
	if err := uncached.Invalidate(context.Background(), art); err != nil {
		t.Errorf("invalidate without a cache should be a no-op, got %v", err)
	}
}

func TestAnalyzer_FailuresNotCached(t *testing.T) {
	mem := cache.NewMemoryCache()
	a, err := NewAnalyzer([]dispatch.Rule{panicRule{}}, Options{Cache: mem})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Analyze(context.Background(), []input.Artifact{javaArtifact("ATest.java", "ATest")}); err != nil {
		t.Fatal(err)
	}
	if mem.Size() != 0 {
		t.Errorf("a scan with rule failures must not be cached, size %d", mem.Size())
	}
}

func TestAnalyzer_RecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	a, err := NewAnalyzer(defaultRules(t), Options{Recorder: metrics.NewRecorder(collector)})
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.Analyze(context.Background(), []input.Artifact{
		javaArtifact("src/test/java/ATest.java", "ATest"),
		{Path: "README.md", Content: []byte("# hi")},
	})
	if err != nil {
		t.Fatal(err)
	}

	stats := collector.GetStats()
	if stats.TotalFiles != 1 || stats.SkippedFiles != 1 {
		t.Errorf("unexpected file counts %+v", stats)
	}
	if stats.IssuesByRule["S5779"] != 1 || stats.IssuesByRule["empty-catch"] != 1 {
		t.Errorf("unexpected per-rule counts %v", stats.IssuesByRule)
	}
	for _, e := range collector.GetRecentEvents(2) {
		if e.Skipped == "" && (e.CacheResult != metrics.CacheDisabled || e.Nodes == 0) {
			t.Errorf("unexpected analyzed event %+v", e)
		}
	}
}
