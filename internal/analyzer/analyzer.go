// Package analyzer runs the rule dispatcher over many Java artifacts
// concurrently and merges the per-file results in a deterministic order.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/chris-regnier/assay/internal/cache"
	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/input"
	"github.com/chris-regnier/assay/internal/javafront"
	"github.com/chris-regnier/assay/internal/metrics"
	"github.com/chris-regnier/assay/internal/report"
)

const instrumentationName = "github.com/chris-regnier/assay/internal/analyzer"

var analyzerTracer = otel.Tracer(instrumentationName)

// Skip reasons recorded in FileStats.
const (
	SkipUnsupported = "unsupported language"
	SkipTooLarge    = "exceeds max_file_bytes"
	SkipNotTest     = "not a test source"
)

// Options tune an Analyzer. The zero value analyzes every Java file with one
// worker per CPU.
type Options struct {
	Jobs             int
	MaxFileBytes     int64
	IncludeTestsOnly bool
	Logger           *slog.Logger

	// Cache, when set, is consulted before parsing and filled after scans
	// without rule failures. CacheKey carries the tool version and rule
	// fingerprint; the analyzer fills in the file fields.
	Cache    cache.CacheManager
	CacheKey cache.CacheKey

	// Recorder receives one event per artifact; nil discards them.
	Recorder *metrics.Recorder
}

// FileStats describes what happened to one artifact.
type FileStats struct {
	Path     string        `json:"path"`
	Skipped  string        `json:"skipped,omitempty"`
	Nodes    int           `json:"nodes"`
	Issues   int           `json:"issues"`
	Failures int           `json:"failures"`
	Cached   bool          `json:"cached,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Stats aggregates FileStats over a run.
type Stats struct {
	Files    int           `json:"files"`
	Skipped  int           `json:"skipped"`
	Issues   int           `json:"issues"`
	Failures int           `json:"failures"`
	Cached   int           `json:"cached"`
	Duration time.Duration `json:"duration"`
}

// Result is the merged outcome of Analyze. Issues are sorted with
// report.Sort, failures by file and position, files by path.
type Result struct {
	Issues   []report.Issue
	Failures []dispatch.Failure
	Files    []FileStats
	Stats    Stats
}

// Analyzer shares one read-only dispatcher between its workers; each worker
// owns its parser, tree, model and issue bag.
type Analyzer struct {
	dispatcher *dispatch.Dispatcher
	opts       Options
	logger     *slog.Logger

	filesAnalyzed  metric.Int64Counter
	issuesReported metric.Int64Counter
	ruleFailures   metric.Int64Counter
	cacheHits      metric.Int64Counter
}

// NewAnalyzer builds the dispatch index for rules.
func NewAnalyzer(rules []dispatch.Rule, opts Options) (*Analyzer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d, err := dispatch.New(logger, rules...)
	if err != nil {
		return nil, fmt.Errorf("building dispatcher: %w", err)
	}

	meter := otel.Meter(instrumentationName)
	a := &Analyzer{dispatcher: d, opts: opts, logger: logger}
	if a.filesAnalyzed, err = meter.Int64Counter("assay.files.analyzed",
		metric.WithDescription("Java files parsed and scanned")); err != nil {
		return nil, err
	}
	if a.issuesReported, err = meter.Int64Counter("assay.issues.reported",
		metric.WithDescription("Issues reported by rules")); err != nil {
		return nil, err
	}
	if a.ruleFailures, err = meter.Int64Counter("assay.rule.failures",
		metric.WithDescription("Rule visits that panicked")); err != nil {
		return nil, err
	}
	if a.cacheHits, err = meter.Int64Counter("assay.cache.hits",
		metric.WithDescription("Files served from the issue cache")); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) jobs() int {
	if a.opts.Jobs > 0 {
		return a.opts.Jobs
	}
	return runtime.NumCPU()
}

func (a *Analyzer) skipReason(art input.Artifact) string {
	switch {
	case !javafront.Detect(art.Path):
		return SkipUnsupported
	case a.opts.MaxFileBytes > 0 && int64(len(art.Content)) > a.opts.MaxFileBytes:
		return SkipTooLarge
	case a.opts.IncludeTestsOnly && !input.IsTestPath(art.Path):
		return SkipNotTest
	}
	return ""
}

type fileResult struct {
	stats    FileStats
	issues   []report.Issue
	failures []dispatch.Failure
}

// Analyze parses, resolves and scans every eligible artifact. The result does
// not depend on the number of jobs.
func (a *Analyzer) Analyze(ctx context.Context, artifacts []input.Artifact) (*Result, error) {
	ctx, span := analyzerTracer.Start(ctx, "analyze")
	defer span.End()
	start := time.Now()

	slots := make([]fileResult, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.jobs())

	for i, art := range artifacts {
		rec := a.opts.Recorder.QueueFile(art.Path, art.Content)
		if reason := a.skipReason(art); reason != "" {
			a.logger.Debug("skipping file", "path", art.Path, "reason", reason)
			slots[i].stats = FileStats{Path: art.Path, Skipped: reason}
			rec.Skip(reason)
			continue
		}
		g.Go(func() error {
			rec.MarkStarted()
			fr, err := a.analyzeFile(gctx, art)
			if err != nil {
				rec.CompleteWithError(err)
				return err
			}
			slots[i] = fr
			a.record(rec, fr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := &Result{Issues: []report.Issue{}}
	for _, fr := range slots {
		res.Files = append(res.Files, fr.stats)
		res.Issues = append(res.Issues, fr.issues...)
		res.Failures = append(res.Failures, fr.failures...)
		if fr.stats.Skipped != "" {
			res.Stats.Skipped++
			continue
		}
		res.Stats.Files++
		if fr.stats.Cached {
			res.Stats.Cached++
		}
	}
	report.Sort(res.Issues)
	sortFailures(res.Failures)
	sort.SliceStable(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })
	res.Stats.Issues = len(res.Issues)
	res.Stats.Failures = len(res.Failures)
	res.Stats.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("assay.files", res.Stats.Files),
		attribute.Int("assay.files.skipped", res.Stats.Skipped),
		attribute.Int("assay.issues", res.Stats.Issues),
		attribute.Int("assay.failures", res.Stats.Failures),
	)
	a.logger.Info("analysis complete",
		"files", res.Stats.Files,
		"skipped", res.Stats.Skipped,
		"cached", res.Stats.Cached,
		"issues", res.Stats.Issues,
		"failures", res.Stats.Failures,
		"duration", res.Stats.Duration)
	return res, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, art input.Artifact) (fileResult, error) {
	if err := ctx.Err(); err != nil {
		return fileResult{}, err
	}
	ctx, span := analyzerTracer.Start(ctx, "analyze file")
	defer span.End()
	span.SetAttributes(attribute.String("assay.file", art.Path))
	start := time.Now()

	key := a.cacheKey(art)
	if fr, ok := a.lookup(ctx, key, art, start); ok {
		span.SetAttributes(attribute.Bool("assay.cache.hit", true))
		return fr, nil
	}

	file, err := javafront.NewParser(a.logger).Parse(ctx, art.Path, art.Content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fileResult{}, fmt.Errorf("analyzing %s: %w", art.Path, err)
	}
	model := javafront.Resolve(file)

	bag := report.NewBag()
	scan := a.dispatcher.Scan(file, model, bag)
	issues := bag.Issues()

	a.filesAnalyzed.Add(ctx, 1)
	for _, is := range issues {
		a.issuesReported.Add(ctx, 1, metric.WithAttributes(attribute.String("assay.rule", is.RuleKey)))
	}
	for _, f := range scan.Failures {
		a.ruleFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("assay.rule", f.RuleKey)))
	}
	span.SetAttributes(
		attribute.Int("assay.nodes", scan.Visited),
		attribute.Int("assay.issues", len(issues)),
	)

	if a.opts.Cache != nil && len(scan.Failures) == 0 {
		entry := &cache.CacheEntry{Key: key, Issues: issues, Nodes: scan.Visited}
		if err := a.opts.Cache.Put(ctx, entry); err != nil {
			a.logger.Warn("caching issues", "path", art.Path, "err", err)
		}
	}

	return fileResult{
		stats: FileStats{
			Path:     art.Path,
			Nodes:    scan.Visited,
			Issues:   len(issues),
			Failures: len(scan.Failures),
			Duration: time.Since(start),
		},
		issues:   issues,
		failures: scan.Failures,
	}, nil
}

func (a *Analyzer) record(rec *metrics.FileBuilder, fr fileResult) {
	switch {
	case a.opts.Cache == nil:
		rec.WithCacheResult(metrics.CacheDisabled)
	case fr.stats.Cached:
		rec.WithCacheResult(metrics.CacheHit)
	default:
		rec.WithCacheResult(metrics.CacheMiss)
	}
	byRule := make(map[string]int)
	for _, is := range fr.issues {
		byRule[is.RuleKey]++
	}
	rec.Complete(fr.stats.Nodes, byRule, len(fr.failures))
}

// Invalidate drops the cached result for art, so the next Analyze of the same
// content runs the rules again.
func (a *Analyzer) Invalidate(ctx context.Context, art input.Artifact) error {
	if a.opts.Cache == nil {
		return nil
	}
	return a.opts.Cache.Delete(ctx, a.cacheKey(art))
}

func (a *Analyzer) cacheKey(art input.Artifact) cache.CacheKey {
	key := a.opts.CacheKey
	key.FilePath = art.Path
	if a.opts.Cache != nil {
		key.FileHash = cache.ContentHash(art.Content)
	}
	return key
}

// lookup serves a file from the cache. Any cache error counts as a miss.
func (a *Analyzer) lookup(ctx context.Context, key cache.CacheKey, art input.Artifact, start time.Time) (fileResult, bool) {
	if a.opts.Cache == nil {
		return fileResult{}, false
	}
	entry, err := a.opts.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			a.logger.Debug("cache lookup failed", "path", art.Path, "err", err)
		}
		return fileResult{}, false
	}
	a.cacheHits.Add(ctx, 1)
	a.filesAnalyzed.Add(ctx, 1)
	issues := entry.Issues
	if issues == nil {
		issues = []report.Issue{}
	}
	for _, is := range issues {
		a.issuesReported.Add(ctx, 1, metric.WithAttributes(attribute.String("assay.rule", is.RuleKey)))
	}
	return fileResult{
		stats: FileStats{
			Path:     art.Path,
			Nodes:    entry.Nodes,
			Issues:   len(issues),
			Cached:   true,
			Duration: time.Since(start),
		},
		issues: issues,
	}, true
}

func sortFailures(fs []dispatch.Failure) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		if a.Range.Start.Column != b.Range.Start.Column {
			return a.Range.Start.Column < b.Range.Start.Column
		}
		return a.RuleKey < b.RuleKey
	})
}
