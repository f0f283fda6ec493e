package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/assay/internal/analyzer"
	"github.com/chris-regnier/assay/internal/astcheck"
	"github.com/chris-regnier/assay/internal/cache"
	"github.com/chris-regnier/assay/internal/evaluator"
	"github.com/chris-regnier/assay/internal/input"
	"github.com/chris-regnier/assay/internal/javafront"
	"github.com/chris-regnier/assay/internal/metrics"
	"github.com/chris-regnier/assay/internal/output"
	"github.com/chris-regnier/assay/internal/sarif"
	"github.com/chris-regnier/assay/internal/store"
)

var cliTracer = otel.Tracer("github.com/chris-regnier/assay/cmd/assay")

// cacheMaxAge bounds how long an unused cache entry survives between runs.
const cacheMaxAge = 7 * 24 * time.Hour

// errRejected makes the process exit non-zero once a reject verdict is printed.
var errRejected = errors.New("verdict: reject")

var (
	flagFiles   []string
	flagDir     string
	flagFormat  string
	flagOutput  string
	flagRegoDir string
	flagDB      string
	flagJobs    int
	flagTests   bool
	flagCache   string
	flagNoCache bool
	flagMetrics string
)

func init() {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze Java sources and gate the result with Rego policies",
		Long: `Parse the given Java files, run every enabled rule over them, store the
SARIF log and evaluate it into a merge, review or reject verdict.

Examples:
  assay analyze --dir src/test/java
  assay analyze --files FooTest.java,BarTest.java --format sarif
  assay analyze --dir . --db .assay/assay.db`,
		RunE: runAnalyze,
	}

	analyzeCmd.Flags().StringSliceVar(&flagFiles, "files", nil, "Files to analyze")
	analyzeCmd.Flags().StringVar(&flagDir, "dir", "", "Directory to analyze")
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "", "Output format: json, sarif, markdown, pretty (default: pretty on a terminal, json otherwise)")
	analyzeCmd.Flags().StringVar(&flagOutput, "output", ".assay/results", "Output directory for results")
	analyzeCmd.Flags().StringVar(&flagRegoDir, "rego", ".assay/rego", "Directory containing Rego policies")
	analyzeCmd.Flags().StringVar(&flagDB, "db", "", "Store results in this SQLite database instead of --output")
	analyzeCmd.Flags().IntVar(&flagJobs, "jobs", 0, "Files analyzed concurrently (default: config, then one per CPU)")
	analyzeCmd.Flags().BoolVar(&flagTests, "tests-only", false, "Only analyze test sources")
	analyzeCmd.Flags().StringVar(&flagCache, "cache-dir", ".assay/cache", "Directory for cached per-file issues")
	analyzeCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Analyze every file even if it is unchanged")
	analyzeCmd.Flags().StringVar(&flagMetrics, "metrics", "", "Write per-file timing and issue metrics as JSON to this path")

	rootCmd.AddCommand(analyzeCmd)
}

// analyzeRequest carries everything one analysis run needs.
type analyzeRequest struct {
	Project  string
	Files    []string
	Dir      string
	Output   string
	DB       string
	RegoDir  string
	Jobs     int
	Tests    bool
	CacheDir string // empty disables the issue cache
	Metrics  string
	Logger   *slog.Logger
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	format := output.ResolveFormat(flagFormat, isatty.IsTerminal(os.Stdout.Fd()))
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}

	req := analyzeRequest{
		Project: projectDir(cmd),
		Files:   flagFiles,
		Dir:     flagDir,
		Output:  flagOutput,
		DB:      flagDB,
		RegoDir: flagRegoDir,
		Jobs:    flagJobs,
		Tests:   flagTests,
		Metrics: flagMetrics,
		Logger:  newLogger(cmd),
	}
	if !flagNoCache {
		req.CacheDir = flagCache
	}
	res, err := analyze(ctx, req)
	if err != nil {
		return err
	}

	data, err := formatter.Format(res)
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}
	if res.Verdict.Decision == evaluator.DecisionReject {
		return errRejected
	}
	return nil
}

// analyze runs the whole pipeline: config, input, rules, SARIF, verdict and
// storage.
func analyze(ctx context.Context, req analyzeRequest) (*output.AnalysisOutput, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := astcheck.DefaultRegistry()
	cfg, err := loadConfig(req.Project, registry.Names())
	if err != nil {
		return nil, err
	}

	stopTelemetry, err := startTelemetry(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}
	defer stopTelemetry()

	ctx, span := cliTracer.Start(ctx, "analyze")
	defer span.End()

	catalog, err := loadCatalog(req.Project)
	if err != nil {
		return nil, spanError(span, err)
	}

	h := input.NewHandler(javafront.Detect)
	var artifacts []input.Artifact
	var inputScope string
	switch {
	case len(req.Files) > 0:
		artifacts, err = h.ReadFiles(req.Files)
		inputScope = "files"
	case req.Dir != "":
		artifacts, err = h.ReadDirectory(req.Dir)
		inputScope = "directory"
	default:
		return nil, spanError(span, fmt.Errorf("specify --files or --dir"))
	}
	if err != nil {
		return nil, spanError(span, fmt.Errorf("reading input: %w", err))
	}
	span.SetAttributes(
		attribute.String("assay.input_scope", inputScope),
		attribute.Int("assay.artifacts", len(artifacts)),
	)
	logger.Info("read input", "scope", inputScope, "files", len(artifacts))

	enabled, err := registry.Build(cfg.Rules)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("building rules: %w", err))
	}

	opts := analyzer.Options{
		Jobs:             cfg.Analysis.Jobs,
		MaxFileBytes:     cfg.Analysis.MaxFileBytes,
		IncludeTestsOnly: cfg.Analysis.IncludeTestsOnly || req.Tests,
		Logger:           logger,
	}
	if req.Jobs > 0 {
		opts.Jobs = req.Jobs
	}
	if req.CacheDir != "" {
		local := cache.NewLocalCache(req.CacheDir)
		if n, err := local.Prune(ctx, cacheMaxAge); err != nil {
			logger.Warn("pruning cache", "dir", req.CacheDir, "error", err)
		} else if n > 0 {
			logger.Info("pruned stale cache entries", "dir", req.CacheDir, "removed", n)
		}
		opts.Cache = cache.NewMultiTierCache(
			cache.NewMemoryCache(),
			local,
			cache.DefaultMultiTierConfig(),
			logger,
		)
		opts.CacheKey = cache.CacheKey{ToolVersion: version, Rules: cache.RulesFingerprint(cfg.Rules)}
	}
	collector := metrics.NewCollector()
	opts.Recorder = metrics.NewRecorder(collector)

	a, err := analyzer.NewAnalyzer(enabled, opts)
	if err != nil {
		return nil, spanError(span, err)
	}
	result, err := a.Analyze(ctx, artifacts)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("analyzing: %w", err))
	}
	for _, f := range result.Failures {
		logger.Warn("rule failed", "failure", f.Error())
	}
	if err := exportMetrics(collector, req.Metrics, logger); err != nil {
		return nil, spanError(span, err)
	}

	severities := severitiesFrom(cfg)
	sarifLog := sarif.NewAssembler(version).
		AddResults(sarif.FromIssues(result.Issues, catalog, severities)).
		AddRules(sarif.Descriptors(catalog)).
		AddFailures(result.Failures).
		WithInputScope(inputScope).
		Build()

	eval, err := evaluator.NewEvaluator(req.RegoDir)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("creating evaluator: %w", err))
	}
	verdict, err := eval.Evaluate(ctx, sarifLog)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("evaluating: %w", err))
	}
	span.SetAttributes(attribute.String("assay.decision", verdict.Decision))

	if err := persist(ctx, req, sarifLog, verdict, logger); err != nil {
		return nil, spanError(span, err)
	}

	return &output.AnalysisOutput{
		Verdict:  verdict,
		SARIFLog: sarifLog,
		Issues:   result.Issues,
		Stats:    &result.Stats,
	}, nil
}

func persist(ctx context.Context, req analyzeRequest, doc *sarif.Log, verdict *store.Verdict, logger *slog.Logger) error {
	s, closeStore, err := openStore(req.Output, req.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing store", "err", err)
		}
	}()

	id, err := s.WriteSARIF(ctx, doc)
	if err != nil {
		return fmt.Errorf("storing SARIF: %w", err)
	}
	if err := s.WriteVerdict(ctx, id, verdict); err != nil {
		return fmt.Errorf("storing verdict: %w", err)
	}
	logger.Info("stored run", "id", id)

	if db, ok := s.(*store.SQLiteStore); ok {
		counts, err := db.RuleCounts(ctx, id)
		if err != nil {
			return fmt.Errorf("counting issues: %w", err)
		}
		for rule, n := range counts {
			logger.Debug("issues by rule", "rule", rule, "count", n)
		}
	}
	return nil
}

func exportMetrics(collector *metrics.Collector, path string, logger *slog.Logger) error {
	exp := metrics.NewExporter(collector)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		var b strings.Builder
		if err := exp.WriteReport(&b); err == nil {
			logger.Debug("run metrics\n" + b.String())
		}
	}
	if path == "" {
		return nil
	}
	if err := exp.ExportJSON(path); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
