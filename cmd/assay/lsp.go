package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/assay/internal/analyzer"
	"github.com/chris-regnier/assay/internal/astcheck"
	"github.com/chris-regnier/assay/internal/cache"
	"github.com/chris-regnier/assay/internal/lsp"
)

var (
	lspCacheDir string
	lspNoCache  bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start assay in LSP mode to report issues in your editor as you type.

The server speaks JSON-RPC on stdin/stdout; logs go to stderr. Rules,
severities and the lsp section are read from the same tiered configuration
as analyze.`,
		RunE: runLSP,
	}
	cmd.Flags().StringVar(&lspCacheDir, "cache-dir", ".assay/cache", "Directory for cached per-file issues")
	cmd.Flags().BoolVar(&lspNoCache, "no-cache", false, "Keep cached issues in memory only")

	rootCmd.AddCommand(cmd)
}

func runLSP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger(cmd)
	// the server logs through the default logger; stdout belongs to the protocol
	slog.SetDefault(logger)

	cacheDir := lspCacheDir
	if lspNoCache {
		cacheDir = ""
	}
	if err := serveLSP(ctx, projectDir(cmd), cacheDir, cmd.InOrStdin(), cmd.OutOrStdout(), logger); err != nil {
		return fmt.Errorf("LSP server error: %w", err)
	}
	return nil
}

// serveLSP builds the analysis stack for project and serves LSP on in/out
// until the client exits.
func serveLSP(ctx context.Context, project, cacheDir string, in io.Reader, out io.Writer, logger *slog.Logger) error {
	registry := astcheck.DefaultRegistry()
	cfg, err := loadConfig(project, registry.Names())
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(project)
	if err != nil {
		return err
	}
	enabled, err := registry.Build(cfg.Rules)
	if err != nil {
		return fmt.Errorf("building rules: %w", err)
	}

	var issueCache cache.CacheManager = cache.NewMemoryCache()
	if cacheDir != "" {
		issueCache = cache.NewMultiTierCache(issueCache, cache.NewLocalCache(cacheDir), cache.DefaultMultiTierConfig(), logger)
	}
	a, err := analyzer.NewAnalyzer(enabled, analyzer.Options{
		Jobs:         1,
		MaxFileBytes: cfg.Analysis.MaxFileBytes,
		Logger:       logger,
		Cache:        issueCache,
		CacheKey:     cache.CacheKey{ToolVersion: version, Rules: cache.RulesFingerprint(cfg.Rules)},
	})
	if err != nil {
		return err
	}

	fa := lsp.NewFileAnalyzer(a, catalog, severitiesFrom(cfg), logger)

	serverCfg := lsp.ServerConfigFromLSPConfig(cfg.LSP)
	serverCfg.HelpURIs = lsp.HelpURIs(catalog)
	serverCfg.Version = version

	server := lsp.NewServerWithConfig(bufio.NewReader(in), bufio.NewWriter(out), fa.Analyze, serverCfg)
	server.SetInvalidator(fa.Invalidate)

	logger.Info("LSP server started", "project", project, "rules", len(enabled))
	return server.Run(ctx)
}
