package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/assay/internal/config"
	"github.com/chris-regnier/assay/internal/output"
	"github.com/chris-regnier/assay/internal/rules"
	"github.com/chris-regnier/assay/internal/sarif"
	"github.com/chris-regnier/assay/internal/store"
	"github.com/chris-regnier/assay/internal/telemetry"
)

func newLogger(cmd *cobra.Command) *slog.Logger {
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	return output.SetupLogger(quiet, verbose, debug, cmd.ErrOrStderr())
}

func projectDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("project")
	if dir == "" {
		return "."
	}
	return dir
}

// loadConfig merges defaults, the per-user file and the project file, then
// validates the result against the registered rule keys.
func loadConfig(project string, known []string) (*config.Config, error) {
	cfg, err := config.LoadTiered(config.MachinePath(), config.ProjectPath(project))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(known); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadCatalog returns the rule documentation: embedded defaults overlaid with
// the per-user and project rule directories.
func loadCatalog(project string) ([]rules.Rule, error) {
	userDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		userDir = filepath.Join(home, ".config", "assay", "rules")
	}
	catalog, err := rules.LoadRules(userDir, filepath.Join(project, ".assay", "rules"))
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return catalog, nil
}

// severitiesFrom collects the per-rule severity overrides of cfg.
func severitiesFrom(cfg *config.Config) sarif.Severities {
	severities := sarif.Severities{}
	for key, rc := range cfg.Rules {
		if rc.Severity != "" {
			severities[key] = rc.Severity
		}
	}
	return severities
}

func startTelemetry(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (func(), error) {
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = version
	}
	shutdown, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown error", "err", err)
		}
	}, nil
}

// openStore picks the SQLite database when dbPath is set, the JSON result
// directory otherwise.
func openStore(outputDir, dbPath string) (store.Store, func() error, error) {
	if dbPath == "" {
		return store.NewFileStore(outputDir), func() error { return nil }, nil
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating database dir: %w", err)
		}
	}
	s, err := store.OpenSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return s, s.Close, nil
}
