package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownRule is returned by Validate when a rule key has no registered
// implementation.
var ErrUnknownRule = errors.New("unknown rule")

// RuleConfig enables and tunes a single rule.
type RuleConfig struct {
	Enabled  bool                   `yaml:"enabled"`
	Severity string                 `yaml:"severity"`
	Params   map[string]interface{} `yaml:"params,omitempty"`
}

// AnalysisConfig controls which files are analyzed and how.
type AnalysisConfig struct {
	// Jobs is the number of files analyzed concurrently; 0 means one per CPU.
	Jobs int `yaml:"jobs"`
	// MaxFileBytes skips larger files; 0 disables the limit.
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	// IncludeTestsOnly restricts analysis to test sources.
	IncludeTestsOnly bool `yaml:"include_tests_only"`
}

// TelemetryConfig configures the OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Endpoint       string            `yaml:"endpoint"`
	Protocol       string            `yaml:"protocol"`
	Insecure       bool              `yaml:"insecure"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	SampleRate     float64           `yaml:"sample_rate"`
	ServiceName    string            `yaml:"service_name"`
	ServiceVersion string            `yaml:"service_version"`
}

// LSPConfig configures the language server.
type LSPConfig struct {
	Watcher  WatcherConfig     `yaml:"watcher"`
	Analysis LSPAnalysisConfig `yaml:"analysis"`
}

type WatcherConfig struct {
	// DebounceDuration is a time.ParseDuration string.
	DebounceDuration string   `yaml:"debounce_duration"`
	WatchPatterns    []string `yaml:"watch_patterns"`
	IgnorePatterns   []string `yaml:"ignore_patterns"`
}

type LSPAnalysisConfig struct {
	ParallelFiles int `yaml:"parallel_files"`
}

// Config holds the full assay configuration.
type Config struct {
	Rules     map[string]RuleConfig `yaml:"rules"`
	Analysis  AnalysisConfig        `yaml:"analysis"`
	Telemetry TelemetryConfig       `yaml:"telemetry"`
	LSP       LSPConfig             `yaml:"lsp"`
}

var severities = map[string]bool{"error": true, "warning": true, "note": true, "none": true}

// Validate checks the configuration against the set of known rule keys.
func (c *Config) Validate(knownRules []string) error {
	known := make(map[string]bool, len(knownRules))
	for _, k := range knownRules {
		known[k] = true
	}

	keys := make([]string, 0, len(c.Rules))
	for k := range c.Rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known[k] {
			return fmt.Errorf("rules.%s: %w", k, ErrUnknownRule)
		}
		if s := c.Rules[k].Severity; s != "" && !severities[s] {
			return fmt.Errorf("rules.%s.severity must be one of error, warning, note, none; got: %s", k, s)
		}
	}

	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("analysis.jobs must not be negative, got: %d", c.Analysis.Jobs)
	}
	if c.Analysis.MaxFileBytes < 0 {
		return fmt.Errorf("analysis.max_file_bytes must not be negative, got: %d", c.Analysis.MaxFileBytes)
	}

	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http', got: %s", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be within [0, 1], got: %v", c.Telemetry.SampleRate)
	}

	if d := c.LSP.Watcher.DebounceDuration; d != "" {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("lsp.watcher.debounce_duration: %w", err)
		}
	}
	if c.LSP.Analysis.ParallelFiles < 0 {
		return fmt.Errorf("lsp.analysis.parallel_files must not be negative, got: %d", c.LSP.Analysis.ParallelFiles)
	}
	return nil
}

// Severity returns the configured severity for a rule, or fallback.
func (c *Config) Severity(rule, fallback string) string {
	if rc, ok := c.Rules[rule]; ok && rc.Severity != "" {
		return rc.Severity
	}
	return fallback
}

// MergeConfigs merges configs in order of increasing precedence.
// Later configs override earlier ones. Non-zero fields override;
// Enabled always takes effect from the higher tier.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{
		Rules: make(map[string]RuleConfig),
	}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		for name, rule := range cfg.Rules {
			existing, ok := result.Rules[name]
			if !ok {
				result.Rules[name] = rule
				continue
			}
			if rule.Severity != "" {
				existing.Severity = rule.Severity
			}
			if len(rule.Params) > 0 {
				params := make(map[string]interface{}, len(existing.Params)+len(rule.Params))
				for k, v := range existing.Params {
					params[k] = v
				}
				for k, v := range rule.Params {
					params[k] = v
				}
				existing.Params = params
			}
			// Enabled: a higher tier enabling always wins. A false value only
			// disables when nothing else is set, so that an entry that merely
			// tunes severity or params does not switch the rule off.
			if rule.Enabled {
				existing.Enabled = true
			} else if rule.Severity == "" && len(rule.Params) == 0 {
				existing.Enabled = false
			}
			result.Rules[name] = existing
		}

		if cfg.Analysis.Jobs != 0 {
			result.Analysis.Jobs = cfg.Analysis.Jobs
		}
		if cfg.Analysis.MaxFileBytes != 0 {
			result.Analysis.MaxFileBytes = cfg.Analysis.MaxFileBytes
		}
		if cfg.Analysis.IncludeTestsOnly {
			result.Analysis.IncludeTestsOnly = true
		}

		t := cfg.Telemetry
		if t.Enabled {
			result.Telemetry.Enabled = true
		}
		if t.Endpoint != "" {
			result.Telemetry.Endpoint = t.Endpoint
		}
		if t.Protocol != "" {
			result.Telemetry.Protocol = t.Protocol
		}
		if t.Insecure {
			result.Telemetry.Insecure = true
		}
		if len(t.Headers) > 0 {
			result.Telemetry.Headers = t.Headers
		}
		if t.SampleRate != 0 {
			result.Telemetry.SampleRate = t.SampleRate
		}
		if t.ServiceName != "" {
			result.Telemetry.ServiceName = t.ServiceName
		}
		if t.ServiceVersion != "" {
			result.Telemetry.ServiceVersion = t.ServiceVersion
		}

		w := cfg.LSP.Watcher
		if w.DebounceDuration != "" {
			result.LSP.Watcher.DebounceDuration = w.DebounceDuration
		}
		if len(w.WatchPatterns) > 0 {
			result.LSP.Watcher.WatchPatterns = w.WatchPatterns
		}
		if len(w.IgnorePatterns) > 0 {
			result.LSP.Watcher.IgnorePatterns = w.IgnorePatterns
		}
		if cfg.LSP.Analysis.ParallelFiles != 0 {
			result.LSP.Analysis.ParallelFiles = cfg.LSP.Analysis.ParallelFiles
		}
	}

	return result
}

// LoadFromFile reads a YAML config file. Returns nil, nil if the file doesn't exist.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadTiered loads system defaults, then machine config, then project config,
// and merges them in order of increasing precedence.
func LoadTiered(machinePath, projectPath string) (*Config, error) {
	system := SystemDefaults()

	machine, err := LoadFromFile(machinePath)
	if err != nil {
		return nil, fmt.Errorf("loading machine config: %w", err)
	}

	project, err := LoadFromFile(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return MergeConfigs(system, machine, project), nil
}

// MachinePath is the per-user config file, or "" when the home directory is
// unknown.
func MachinePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "assay", "assay.yaml")
}

// ProjectPath is the config file of the project rooted at dir.
func ProjectPath(dir string) string {
	return filepath.Join(dir, ".assay", "assay.yaml")
}
