package config

// SystemDefaults returns built-in rule settings, analysis limits, telemetry
// and language server config.
func SystemDefaults() *Config {
	return &Config{
		Rules: map[string]RuleConfig{
			"S5779": {
				Severity: "warning",
				Enabled:  true,
			},
			"empty-catch": {
				Severity: "warning",
				Enabled:  true,
			},
			"method-length": {
				Severity: "note",
				Enabled:  true,
				Params:   map[string]interface{}{"max_lines": 50},
			},
			"param-count": {
				Severity: "note",
				Enabled:  true,
				Params:   map[string]interface{}{"max_params": 5},
			},
			"nesting-depth": {
				Severity: "note",
				Enabled:  true,
				Params:   map[string]interface{}{"max_depth": 4},
			},
		},
		Analysis: AnalysisConfig{
			MaxFileBytes: 1 << 20,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			SampleRate:  1.0,
			ServiceName: "assay",
		},
		LSP: LSPConfig{
			Watcher: WatcherConfig{
				DebounceDuration: "300ms",
				WatchPatterns:    []string{"**/*.java"},
				IgnorePatterns: []string{
					"**/.git/**",
					"**/target/**",
					"**/build/**",
					"**/.assay/**",
				},
			},
			Analysis: LSPAnalysisConfig{
				ParallelFiles: 3,
			},
		},
	}
}
