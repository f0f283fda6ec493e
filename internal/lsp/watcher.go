package lsp

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// WatcherConfig holds configuration for the debounced watcher
type WatcherConfig struct {
	DebounceDuration time.Duration
	ParallelFiles    int
	WatchPatterns    []string
	IgnorePatterns   []string
}

// DefaultWatcherConfig returns the defaults for Java projects.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDuration: 300 * time.Millisecond,
		ParallelFiles:    3,
		WatchPatterns:    []string{"**/*.java"},
		IgnorePatterns: []string{
			"**/.git/**",
			"**/target/**",
			"**/build/**",
			"**/.assay/**",
		},
	}
}

// DebouncedWatcher batches file changes and triggers analysis after quiet period
type DebouncedWatcher struct {
	config    WatcherConfig
	onTrigger func(files []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

// NewDebouncedWatcher creates a watcher. Zero fields of config take their
// defaults.
func NewDebouncedWatcher(config WatcherConfig, onTrigger func(files []string)) *DebouncedWatcher {
	if onTrigger == nil {
		panic("onTrigger callback cannot be nil")
	}
	defaults := DefaultWatcherConfig()
	if config.DebounceDuration <= 0 {
		config.DebounceDuration = defaults.DebounceDuration
	}
	if config.ParallelFiles <= 0 {
		config.ParallelFiles = defaults.ParallelFiles
	}
	return &DebouncedWatcher{
		config:    config,
		onTrigger: onTrigger,
		pending:   make(map[string]struct{}),
	}
}

// UpdateConfig overrides the non-zero fields of config.
func (w *DebouncedWatcher) UpdateConfig(config WatcherConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if config.DebounceDuration > 0 {
		w.config.DebounceDuration = config.DebounceDuration
	}
	if config.ParallelFiles > 0 {
		w.config.ParallelFiles = config.ParallelFiles
	}
	if len(config.WatchPatterns) > 0 {
		w.config.WatchPatterns = config.WatchPatterns
	}
	if len(config.IgnorePatterns) > 0 {
		w.config.IgnorePatterns = config.IgnorePatterns
	}
}

func (w *DebouncedWatcher) Config() WatcherConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}

// FileChanged queues a file and restarts the quiet period.
func (w *DebouncedWatcher) FileChanged(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.DebounceDuration, w.flush)
}

func (w *DebouncedWatcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	files := make([]string, 0, len(w.pending))
	for f := range w.pending {
		files = append(files, f)
	}
	w.pending = make(map[string]struct{})
	parallel := w.config.ParallelFiles
	w.mu.Unlock()

	sort.Strings(files)
	if parallel <= 1 || len(files) <= parallel {
		w.onTrigger(files)
		return
	}

	var g errgroup.Group
	g.SetLimit(parallel)
	for _, f := range files {
		g.Go(func() error {
			w.onTrigger([]string{f})
			return nil
		})
	}
	g.Wait()
}

// Stop drops pending files and ignores later changes.
func (w *DebouncedWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = make(map[string]struct{})
}

func (w *DebouncedWatcher) ShouldWatch(path string) bool {
	config := w.Config()
	return ShouldWatchPath(path, config.WatchPatterns, config.IgnorePatterns)
}

// ShouldWatchPath reports whether path matches a watch pattern and no
// ignore pattern. No watch patterns means everything not ignored.
func ShouldWatchPath(path string, watchPatterns, ignorePatterns []string) bool {
	normalized := strings.TrimPrefix(filepath.ToSlash(path), "file://")

	for _, pattern := range ignorePatterns {
		if matchGlobPattern(normalized, pattern) {
			return false
		}
	}
	if len(watchPatterns) == 0 {
		return true
	}
	for _, pattern := range watchPatterns {
		if matchGlobPattern(normalized, pattern) {
			return true
		}
	}
	return false
}

// matchGlobPattern supports "**/dir/**", "prefix/**/*.ext", "*.ext" and
// plain filepath.Match patterns against the base name.
func matchGlobPattern(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if strings.HasPrefix(pattern, "**/") && strings.HasSuffix(pattern, "/**") {
		dir := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		return strings.Contains(path, "/"+dir+"/") || strings.HasPrefix(path, dir+"/")
	}

	if parts := strings.Split(pattern, "**"); len(parts) == 2 {
		prefix := strings.TrimSuffix(parts[0], "/")
		suffix := strings.TrimPrefix(parts[1], "/")
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			return false
		}
		if suffix == "" {
			return true
		}
		if strings.HasPrefix(suffix, "*") {
			return strings.HasSuffix(path, strings.TrimPrefix(suffix, "*"))
		}
		return strings.HasSuffix(path, "/"+suffix) || strings.Contains(path, "/"+suffix+"/")
	}

	if strings.HasPrefix(pattern, "*") && !strings.Contains(pattern, "/") {
		return strings.HasSuffix(path, strings.TrimPrefix(pattern, "*"))
	}

	matched, _ := filepath.Match(pattern, filepath.Base(path))
	return matched
}
