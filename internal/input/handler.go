// Package input reads source artifacts from explicit paths or directory trees.
package input

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

type Artifact struct {
	Path    string
	Content []byte
}

// Handler reads artifacts accepted by its filter. A nil filter accepts every
// file.
type Handler struct {
	accept func(path string) bool
}

func NewHandler(accept func(path string) bool) *Handler {
	return &Handler{accept: accept}
}

func (h *Handler) accepts(path string) bool {
	return h.accept == nil || h.accept(path)
}

func (h *Handler) ReadFiles(paths []string) ([]Artifact, error) {
	var artifacts []Artifact
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		if !h.accepts(clean) {
			slog.Debug("skipping unsupported file", "path", clean)
			continue
		}
		data, err := os.ReadFile(clean)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(data) {
			slog.Warn("skipping file with invalid UTF-8", "path", clean)
			continue
		}
		artifacts = append(artifacts, Artifact{Path: clean, Content: data})
	}
	return artifacts, nil
}

// ReadDirectory walks dir in lexical order, skipping hidden directories.
func (h *Handler) ReadDirectory(dir string) ([]Artifact, error) {
	var artifacts []Artifact
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !h.accepts(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			slog.Warn("skipping file with invalid UTF-8", "path", path)
			return nil
		}
		artifacts = append(artifacts, Artifact{Path: path, Content: data})
		return nil
	})
	return artifacts, err
}

var testSuffixes = []string{"Test.java", "Tests.java", "IT.java", "TestCase.java"}

// IsTestPath reports whether path looks like a Java test source: it lives
// under src/test or its file name follows a test naming convention.
func IsTestPath(path string) bool {
	slashed := filepath.ToSlash(path)
	if strings.Contains(slashed, "src/test/") {
		return true
	}
	base := filepath.Base(slashed)
	for _, s := range testSuffixes {
		if strings.HasSuffix(base, s) && len(base) > len(s) {
			return true
		}
	}
	return strings.HasPrefix(base, "Test") && strings.HasSuffix(base, ".java") && len(base) > len("Test.java")
}
