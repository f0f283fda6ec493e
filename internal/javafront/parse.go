// Package javafront turns Java source into the tree and semantic models the
// rules consume. Parsing is delegated to tree-sitter; resolution is a
// single-file, best-effort pass that answers Unknown rather than guessing.
package javafront

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/chris-regnier/assay/internal/tree"
)

// Language is the name reported for files handled by this frontend.
const Language = "java"

// Detect reports whether path names a Java source file.
func Detect(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".java")
}

// Parser wraps a tree-sitter parser. It is not safe for concurrent use; create
// one per worker.
type Parser struct {
	parser *sitter.Parser
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Parser{parser: p, logger: logger}
}

// Parse builds the tree for src. Syntax errors are tolerated: tree-sitter
// recovers and the partial tree is returned with a warning.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*tree.File, error) {
	t, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	root := t.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parse error: %s: empty tree", path)
	}
	if root.HasError() {
		p.logger.Warn("syntax errors in source, analyzing recovered tree", "path", path)
	}
	l := newLowerer(src)
	return &tree.File{Path: path, Source: src, Root: l.lower(root)}, nil
}
