package astcheck

import (
	"fmt"

	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/tree"
)

const MethodLengthKey = "method-length"

const defaultMaxLines = 50

// MethodLength checks that methods and constructors do not exceed a
// configurable line count.
type MethodLength struct {
	MaxLines int
}

func (m *MethodLength) Key() string { return MethodLengthKey }

func (m *MethodLength) NodesToVisit() []tree.Kind {
	return []tree.Kind{tree.KindMethodDecl, tree.KindConstructorDecl}
}

func (m *MethodLength) VisitNode(ctx *dispatch.Context, n *tree.Node) {
	method, ok := tree.AsMethod(n)
	if !ok {
		return
	}
	maxLines := m.MaxLines
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	rng := n.Range()
	lineCount := rng.End.Line - rng.Start.Line + 1
	if lineCount <= maxLines {
		return
	}
	name := methodName(method)
	ctx.Report(anchorOf(method), fmt.Sprintf("Method %q is %d lines long (max %d).", name, lineCount, maxLines))
}

// methodName extracts a human-readable name from a method node.
func methodName(m tree.Method) string {
	if n := m.Name(); n != nil {
		return n.Text()
	}
	return "<anonymous>"
}

// anchorOf is the node an issue about a whole method is attached to: its
// name when present.
func anchorOf(m tree.Method) *tree.Node {
	if n := m.Name(); n != nil {
		return n
	}
	return m.Node
}
