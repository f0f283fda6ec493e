package astcheck

import (
	"fmt"

	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/tree"
)

const NestingDepthKey = "nesting-depth"

const defaultMaxDepth = 4

// NestingDepth checks that control-flow nesting inside a method does not
// exceed a configurable depth. Only the outermost offending statement of each
// subtree is reported.
type NestingDepth struct {
	MaxDepth int
}

func (n *NestingDepth) Key() string { return NestingDepthKey }

func (n *NestingDepth) NodesToVisit() []tree.Kind {
	return []tree.Kind{tree.KindMethodDecl, tree.KindConstructorDecl, tree.KindLambda}
}

func isNesting(k tree.Kind) bool {
	switch k {
	case tree.KindIf, tree.KindFor, tree.KindForEach, tree.KindWhile, tree.KindDoWhile, tree.KindSwitch:
		return true
	}
	return false
}

func (n *NestingDepth) VisitNode(ctx *dispatch.Context, node *tree.Node) {
	maxDepth := n.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	for _, c := range node.Children() {
		walkNesting(ctx, c, 0, maxDepth)
	}
}

// walkNesting stops at nested methods and lambdas; they are visited on their
// own with a fresh depth. An else-if chain counts as one level.
func walkNesting(ctx *dispatch.Context, node *tree.Node, depth, maxDepth int) {
	switch node.Kind() {
	case tree.KindMethodDecl, tree.KindConstructorDecl, tree.KindLambda, tree.KindClassDecl:
		return
	}

	// case labels hold constants and patterns, only the statements nest
	if g, ok := tree.AsCaseGroup(node); ok {
		for _, c := range g.Body() {
			walkNesting(ctx, c, depth, maxDepth)
		}
		return
	}

	currentDepth := depth
	if isNesting(node.Kind()) && !isElseIf(node) {
		currentDepth++
		if currentDepth > maxDepth {
			ctx.Report(node, fmt.Sprintf("Nesting depth %d exceeds maximum %d.", currentDepth, maxDepth))
			// Don't recurse further into this subtree
			return
		}
	}

	for _, c := range node.Children() {
		walkNesting(ctx, c, currentDepth, maxDepth)
	}
}

func isElseIf(n *tree.Node) bool {
	return n.Kind() == tree.KindIf && n.Role() == tree.RoleElse &&
		n.Parent() != nil && n.Parent().Kind() == tree.KindIf
}
