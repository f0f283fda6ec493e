package astcheck

import (
	"fmt"

	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/tree"
)

const ParamCountKey = "param-count"

const defaultMaxParams = 5

// ParamCount checks that methods do not have too many parameters. Lambdas are
// not counted.
type ParamCount struct {
	MaxParams int
}

func (p *ParamCount) Key() string { return ParamCountKey }

func (p *ParamCount) NodesToVisit() []tree.Kind {
	return []tree.Kind{tree.KindMethodDecl, tree.KindConstructorDecl}
}

func (p *ParamCount) VisitNode(ctx *dispatch.Context, n *tree.Node) {
	method, ok := tree.AsMethod(n)
	if !ok {
		return
	}
	maxParams := p.MaxParams
	if maxParams <= 0 {
		maxParams = defaultMaxParams
	}
	count := len(method.Parameters())
	if count <= maxParams {
		return
	}
	ctx.Report(anchorOf(method), fmt.Sprintf("Method %q has %d parameters (max %d).", methodName(method), count, maxParams))
}
