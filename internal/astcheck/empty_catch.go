package astcheck

import (
	"fmt"

	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/tree"
)

const EmptyCatchKey = "empty-catch"

// EmptyCatch checks for catch blocks with nothing in them. A block holding
// only a comment counts as handled.
type EmptyCatch struct{}

func (e *EmptyCatch) Key() string { return EmptyCatchKey }

func (e *EmptyCatch) NodesToVisit() []tree.Kind {
	return []tree.Kind{tree.KindCatchClause}
}

func (e *EmptyCatch) VisitNode(ctx *dispatch.Context, n *tree.Node) {
	cc, ok := tree.AsCatch(n)
	if !ok {
		return
	}
	body := cc.Body()
	if body == nil || len(body.Children()) > 0 || body.Has(tree.FlagCommented) {
		return
	}
	anchor := n
	caught := "the exception"
	if t := cc.Parameter().TypeNode(); t != nil {
		anchor = t
		caught = t.Text()
	}
	ctx.Report(anchor, fmt.Sprintf("Empty catch block swallows %s.", caught))
}
