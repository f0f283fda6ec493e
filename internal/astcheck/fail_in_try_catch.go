package astcheck

import (
	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/matcher"
	"github.com/chris-regnier/assay/internal/report"
	"github.com/chris-regnier/assay/internal/semantic"
	"github.com/chris-regnier/assay/internal/tree"
)

const FailInTryCatchKey = "S5779"

const (
	failInTryCatchMessage = "Don't use fail() inside a try-catch catching an AssertionError."
	swallowingParamNote   = "This parameter will catch the AssertionError thrown by fail()."
)

// FailInTryCatch flags fail() calls inside a try whose catch clause silently
// swallows the AssertionError that fail() throws, so the test can never fail.
type FailInTryCatch struct {
	fail *matcher.Matcher
}

func NewFailInTryCatch() *FailInTryCatch {
	return &FailInTryCatch{
		fail: matcher.New(matcher.Config{
			OwnerTypes: []string{"org.junit.Assert", "org.junit.jupiter.api.Assertions"},
			Names:      []string{"fail"},
			Arity:      matcher.AnyArity(),
		}),
	}
}

func (c *FailInTryCatch) Key() string { return FailInTryCatchKey }

func (c *FailInTryCatch) NodesToVisit() []tree.Kind {
	return []tree.Kind{tree.KindTryStatement}
}

func (c *FailInTryCatch) VisitNode(ctx *dispatch.Context, n *tree.Node) {
	try, ok := tree.AsTry(n)
	if !ok {
		return
	}
	param, ok := swallowingParameter(ctx.Model, try.Catches())
	if !ok {
		return
	}
	// resource initializers are guarded by the same catch clauses
	call := c.firstFail(ctx.Model, append(try.Resources(), try.Body())...)
	if call == nil {
		return
	}
	inv, _ := tree.AsInvocation(call)
	ctx.Report(inv.Name(), failInTryCatchMessage, report.Note{
		Node:    param.TypeNode(),
		Message: swallowingParamNote,
	})
}

// firstFail returns the first fail() call in source order under roots. The
// protected block of a nested try that intercepts the AssertionError itself
// is skipped, its own visit is responsible for it. The catch and finally
// blocks of that try are still scanned.
func (c *FailInTryCatch) firstFail(model *semantic.Model, roots ...*tree.Node) *tree.Node {
	var found *tree.Node
	var scan func(root *tree.Node)
	scan = func(root *tree.Node) {
		tree.Inspect(root, func(n *tree.Node) bool {
			if found != nil {
				return false
			}
			switch n.Kind() {
			case tree.KindTryStatement:
				if !interceptsAssertionError(model, n) {
					return true
				}
				try, _ := tree.AsTry(n)
				for _, cc := range try.Catches() {
					if b := cc.Body(); b != nil {
						scan(b)
					}
				}
				if fin, ok := try.Finally(); ok {
					scan(fin)
				}
				return false
			case tree.KindMethodInvocation:
				if c.fail.Matches(model, n) {
					found = n
					return false
				}
			}
			return true
		})
	}
	for _, root := range roots {
		scan(root)
	}
	return found
}

// swallowingParameter returns the first catch parameter, in source order,
// that catches AssertionError and is never used.
func swallowingParameter(model *semantic.Model, catches []tree.CatchClause) (tree.Variable, bool) {
	for _, cc := range catches {
		param := cc.Parameter()
		if param.Node == nil {
			continue
		}
		sym := model.SymbolOf(param.Node)
		if sym == nil || sym.UsageCount() != 0 {
			continue
		}
		if catchesAssertionError(sym.Type()) {
			return param, true
		}
	}
	return tree.Variable{}, false
}

func interceptsAssertionError(model *semantic.Model, n *tree.Node) bool {
	try, ok := tree.AsTry(n)
	if !ok {
		return false
	}
	for _, cc := range try.Catches() {
		if param := cc.Parameter(); param.Node != nil && catchesAssertionError(model.TypeOf(param.TypeNode())) {
			return true
		}
	}
	return false
}

func catchesAssertionError(t *semantic.Type) bool {
	return t.IsSubtypeOf("java.lang.AssertionError") ||
		t.Is("java.lang.Error") ||
		t.Is("java.lang.Throwable")
}
