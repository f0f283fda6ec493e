// Package dispatch runs independent rules over a tree in a single traversal.
// Rules declare the node kinds they care about; the dispatcher indexes them by
// kind once and invokes every interested rule for every matching node.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/chris-regnier/assay/internal/report"
	"github.com/chris-regnier/assay/internal/semantic"
	"github.com/chris-regnier/assay/internal/tree"
)

// ErrUnknownKind is returned when a rule subscribes to a kind outside the
// tree.Kind enumeration.
var ErrUnknownKind = errors.New("unknown node kind")

// Rule is the contract every check implements. NodesToVisit must return the
// same set for the lifetime of the rule. VisitNode may be called concurrently
// for different files, so rules keep per-visit state in local variables.
type Rule interface {
	Key() string
	NodesToVisit() []tree.Kind
	VisitNode(ctx *Context, n *tree.Node)
}

// Context is handed to a rule for one file.
type Context struct {
	File     *tree.File
	Model    *semantic.Model
	ruleKey  string
	reporter *report.Reporter
}

// Report records an issue for the current rule.
func (c *Context) Report(primary *tree.Node, msg string, notes ...report.Note) report.Issue {
	return c.reporter.Report(c.ruleKey, primary, msg, notes...)
}

// RuleKey is the key of the rule currently being invoked.
func (c *Context) RuleKey() string { return c.ruleKey }

// Failure describes a rule invocation that panicked.
type Failure struct {
	RuleKey string
	File    string
	Kind    tree.Kind
	Range   tree.Range
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("rule %s failed on %s at %s:%s: %v", f.RuleKey, f.Kind, f.File, f.Range, f.Err)
}

// Result summarizes one Scan.
type Result struct {
	Visited  int
	Failures []Failure
}

// Dispatcher holds the immutable kind index; it is safe for concurrent Scans.
type Dispatcher struct {
	rules  []Rule
	byKind [tree.NumKinds][]Rule
	logger *slog.Logger
}

// New indexes rules by the kinds they subscribe to. Rules are invoked in
// registration order at a given node.
func New(logger *slog.Logger, rules ...Rule) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.Key()] {
			return nil, fmt.Errorf("rule %s registered twice", r.Key())
		}
		seen[r.Key()] = true
		kinds := make(map[tree.Kind]bool)
		for _, k := range r.NodesToVisit() {
			if !k.Valid() {
				return nil, fmt.Errorf("rule %s: %w %d", r.Key(), ErrUnknownKind, k)
			}
			if kinds[k] {
				continue
			}
			kinds[k] = true
			d.byKind[k] = append(d.byKind[k], r)
		}
		d.rules = append(d.rules, r)
	}
	return d, nil
}

// Rules returns the registered rules in registration order.
func (d *Dispatcher) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Scan walks file once, depth-first in source order, and invokes every rule
// subscribed to each node's kind. Issues go to sink. A panicking rule is
// recorded as a Failure and the traversal continues.
func (d *Dispatcher) Scan(file *tree.File, model *semantic.Model, sink report.Sink) Result {
	var res Result
	if file == nil || file.Root == nil {
		return res
	}
	reporter := report.NewReporter(file.Path, sink)
	contexts := make(map[string]*Context, len(d.rules))
	for _, r := range d.rules {
		contexts[r.Key()] = &Context{File: file, Model: model, ruleKey: r.Key(), reporter: reporter}
	}

	tree.Inspect(file.Root, func(n *tree.Node) bool {
		res.Visited++
		for _, r := range d.byKind[n.Kind()] {
			if f := d.invoke(r, contexts[r.Key()], n); f != nil {
				res.Failures = append(res.Failures, *f)
			}
		}
		return true
	})
	return res
}

func (d *Dispatcher) invoke(r Rule, ctx *Context, n *tree.Node) (failure *Failure) {
	defer func() {
		if p := recover(); p != nil {
			err, ok := p.(error)
			if !ok {
				err = fmt.Errorf("%v", p)
			}
			failure = &Failure{
				RuleKey: r.Key(),
				File:    ctx.File.Path,
				Kind:    n.Kind(),
				Range:   n.Range(),
				Err:     err,
			}
			d.logger.Warn("rule failed",
				"rule", r.Key(),
				"file", ctx.File.Path,
				"node", n.Kind().String(),
				"range", n.Range().String(),
				"err", err,
			)
			d.logger.Debug("rule failure stack", "rule", r.Key(), "stack", string(debug.Stack()))
		}
	}()
	r.VisitNode(ctx, n)
	return nil
}
