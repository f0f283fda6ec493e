// Package matcher provides reusable predicates over call expressions.
package matcher

import (
	"github.com/chris-regnier/assay/internal/semantic"
	"github.com/chris-regnier/assay/internal/tree"
)

// Arity constrains the number of call arguments.
type Arity struct {
	exact bool
	n     int
}

// AnyArity accepts any argument count.
func AnyArity() Arity { return Arity{} }

// ExactArity accepts exactly n arguments.
func ExactArity(n int) Arity { return Arity{exact: true, n: n} }

func (a Arity) accepts(n int) bool { return !a.exact || a.n == n }

// OwnerMatch selects how the resolved owner type is compared to OwnerTypes.
type OwnerMatch uint8

const (
	// Exact requires the owner to be one of OwnerTypes.
	Exact OwnerMatch = iota
	// Subtype also accepts subtypes of OwnerTypes.
	Subtype
)

type Config struct {
	OwnerTypes []string
	Names      []string
	Arity      Arity
	OwnerMatch OwnerMatch
}

// Matcher is an immutable call-site predicate; safe for concurrent use.
type Matcher struct {
	owners     []string
	names      map[string]struct{}
	arity      Arity
	ownerMatch OwnerMatch
}

func New(cfg Config) *Matcher {
	m := &Matcher{
		owners:     append([]string(nil), cfg.OwnerTypes...),
		names:      make(map[string]struct{}, len(cfg.Names)),
		arity:      cfg.Arity,
		ownerMatch: cfg.OwnerMatch,
	}
	for _, n := range cfg.Names {
		m.names[n] = struct{}{}
	}
	return m
}

// Matches reports whether call is a method invocation satisfying every
// constraint. Unresolved owners never match.
func (m *Matcher) Matches(model *semantic.Model, call *tree.Node) bool {
	inv, ok := tree.AsInvocation(call)
	if !ok {
		return false
	}
	name := inv.Name()
	if name == nil {
		return false
	}
	if _, ok := m.names[name.Text()]; !ok {
		return false
	}
	if !m.arity.accepts(len(inv.Arguments())) {
		return false
	}
	owner := model.MethodOf(call).Owner
	if owner.IsUnknown() {
		return false
	}
	for _, o := range m.owners {
		if owner.Is(o) || (m.ownerMatch == Subtype && owner.IsSubtypeOf(o)) {
			return true
		}
	}
	return false
}
