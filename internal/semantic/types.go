// Package semantic answers type and symbol questions about a resolved tree.
// A Model is produced once per tree by a Builder and never changes afterwards.
package semantic

import "sort"

// Type is a resolved type: a qualified name and its direct supertypes.
type Type struct {
	name    string
	supers  []*Type
	unknown bool
}

// Unknown stands for any type resolution could not determine. It is never equal
// to, nor a subtype of, anything.
var Unknown = &Type{name: "!unknown", unknown: true}

func (t *Type) Name() string {
	if t == nil {
		return Unknown.name
	}
	return t.name
}

func (t *Type) IsUnknown() bool { return t == nil || t.unknown }

// Supertypes returns the direct supertypes.
func (t *Type) Supertypes() []*Type {
	if t.IsUnknown() {
		return nil
	}
	return t.supers
}

// Is reports whether t is exactly the type named qualifiedName.
func (t *Type) Is(qualifiedName string) bool {
	return !t.IsUnknown() && t.name == qualifiedName
}

// IsSubtypeOf reports whether t is qualifiedName or inherits from it,
// directly or transitively.
func (t *Type) IsSubtypeOf(qualifiedName string) bool {
	if t.IsUnknown() {
		return false
	}
	found := false
	t.walk(func(x *Type) bool {
		if x.name == qualifiedName {
			found = true
			return false
		}
		return true
	})
	return found
}

// Ancestors returns t followed by its supertype closure in breadth-first order.
func (t *Type) Ancestors() []*Type {
	if t.IsUnknown() {
		return nil
	}
	var out []*Type
	t.walk(func(x *Type) bool {
		out = append(out, x)
		return true
	})
	return out
}

// walk visits t and its supertypes breadth-first, each at most once, until fn
// returns false.
func (t *Type) walk(fn func(*Type) bool) {
	seen := map[*Type]bool{t: true}
	queue := []*Type{t}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		if !fn(x) {
			return
		}
		for _, s := range x.supers {
			if s != nil && !s.unknown && !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
}

func (t *Type) String() string { return t.Name() }

// TypeTable owns the types known for one analysis pass.
type TypeTable struct {
	byName map[string]*Type
}

func NewTypeTable() *TypeTable {
	return &TypeTable{byName: make(map[string]*Type)}
}

// Declare returns the type named name, creating it when needed, and adds the
// given supertypes (declared on demand) to it.
func (tt *TypeTable) Declare(name string, supers ...string) *Type {
	t := tt.get(name)
	for _, s := range supers {
		st := tt.get(s)
		if st == t || containsType(t.supers, st) {
			continue
		}
		t.supers = append(t.supers, st)
	}
	return t
}

func (tt *TypeTable) get(name string) *Type {
	if t, ok := tt.byName[name]; ok {
		return t
	}
	t := &Type{name: name}
	tt.byName[name] = t
	return t
}

// Lookup returns the type named name, or Unknown.
func (tt *TypeTable) Lookup(name string) (*Type, bool) {
	if t, ok := tt.byName[name]; ok {
		return t, true
	}
	return Unknown, false
}

// Names returns every declared type name, sorted.
func (tt *TypeTable) Names() []string {
	out := make([]string, 0, len(tt.byName))
	for n := range tt.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LeastUpperBound returns the first ancestor of types[0], in breadth-first
// order, that every other type is a subtype of. Any unknown member yields Unknown.
func LeastUpperBound(types ...*Type) *Type {
	if len(types) == 0 {
		return Unknown
	}
	for _, t := range types {
		if t.IsUnknown() {
			return Unknown
		}
	}
	for _, candidate := range types[0].Ancestors() {
		common := true
		for _, other := range types[1:] {
			if !other.IsSubtypeOf(candidate.name) {
				common = false
				break
			}
		}
		if common {
			return candidate
		}
	}
	return Unknown
}

func containsType(list []*Type, t *Type) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}
