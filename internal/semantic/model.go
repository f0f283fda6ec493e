package semantic

import (
	"github.com/chris-regnier/assay/internal/tree"
)

// Symbol is the resolved identity of a declared name.
type Symbol struct {
	name   string
	decl   *tree.Node
	typ    *Type
	usages []*tree.Node
}

func (s *Symbol) Name() string            { return s.name }
func (s *Symbol) Declaration() *tree.Node { return s.decl }

func (s *Symbol) Type() *Type {
	if s.typ == nil {
		return Unknown
	}
	return s.typ
}

func (s *Symbol) UsageCount() int { return len(s.usages) }

// Usages returns the identifier nodes referring to s, in source order.
func (s *Symbol) Usages() []*tree.Node {
	out := make([]*tree.Node, len(s.usages))
	copy(out, s.usages)
	return out
}

// MethodRef is the resolution of a call site.
type MethodRef struct {
	Owner *Type
	Name  string
}

// Model holds the resolution results for one tree.
type Model struct {
	types   *TypeTable
	typeOf  map[*tree.Node]*Type
	symbols map[*tree.Node]*Symbol
	refs    map[*tree.Node]*Symbol
	methods map[*tree.Node]MethodRef
}

// TypeOf returns the type recorded for n (a type reference, expression or
// declaration), or Unknown.
func (m *Model) TypeOf(n *tree.Node) *Type {
	if m == nil {
		return Unknown
	}
	if t, ok := m.typeOf[n]; ok {
		return t
	}
	return Unknown
}

// SymbolOf returns the symbol declared by decl, or nil.
func (m *Model) SymbolOf(decl *tree.Node) *Symbol {
	if m == nil {
		return nil
	}
	return m.symbols[decl]
}

// Referent returns the symbol an identifier refers to, or nil.
func (m *Model) Referent(ident *tree.Node) *Symbol {
	if m == nil {
		return nil
	}
	return m.refs[ident]
}

// MethodOf returns the resolved target of a call. Unresolved calls report an
// Unknown owner.
func (m *Model) MethodOf(call *tree.Node) MethodRef {
	if m != nil {
		if ref, ok := m.methods[call]; ok {
			return ref
		}
	}
	name := ""
	if inv, ok := tree.AsInvocation(call); ok && inv.Name() != nil {
		name = inv.Name().Text()
	}
	return MethodRef{Owner: Unknown, Name: name}
}

// Types exposes the type table the model was resolved against.
func (m *Model) Types() *TypeTable {
	if m == nil {
		return NewTypeTable()
	}
	return m.types
}

// Builder accumulates resolution results. Build freezes them into a Model;
// any later mutation through the builder panics.
type Builder struct {
	m      *Model
	frozen bool
}

func NewBuilder(types *TypeTable) *Builder {
	if types == nil {
		types = NewTypeTable()
	}
	return &Builder{m: &Model{
		types:   types,
		typeOf:  make(map[*tree.Node]*Type),
		symbols: make(map[*tree.Node]*Symbol),
		refs:    make(map[*tree.Node]*Symbol),
		methods: make(map[*tree.Node]MethodRef),
	}}
}

func (b *Builder) mutable() {
	if b.frozen {
		panic("semantic: model already built")
	}
}

// Declare creates the symbol introduced by decl.
func (b *Builder) Declare(decl *tree.Node, name string, typ *Type) *Symbol {
	b.mutable()
	if typ == nil {
		typ = Unknown
	}
	s := &Symbol{name: name, decl: decl, typ: typ}
	b.m.symbols[decl] = s
	b.m.typeOf[decl] = typ
	return s
}

// Use records ident as a usage of s.
func (b *Builder) Use(s *Symbol, ident *tree.Node) {
	b.mutable()
	if s == nil || ident == nil {
		return
	}
	s.usages = append(s.usages, ident)
	b.m.refs[ident] = s
	b.m.typeOf[ident] = s.Type()
}

func (b *Builder) SetType(n *tree.Node, t *Type) {
	b.mutable()
	if n == nil || t == nil {
		return
	}
	b.m.typeOf[n] = t
}

func (b *Builder) SetMethod(call *tree.Node, ref MethodRef) {
	b.mutable()
	if ref.Owner == nil {
		ref.Owner = Unknown
	}
	b.m.methods[call] = ref
}

// Build finalizes the model.
func (b *Builder) Build() *Model {
	b.mutable()
	b.frozen = true
	return b.m
}
