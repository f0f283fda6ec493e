package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/assay/internal/tree"
)

func throwables() *TypeTable {
	tt := NewTypeTable()
	tt.Declare("java.lang.Object")
	tt.Declare("java.lang.Throwable", "java.lang.Object")
	tt.Declare("java.lang.Error", "java.lang.Throwable")
	tt.Declare("java.lang.AssertionError", "java.lang.Error")
	tt.Declare("java.lang.VirtualMachineError", "java.lang.Error")
	tt.Declare("java.lang.OutOfMemoryError", "java.lang.VirtualMachineError")
	tt.Declare("java.lang.Exception", "java.lang.Throwable")
	tt.Declare("java.lang.RuntimeException", "java.lang.Exception")
	tt.Declare("java.lang.IllegalStateException", "java.lang.RuntimeException")
	tt.Declare("junit.framework.AssertionFailedError", "java.lang.AssertionError")
	return tt
}

func mustLookup(t *testing.T, tt *TypeTable, name string) *Type {
	t.Helper()
	typ, ok := tt.Lookup(name)
	require.True(t, ok, name)
	return typ
}

func TestIsExact(t *testing.T) {
	tt := throwables()
	ae := mustLookup(t, tt, "java.lang.AssertionError")
	assert.True(t, ae.Is("java.lang.AssertionError"))
	assert.False(t, ae.Is("java.lang.Error"))
}

func TestIsSubtypeOfReflexiveAndTransitive(t *testing.T) {
	tt := throwables()
	afe := mustLookup(t, tt, "junit.framework.AssertionFailedError")
	assert.True(t, afe.IsSubtypeOf("junit.framework.AssertionFailedError"))
	assert.True(t, afe.IsSubtypeOf("java.lang.AssertionError"))
	assert.True(t, afe.IsSubtypeOf("java.lang.Throwable"))
	assert.True(t, afe.IsSubtypeOf("java.lang.Object"))
	assert.False(t, afe.IsSubtypeOf("java.lang.Exception"))

	ise := mustLookup(t, tt, "java.lang.IllegalStateException")
	assert.False(t, ise.IsSubtypeOf("java.lang.AssertionError"))
}

func TestUnknownNeverMatches(t *testing.T) {
	assert.False(t, Unknown.Is(Unknown.Name()))
	assert.False(t, Unknown.IsSubtypeOf("java.lang.Object"))
	var nilType *Type
	assert.True(t, nilType.IsUnknown())
	assert.False(t, nilType.IsSubtypeOf("java.lang.Object"))

	_, ok := throwables().Lookup("com.example.Missing")
	assert.False(t, ok)
}

func TestCyclicHierarchyTerminates(t *testing.T) {
	tt := NewTypeTable()
	tt.Declare("A", "B")
	tt.Declare("B", "C")
	tt.Declare("C", "A")
	a := mustLookup(t, tt, "A")
	assert.True(t, a.IsSubtypeOf("C"))
	assert.False(t, a.IsSubtypeOf("D"))
	assert.Len(t, a.Ancestors(), 3)
}

func TestDeclareIsIdempotent(t *testing.T) {
	tt := NewTypeTable()
	tt.Declare("A", "B")
	tt.Declare("A", "B")
	a := mustLookup(t, tt, "A")
	assert.Len(t, a.Supertypes(), 1)
}

func TestLeastUpperBound(t *testing.T) {
	tt := throwables()
	ae := mustLookup(t, tt, "java.lang.AssertionError")
	oom := mustLookup(t, tt, "java.lang.OutOfMemoryError")
	ise := mustLookup(t, tt, "java.lang.IllegalStateException")

	assert.Equal(t, "java.lang.Error", LeastUpperBound(ae, oom).Name())
	assert.Equal(t, "java.lang.Throwable", LeastUpperBound(ae, ise).Name())
	assert.Same(t, ae, LeastUpperBound(ae))
	assert.True(t, LeastUpperBound(ae, Unknown).IsUnknown())
	assert.True(t, LeastUpperBound().IsUnknown())
}

func TestBuilderSymbolsAndUsages(t *testing.T) {
	decl := tree.NewNode(tree.KindCatchParameter, tree.Range{})
	use1 := tree.NewNode(tree.KindIdentifier, tree.Range{}).SetText("e")
	use2 := tree.NewNode(tree.KindIdentifier, tree.Range{}).SetText("e")

	tt := throwables()
	b := NewBuilder(tt)
	sym := b.Declare(decl, "e", mustLookup(t, tt, "java.lang.AssertionError"))
	b.Use(sym, use1)
	b.Use(sym, use2)
	m := b.Build()

	got := m.SymbolOf(decl)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.UsageCount())
	assert.Same(t, got, m.Referent(use1))
	assert.True(t, m.TypeOf(use2).Is("java.lang.AssertionError"))

	// Usages is a copy.
	us := got.Usages()
	us[0] = nil
	assert.NotNil(t, got.Usages()[0])
}

func TestBuilderFrozenAfterBuild(t *testing.T) {
	b := NewBuilder(nil)
	b.Build()
	assert.Panics(t, func() { b.Declare(tree.NewNode(tree.KindParameter, tree.Range{}), "x", nil) })
	assert.Panics(t, func() { b.Build() })
}

func TestQueriesAreStable(t *testing.T) {
	tt := throwables()
	b := NewBuilder(tt)
	decl := tree.NewNode(tree.KindParameter, tree.Range{})
	b.Declare(decl, "p", nil)
	m := b.Build()

	first := m.SymbolOf(decl).UsageCount()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, m.SymbolOf(decl).UsageCount())
		assert.True(t, m.TypeOf(decl).IsUnknown())
	}
}

func TestMethodOfUnresolved(t *testing.T) {
	call := tree.NewNode(tree.KindMethodInvocation, tree.Range{})
	call.Append(tree.RoleName, tree.NewNode(tree.KindIdentifier, tree.Range{}).SetText("fail"))
	m := NewBuilder(nil).Build()
	ref := m.MethodOf(call)
	assert.True(t, ref.Owner.IsUnknown())
	assert.Equal(t, "fail", ref.Name)

	var nilModel *Model
	assert.True(t, nilModel.MethodOf(call).Owner.IsUnknown())
	assert.Nil(t, nilModel.SymbolOf(call))
}
