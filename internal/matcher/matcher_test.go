package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chris-regnier/assay/internal/semantic"
	"github.com/chris-regnier/assay/internal/tree"
)

func call(name string, args int) *tree.Node {
	c := tree.NewNode(tree.KindMethodInvocation, tree.Range{})
	c.Append(tree.RoleName, tree.NewNode(tree.KindIdentifier, tree.Range{}).SetText(name))
	argList := tree.NewNode(tree.KindArguments, tree.Range{})
	for i := 0; i < args; i++ {
		argList.Append(tree.RoleNone, tree.NewNode(tree.KindLiteral, tree.Range{}))
	}
	c.Append(tree.RoleArguments, argList)
	return c
}

type fixture struct {
	model *semantic.Model
	calls map[string]*tree.Node
}

func newFixture() fixture {
	tt := semantic.NewTypeTable()
	tt.Declare("org.junit.Assert")
	tt.Declare("org.example.CustomAssert", "org.junit.Assert")
	tt.Declare("org.example.Other")

	calls := map[string]*tree.Node{
		"assertFail0":    call("fail", 0),
		"assertFail2":    call("fail", 2),
		"customFail":     call("fail", 1),
		"otherFail":      call("fail", 1),
		"unknownFail":    call("fail", 1),
		"assertEquals":   call("assertEquals", 2),
		"unrecordedCall": call("fail", 1),
	}

	b := semantic.NewBuilder(tt)
	lookup := func(n string) *semantic.Type { t, _ := tt.Lookup(n); return t }
	b.SetMethod(calls["assertFail0"], semantic.MethodRef{Owner: lookup("org.junit.Assert"), Name: "fail"})
	b.SetMethod(calls["assertFail2"], semantic.MethodRef{Owner: lookup("org.junit.Assert"), Name: "fail"})
	b.SetMethod(calls["customFail"], semantic.MethodRef{Owner: lookup("org.example.CustomAssert"), Name: "fail"})
	b.SetMethod(calls["otherFail"], semantic.MethodRef{Owner: lookup("org.example.Other"), Name: "fail"})
	b.SetMethod(calls["unknownFail"], semantic.MethodRef{Owner: semantic.Unknown, Name: "fail"})
	b.SetMethod(calls["assertEquals"], semantic.MethodRef{Owner: lookup("org.junit.Assert"), Name: "assertEquals"})
	return fixture{model: b.Build(), calls: calls}
}

func TestMatches(t *testing.T) {
	f := newFixture()
	exact := New(Config{OwnerTypes: []string{"org.junit.Assert"}, Names: []string{"fail"}, Arity: AnyArity()})
	subtype := New(Config{OwnerTypes: []string{"org.junit.Assert"}, Names: []string{"fail"}, Arity: AnyArity(), OwnerMatch: Subtype})
	noArgs := New(Config{OwnerTypes: []string{"org.junit.Assert"}, Names: []string{"fail"}, Arity: ExactArity(0)})

	tests := []struct {
		call string
		m    *Matcher
		want bool
	}{
		{"assertFail0", exact, true},
		{"assertFail2", exact, true},
		{"customFail", exact, false},
		{"customFail", subtype, true},
		{"otherFail", subtype, false},
		{"unknownFail", subtype, false},
		{"unrecordedCall", subtype, false},
		{"assertEquals", exact, false},
		{"assertFail0", noArgs, true},
		{"assertFail2", noArgs, false},
	}
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Matches(f.model, f.calls[tt.call]))
		})
	}
}

func TestMatchesRejectsNonCalls(t *testing.T) {
	m := New(Config{OwnerTypes: []string{"org.junit.Assert"}, Names: []string{"fail"}})
	assert.False(t, m.Matches(nil, tree.NewNode(tree.KindIdentifier, tree.Range{})))
	assert.False(t, m.Matches(nil, nil))
}

func TestConfigIsCopied(t *testing.T) {
	f := newFixture()
	owners := []string{"org.junit.Assert"}
	names := []string{"fail"}
	m := New(Config{OwnerTypes: owners, Names: names})
	owners[0] = "changed"
	names[0] = "changed"
	assert.True(t, m.Matches(f.model, f.calls["assertFail0"]))
}
