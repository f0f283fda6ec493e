package javafront

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/assay/internal/semantic"
	"github.com/chris-regnier/assay/internal/tree"
)

func parse(t *testing.T, src string) (*tree.File, *semantic.Model) {
	t.Helper()
	f, err := NewParser(nil).Parse(context.Background(), "Sample.java", []byte(src))
	require.NoError(t, err)
	return f, Resolve(f)
}

func findKind(root *tree.Node, k tree.Kind, nth int) *tree.Node {
	var out *tree.Node
	seen := 0
	tree.Inspect(root, func(n *tree.Node) bool {
		if out != nil {
			return false
		}
		if n.Kind() == k {
			if seen == nth {
				out = n
				return false
			}
			seen++
		}
		return true
	})
	return out
}

func callNamed(root *tree.Node, name string) *tree.Node {
	return tree.Find(root, func(n *tree.Node) bool {
		inv, ok := tree.AsInvocation(n)
		return ok && inv.Name() != nil && inv.Name().Text() == name
	})
}

// ---------------------------------------------------------------------------
// Lowering
// ---------------------------------------------------------------------------

func TestDetect(t *testing.T) {
	assert.True(t, Detect("src/Foo.java"))
	assert.True(t, Detect("Foo.JAVA"))
	assert.False(t, Detect("foo.go"))
	assert.False(t, Detect("java"))
}

func TestLowerTryStatement(t *testing.T) {
	src := `class A {
  void m() {
    try {
      fail("x");
    } catch (IllegalStateException | AssertionError e) {
    } finally {
      done();
    }
  }
}
`
	f, _ := parse(t, src)
	assert.Equal(t, tree.KindCompilationUnit, f.Root.Kind())

	try, ok := tree.AsTry(findKind(f.Root, tree.KindTryStatement, 0))
	require.True(t, ok)
	require.NotNil(t, try.Body())
	assert.Equal(t, tree.KindBlock, try.Body().Kind())
	_, hasFinally := try.Finally()
	assert.True(t, hasFinally)

	catches := try.Catches()
	require.Len(t, catches, 1)
	param := catches[0].Parameter()
	require.NotNil(t, param.Node)
	assert.Equal(t, "e", param.Name().Text())
	typ := param.TypeNode()
	require.NotNil(t, typ)
	assert.Equal(t, tree.KindCatchType, typ.Kind())
	assert.Equal(t, "IllegalStateException|AssertionError", typ.Text())
	assert.Len(t, typ.ChildrenOfKind(tree.KindTypeRef), 2)
}

func TestLowerInvocationColumns(t *testing.T) {
	src := "class A {\n  void m() {\n      fail(\"x\");\n      org.junit.Assert.fail();\n  }\n}\n"
	f, _ := parse(t, src)

	first, ok := tree.AsInvocation(findKind(f.Root, tree.KindMethodInvocation, 0))
	require.True(t, ok)
	name := first.Name()
	assert.Equal(t, tree.Range{
		Start: tree.Position{Line: 3, Column: 7},
		End:   tree.Position{Line: 3, Column: 11},
	}, name.Range())
	_, hasObj := first.Object()
	assert.False(t, hasObj)

	second, ok := tree.AsInvocation(findKind(f.Root, tree.KindMethodInvocation, 1))
	require.True(t, ok)
	assert.Equal(t, 24, second.Name().Range().Start.Column)
	assert.Equal(t, 28, second.Name().Range().End.Column)
	obj, hasObj := second.Object()
	require.True(t, hasObj)
	assert.Equal(t, tree.KindMemberSelect, obj.Kind())
}

func TestLowerColumnsCountCharacters(t *testing.T) {
	src := "class A {\n  void m() {\n    String s = \"ééé\"; fail(s);\n  }\n}\n"
	f, _ := parse(t, src)

	call, ok := tree.AsInvocation(callNamed(f.Root, "fail"))
	require.True(t, ok)
	// "ééé" is six bytes but three characters
	assert.Equal(t, tree.Range{
		Start: tree.Position{Line: 3, Column: 23},
		End:   tree.Position{Line: 3, Column: 27},
	}, call.Name().Range())
}

func TestLowerSwitchAndResources(t *testing.T) {
	src := `class A {
  void m(int x) throws Exception {
    switch (x) {
      case 1:
      case 2:
        go();
        break;
      default:
        stop();
    }
    try (java.io.StringReader a = new java.io.StringReader("a");
         java.io.StringReader b = new java.io.StringReader("b")) {
      a.read();
    }
  }
}
`
	f, _ := parse(t, src)

	first, ok := tree.AsCaseGroup(findKind(f.Root, tree.KindCaseGroup, 0))
	require.True(t, ok)
	assert.Len(t, first.Labels(), 2)
	require.Len(t, first.Body(), 2)
	assert.Equal(t, 6, first.Body()[0].Range().Start.Line)

	second, ok := tree.AsCaseGroup(findKind(f.Root, tree.KindCaseGroup, 1))
	require.True(t, ok)
	assert.Len(t, second.Labels(), 1)
	assert.Len(t, second.Body(), 1)

	try, ok := tree.AsTry(findKind(f.Root, tree.KindTryStatement, 0))
	require.True(t, ok)
	res := try.Resources()
	require.Len(t, res, 2)
	assert.Equal(t, tree.KindResource, res[0].Kind())
	assert.Equal(t, 12, res[1].Range().Start.Line)
}

func TestLowerMethodsAndLambdas(t *testing.T) {
	src := `class A {
  A(int x) {}
  String name(int a, String... rest) { return ""; }
  void run() { Runnable r = () -> go(); list.forEach(v -> use(v)); for (String s : items) {} }
}
`
	f, _ := parse(t, src)

	ctor, ok := tree.AsMethod(findKind(f.Root, tree.KindConstructorDecl, 0))
	require.True(t, ok)
	assert.True(t, ctor.IsConstructor())
	_, hasRet := ctor.ReturnType()
	assert.False(t, hasRet)

	m, ok := tree.AsMethod(findKind(f.Root, tree.KindMethodDecl, 0))
	require.True(t, ok)
	assert.Equal(t, "name", m.Name().Text())
	ret, hasRet := m.ReturnType()
	require.True(t, hasRet)
	assert.Equal(t, "String", ret.Text())
	params := m.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].Name().Text())
	assert.True(t, params[1].Has(tree.FlagVarargs))
	assert.Equal(t, "rest", params[1].Name().Text())

	lambda := findKind(f.Root, tree.KindLambda, 1)
	require.NotNil(t, lambda)
	ps := lambda.Child(tree.RoleParameters)
	require.NotNil(t, ps)
	require.Len(t, ps.Children(), 1)
	assert.Equal(t, "v", ps.Children()[0].Child(tree.RoleName).Text())

	each := findKind(f.Root, tree.KindForEach, 0)
	require.NotNil(t, each)
	loopVar, ok := tree.AsVariable(each.Child(tree.RoleParameters))
	require.True(t, ok)
	assert.Equal(t, "s", loopVar.Name().Text())
}

func TestLowerImports(t *testing.T) {
	src := `package p.q;
import java.util.List;
import java.io.*;
import static org.junit.Assert.fail;
import static org.junit.jupiter.api.Assertions.*;
class A {}
`
	f, _ := parse(t, src)
	pkg := findKind(f.Root, tree.KindPackageDecl, 0)
	require.NotNil(t, pkg)
	assert.Equal(t, "p.q", pkg.Text())

	imports := f.Root.ChildrenOfKind(tree.KindImportDecl)
	require.Len(t, imports, 4)
	assert.Equal(t, "java.util.List", imports[0].Text())
	assert.False(t, imports[0].Has(tree.FlagStatic))
	assert.True(t, imports[1].Has(tree.FlagWildcard))
	assert.Equal(t, "org.junit.Assert.fail", imports[2].Text())
	assert.True(t, imports[2].Has(tree.FlagStatic))
	assert.True(t, imports[3].Has(tree.FlagStatic|tree.FlagWildcard))
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

func TestResolveCatchParameterTypes(t *testing.T) {
	src := `import junit.framework.AssertionFailedError;
class A {
  void m() {
    try {} catch (AssertionError e) {}
    try {} catch (AssertionFailedError e) {}
    try {} catch (AssertionError | OutOfMemoryError e) {}
    try {} catch (com.acme.Missing e) {}
  }
}
`
	f, model := parse(t, src)

	tests := []struct {
		nth  int
		want string
	}{
		{0, "java.lang.AssertionError"},
		{1, "junit.framework.AssertionFailedError"},
		{2, "java.lang.Error"},
	}
	for _, tt := range tests {
		param := findKind(f.Root, tree.KindCatchParameter, tt.nth)
		require.NotNil(t, param)
		sym := model.SymbolOf(param)
		require.NotNil(t, sym)
		assert.Equal(t, tt.want, sym.Type().Name())
		v, _ := tree.AsVariable(param)
		assert.Equal(t, tt.want, model.TypeOf(v.TypeNode()).Name())
	}

	afe := model.SymbolOf(findKind(f.Root, tree.KindCatchParameter, 1)).Type()
	assert.True(t, afe.IsSubtypeOf("java.lang.AssertionError"))

	missing := model.SymbolOf(findKind(f.Root, tree.KindCatchParameter, 3))
	require.NotNil(t, missing)
	assert.True(t, missing.Type().IsUnknown())
}

func TestResolveUsagesRespectScopes(t *testing.T) {
	src := `class A {
  int e;
  void m() {
    try {} catch (AssertionError error) {
      Object e = "x";
      use(e.toString());
    }
    try {} catch (AssertionError e) {
      use(e.getMessage());
    }
    use(e);
  }
}
`
	f, model := parse(t, src)

	unused := model.SymbolOf(findKind(f.Root, tree.KindCatchParameter, 0))
	require.NotNil(t, unused)
	assert.Equal(t, "error", unused.Name())
	assert.Zero(t, unused.UsageCount())

	used := model.SymbolOf(findKind(f.Root, tree.KindCatchParameter, 1))
	require.NotNil(t, used)
	assert.Equal(t, 1, used.UsageCount())
	assert.Equal(t, 9, used.Usages()[0].Range().Start.Line)

	field := model.SymbolOf(findKind(f.Root, tree.KindVariableDeclarator, 0))
	require.NotNil(t, field)
	assert.Equal(t, "e", field.Name())
	require.Equal(t, 1, field.UsageCount())
	assert.Equal(t, 11, field.Usages()[0].Range().Start.Line)

	local := model.SymbolOf(findKind(f.Root, tree.KindVariableDeclarator, 1))
	require.NotNil(t, local)
	assert.Equal(t, 1, local.UsageCount())
	assert.Same(t, local, model.Referent(local.Usages()[0]))
}

func TestResolveLambdaParameterShadowing(t *testing.T) {
	src := `class A {
  void m() {
    try {} catch (Error e) {
      run(e2 -> e2.foo());
    }
  }
}
`
	f, model := parse(t, src)
	catchSym := model.SymbolOf(findKind(f.Root, tree.KindCatchParameter, 0))
	require.NotNil(t, catchSym)
	assert.Zero(t, catchSym.UsageCount())

	lambdaParam := findKind(findKind(f.Root, tree.KindLambda, 0), tree.KindParameter, 0)
	require.NotNil(t, lambdaParam)
	assert.Equal(t, 1, model.SymbolOf(lambdaParam).UsageCount())
}

func TestResolveMethodOwners(t *testing.T) {
	src := `package checks;
import org.junit.Assert;
import static org.junit.jupiter.api.Assertions.fail;
import static org.hamcrest.core.Is.*;
class A {
  void m() {
    fail("a");
    org.junit.Assert.fail("b");
    Assert.assertThat(x, is("y"));
    helper();
    new A().helper();
    this.helper();
    unknownCall();
    Mystery.fail();
  }
  void helper() {}
}
`
	f, model := parse(t, src)

	tests := []struct {
		call  string
		nth   int
		owner string
	}{
		{"fail", 0, "org.junit.jupiter.api.Assertions"},
		{"assertThat", 0, "org.junit.Assert"},
		{"is", 0, "org.hamcrest.core.Is"},
	}
	for _, tt := range tests {
		call := callNamed(f.Root, tt.call)
		require.NotNil(t, call, tt.call)
		ref := model.MethodOf(call)
		assert.Equal(t, tt.owner, ref.Owner.Name(), tt.call)
		assert.Equal(t, tt.call, ref.Name)
	}

	var owners []string
	tree.Inspect(f.Root, func(n *tree.Node) bool {
		if n.Kind() == tree.KindMethodInvocation {
			owners = append(owners, model.MethodOf(n).Owner.Name())
		}
		return true
	})
	assert.Equal(t, []string{
		"org.junit.jupiter.api.Assertions",
		"org.junit.Assert",
		"org.junit.Assert",
		"org.hamcrest.core.Is",
		"checks.A",
		"checks.A",
		"checks.A",
		semantic.Unknown.Name(),
		semantic.Unknown.Name(),
	}, owners)
}

func TestResolveCallThroughSubclass(t *testing.T) {
	src := `package checks;
import org.junit.Assert;
class MyAsserts extends Assert {
  static void check() {}
}
class A {
  void m() {
    MyAsserts.fail("x");
    MyAsserts.check();
  }
}
`
	f, model := parse(t, src)
	assert.Equal(t, "org.junit.Assert", model.MethodOf(callNamed(f.Root, "fail")).Owner.Name())
	assert.Equal(t, "checks.MyAsserts", model.MethodOf(callNamed(f.Root, "check")).Owner.Name())
}

func TestResolveClassHierarchy(t *testing.T) {
	src := `package p;
class Base extends RuntimeException {}
class Child extends Base implements Runnable {
  static class Inner extends Child {}
}
`
	_, model := parse(t, src)
	types := model.Types()

	inner, ok := types.Lookup("p.Child.Inner")
	require.True(t, ok)
	assert.True(t, inner.IsSubtypeOf("p.Base"))
	assert.True(t, inner.IsSubtypeOf("java.lang.RuntimeException"))
	assert.True(t, inner.IsSubtypeOf("java.lang.Runnable"))
	assert.False(t, inner.IsSubtypeOf("java.lang.Error"))

	base, ok := types.Lookup("p.Base")
	require.True(t, ok)
	assert.Equal(t, []string{"java.lang.RuntimeException"}, names(base.Supertypes()))
}

func TestResolveNilFile(t *testing.T) {
	model := Resolve(nil)
	require.NotNil(t, model)
	assert.True(t, model.TypeOf(nil).IsUnknown())
}

func TestEraseType(t *testing.T) {
	assert.Equal(t, "List", erase("List<Map<String,Integer>>"))
	assert.Equal(t, "String", erase("String[][]"))
	assert.Equal(t, "java.util.Map.Entry", erase("java.util.Map.Entry<K,V>"))
	assert.Equal(t, "", erase("@NonNullString"))
}

func names(types []*semantic.Type) []string {
	var out []string
	for _, t := range types {
		out = append(out, t.Name())
	}
	return out
}
