package tree

// The views below group accessors by capability. Each wraps a *Node of the
// matching kind and is obtained through the AsXxx constructors.

// TryStatement is a try or try-with-resources statement.
type TryStatement struct{ *Node }

func AsTry(n *Node) (TryStatement, bool) {
	if n == nil || n.kind != KindTryStatement {
		return TryStatement{}, false
	}
	return TryStatement{n}, true
}

// Body is the protected block, distinct from every catch and finally block.
func (t TryStatement) Body() *Node { return t.Child(RoleBody) }

// Resources returns the resource declarations of a try-with-resources.
func (t TryStatement) Resources() []*Node {
	if rs := t.Child(RoleResources); rs != nil {
		return rs.children
	}
	return nil
}

// Catches returns the catch clauses in source order.
func (t TryStatement) Catches() []CatchClause {
	var out []CatchClause
	for _, c := range t.children {
		if c.kind == KindCatchClause {
			out = append(out, CatchClause{c})
		}
	}
	return out
}

func (t TryStatement) Finally() (*Node, bool) {
	f := t.Child(RoleFinally)
	return f, f != nil
}

// CatchClause is one catch of a try statement.
type CatchClause struct{ *Node }

func AsCatch(n *Node) (CatchClause, bool) {
	if n == nil || n.kind != KindCatchClause {
		return CatchClause{}, false
	}
	return CatchClause{n}, true
}

func (c CatchClause) Parameter() Variable {
	for _, ch := range c.children {
		if ch.kind == KindCatchParameter {
			return Variable{ch}
		}
	}
	return Variable{}
}

func (c CatchClause) Body() *Node { return c.Child(RoleBody) }

// Variable covers the declarations that introduce a named, typed symbol:
// parameters, catch parameters, local and field declarators.
type Variable struct{ *Node }

func AsVariable(n *Node) (Variable, bool) {
	if n == nil {
		return Variable{}, false
	}
	switch n.kind {
	case KindParameter, KindCatchParameter, KindVariableDeclarator:
		return Variable{n}, true
	}
	return Variable{}, false
}

func (v Variable) Name() *Node {
	if v.Node == nil {
		return nil
	}
	return v.Child(RoleName)
}

// TypeNode is the declared type. For declarators the type lives on the
// enclosing declaration and is looked up there.
func (v Variable) TypeNode() *Node {
	if v.Node == nil {
		return nil
	}
	if t := v.Child(RoleType); t != nil {
		return t
	}
	if v.kind == KindVariableDeclarator && v.parent != nil {
		return v.parent.Child(RoleType)
	}
	return nil
}

// MethodInvocation is a call expression.
type MethodInvocation struct{ *Node }

func AsInvocation(n *Node) (MethodInvocation, bool) {
	if n == nil || n.kind != KindMethodInvocation {
		return MethodInvocation{}, false
	}
	return MethodInvocation{n}, true
}

// Name is the call-site identifier.
func (m MethodInvocation) Name() *Node { return m.Child(RoleName) }

func (m MethodInvocation) Object() (*Node, bool) {
	o := m.Child(RoleObject)
	return o, o != nil
}

func (m MethodInvocation) Arguments() []*Node {
	if a := m.Child(RoleArguments); a != nil {
		return a.children
	}
	return nil
}

// Method is a method or constructor declaration.
type Method struct{ *Node }

func AsMethod(n *Node) (Method, bool) {
	if n == nil || (n.kind != KindMethodDecl && n.kind != KindConstructorDecl) {
		return Method{}, false
	}
	return Method{n}, true
}

func (m Method) Name() *Node { return m.Child(RoleName) }

// ReturnType is absent for constructors.
func (m Method) ReturnType() (*Node, bool) {
	if m.kind == KindConstructorDecl {
		return nil, false
	}
	t := m.Child(RoleType)
	return t, t != nil
}

func (m Method) IsConstructor() bool { return m.kind == KindConstructorDecl }

func (m Method) Parameters() []Variable {
	ps := m.Child(RoleParameters)
	if ps == nil {
		return nil
	}
	var out []Variable
	for _, c := range ps.children {
		if c.kind == KindParameter {
			out = append(out, Variable{c})
		}
	}
	return out
}

// Body is absent for abstract and interface methods.
func (m Method) Body() (*Node, bool) {
	b := m.Child(RoleBody)
	return b, b != nil
}

// CaseGroup is one group of case labels and the statements they share.
type CaseGroup struct{ *Node }

func AsCaseGroup(n *Node) (CaseGroup, bool) {
	if n == nil || n.kind != KindCaseGroup {
		return CaseGroup{}, false
	}
	return CaseGroup{n}, true
}

func (g CaseGroup) Labels() []*Node { return g.ChildrenOfKind(KindCaseLabel) }

// Body returns the statements following the labels.
func (g CaseGroup) Body() []*Node {
	var out []*Node
	for _, c := range g.children {
		if c.kind != KindCaseLabel {
			out = append(out, c)
		}
	}
	return out
}
