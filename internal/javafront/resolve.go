package javafront

import (
	"strings"

	"github.com/chris-regnier/assay/internal/semantic"
	"github.com/chris-regnier/assay/internal/tree"
)

// Resolve builds the semantic model of a single file against a fresh baseline
// type table. Names it cannot see (other files, the classpath) resolve to
// semantic.Unknown.
func Resolve(file *tree.File) *semantic.Model {
	types := NewTypeTable()
	b := semantic.NewBuilder(types)
	if file == nil || file.Root == nil {
		return b.Build()
	}
	r := &resolver{
		b:           b,
		types:       types,
		classes:     make(map[*tree.Node]*classInfo),
		bySimple:    make(map[string]string),
		imports:     make(map[string]string),
		statics:     make(map[string]string),
		predeclared: make(map[*tree.Node]bool),
	}
	r.collectHeader(file.Root)
	r.collectClasses(file.Root)
	r.scope = &scope{vars: map[string]*semantic.Symbol{}}
	r.walk(file.Root)
	return b.Build()
}

type classInfo struct {
	typ     *semantic.Type
	methods map[string]bool
	fields  map[string]*semantic.Symbol
}

type scope struct {
	vars   map[string]*semantic.Symbol
	parent *scope
}

func (s *scope) lookup(name string) *semantic.Symbol {
	for ; s != nil; s = s.parent {
		if sym, ok := s.vars[name]; ok {
			return sym
		}
	}
	return nil
}

type resolver struct {
	b     *semantic.Builder
	types *semantic.TypeTable

	pkg         string
	classes     map[*tree.Node]*classInfo
	bySimple    map[string]string // simple or dotted nested name -> qualified
	imports     map[string]string // simple name -> qualified, single-type imports
	wildcards   []string          // on-demand package imports
	statics     map[string]string // member -> owner, single static imports
	staticStars []string          // owners of static on-demand imports

	scope       *scope
	enclosing   []*classInfo
	predeclared map[*tree.Node]bool
}

func (r *resolver) collectHeader(root *tree.Node) {
	for _, c := range root.Children() {
		switch c.Kind() {
		case tree.KindPackageDecl:
			r.pkg = c.Text()
		case tree.KindImportDecl:
			name := c.Text()
			switch {
			case c.Has(tree.FlagStatic) && c.Has(tree.FlagWildcard):
				r.types.Declare(name)
				r.staticStars = append(r.staticStars, name)
			case c.Has(tree.FlagStatic):
				if i := strings.LastIndexByte(name, '.'); i > 0 {
					owner := name[:i]
					r.types.Declare(owner)
					r.statics[name[i+1:]] = owner
				}
			case c.Has(tree.FlagWildcard):
				r.wildcards = append(r.wildcards, name)
			default:
				r.types.Declare(name)
				r.imports[lastSegment(name)] = name
			}
		}
	}
}

// collectClasses declares every named class of the file before any body is
// walked, so forward references and supertypes resolve.
func (r *resolver) collectClasses(root *tree.Node) {
	var decls []*tree.Node
	tree.Inspect(root, func(n *tree.Node) bool {
		if n.Kind() != tree.KindClassDecl {
			return true
		}
		name := n.Child(tree.RoleName)
		if name == nil {
			return true
		}
		nested := name.Text()
		for p := n.Enclosing(tree.KindClassDecl); p != nil; p = p.Enclosing(tree.KindClassDecl) {
			if pn := p.Child(tree.RoleName); pn != nil {
				nested = pn.Text() + "." + nested
			}
		}
		qualified := nested
		if r.pkg != "" {
			qualified = r.pkg + "." + nested
		}
		info := &classInfo{
			typ:     r.types.Declare(qualified),
			methods: make(map[string]bool),
			fields:  make(map[string]*semantic.Symbol),
		}
		r.classes[n] = info
		if _, taken := r.bySimple[name.Text()]; !taken {
			r.bySimple[name.Text()] = qualified
		}
		r.bySimple[nested] = qualified
		decls = append(decls, n)
		return true
	})

	for _, n := range decls {
		info := r.classes[n]
		var supers []string
		for _, c := range n.Children() {
			if c.Role() != tree.RoleSuperclass && c.Role() != tree.RoleInterfaces {
				continue
			}
			if t := r.resolveType(c.Text()); !t.IsUnknown() {
				supers = append(supers, t.Name())
			}
		}
		if len(supers) == 0 && info.typ.Name() != "java.lang.Object" {
			supers = append(supers, "java.lang.Object")
		}
		r.types.Declare(info.typ.Name(), supers...)
		r.collectMembers(n, info)
	}
}

func (r *resolver) collectMembers(cls *tree.Node, info *classInfo) {
	if ps := cls.Child(tree.RoleParameters); ps != nil {
		for _, p := range ps.ChildrenOfKind(tree.KindParameter) {
			r.predeclare(p, info)
		}
	}
	body := cls.Child(tree.RoleBody)
	tree.Inspect(body, func(n *tree.Node) bool {
		switch n.Kind() {
		case tree.KindClassDecl, tree.KindNewClass, tree.KindBlock, tree.KindLambda:
			return false
		case tree.KindMethodDecl:
			if name := n.Child(tree.RoleName); name != nil {
				info.methods[name.Text()] = true
			}
			return false
		case tree.KindConstructorDecl:
			return false
		case tree.KindVariableDeclarator:
			if n.Parent() != nil && n.Parent().Kind() == tree.KindFieldDecl {
				r.predeclare(n, info)
			}
			return false
		}
		return true
	})
}

func (r *resolver) predeclare(decl *tree.Node, info *classInfo) {
	v, _ := tree.AsVariable(decl)
	name := v.Name()
	if name == nil {
		return
	}
	sym := r.b.Declare(decl, name.Text(), r.typeOfNode(v.TypeNode()))
	info.fields[name.Text()] = sym
	r.predeclared[decl] = true
}

func (r *resolver) push() { r.scope = &scope{vars: map[string]*semantic.Symbol{}, parent: r.scope} }
func (r *resolver) pop()  { r.scope = r.scope.parent }

func (r *resolver) walk(n *tree.Node) {
	switch n.Kind() {
	case tree.KindPackageDecl, tree.KindImportDecl, tree.KindModifiers:
		return
	case tree.KindTypeRef:
		r.b.SetType(n, r.resolveType(n.Text()))
		return
	case tree.KindCatchType:
		r.resolveCatchType(n)
		return
	case tree.KindIdentifier:
		r.use(n)
		return
	case tree.KindClassDecl:
		r.walkClass(n)
		return
	case tree.KindMethodDecl, tree.KindConstructorDecl, tree.KindLambda,
		tree.KindCatchClause, tree.KindFor, tree.KindForEach, tree.KindBlock,
		tree.KindTryStatement, tree.KindCaseGroup:
		r.push()
		r.walkChildren(n)
		r.pop()
		return
	case tree.KindParameter, tree.KindCatchParameter, tree.KindVariableDeclarator, tree.KindResource:
		r.declare(n)
		r.walkChildren(n)
		return
	case tree.KindMethodInvocation:
		r.walkChildren(n)
		r.resolveCall(n)
		return
	case tree.KindMemberSelect, tree.KindNewClass:
		r.walkChildren(n)
		if t := r.exprType(n); !t.IsUnknown() {
			r.b.SetType(n, t)
		}
		return
	}
	r.walkChildren(n)
}

func (r *resolver) walkChildren(n *tree.Node) {
	for _, c := range n.Children() {
		r.walk(c)
	}
}

func (r *resolver) walkClass(n *tree.Node) {
	info, ok := r.classes[n]
	if !ok {
		r.walkChildren(n)
		return
	}
	r.enclosing = append(r.enclosing, info)
	r.push()
	for name, sym := range info.fields {
		r.scope.vars[name] = sym
	}
	r.walkChildren(n)
	r.pop()
	r.enclosing = r.enclosing[:len(r.enclosing)-1]
}

func (r *resolver) declare(n *tree.Node) {
	if r.predeclared[n] {
		return
	}
	var name *tree.Node
	var typeNode *tree.Node
	if n.Kind() == tree.KindResource {
		name, typeNode = n.Child(tree.RoleName), n.Child(tree.RoleType)
	} else {
		v, _ := tree.AsVariable(n)
		name, typeNode = v.Name(), v.TypeNode()
	}
	if name == nil {
		return
	}
	sym := r.b.Declare(n, name.Text(), r.typeOfNode(typeNode))
	r.scope.vars[name.Text()] = sym
}

// use binds an identifier occurring as an expression to the innermost
// declaration of its name. Names of declarations, members and calls are not
// usages.
func (r *resolver) use(ident *tree.Node) {
	if ident.Role() == tree.RoleName {
		return
	}
	switch ident.Text() {
	case "this", "super":
		return
	}
	if sym := r.scope.lookup(ident.Text()); sym != nil {
		r.b.Use(sym, ident)
	}
}

func (r *resolver) resolveCatchType(n *tree.Node) {
	var alts []*semantic.Type
	for _, c := range n.ChildrenOfKind(tree.KindTypeRef) {
		t := r.resolveType(c.Text())
		r.b.SetType(c, t)
		alts = append(alts, t)
	}
	switch len(alts) {
	case 0:
		r.b.SetType(n, r.resolveType(n.Text()))
	case 1:
		r.b.SetType(n, alts[0])
	default:
		r.b.SetType(n, semantic.LeastUpperBound(alts...))
	}
}

// typeOfNode resolves a declared type node. Catch types are resolved eagerly
// since the parameter is declared before its children are walked.
func (r *resolver) typeOfNode(n *tree.Node) *semantic.Type {
	if n == nil {
		return semantic.Unknown
	}
	if n.Kind() == tree.KindCatchType {
		var alts []*semantic.Type
		for _, c := range n.ChildrenOfKind(tree.KindTypeRef) {
			alts = append(alts, r.resolveType(c.Text()))
		}
		if len(alts) == 0 {
			return r.resolveType(n.Text())
		}
		return semantic.LeastUpperBound(alts...)
	}
	return r.resolveType(n.Text())
}

func (r *resolver) resolveCall(call *tree.Node) {
	inv, _ := tree.AsInvocation(call)
	nameNode := inv.Name()
	if nameNode == nil {
		return
	}
	name := nameNode.Text()
	var owner *semantic.Type
	if obj, ok := inv.Object(); ok {
		owner = r.declaringOwner(r.exprType(obj), name)
	} else {
		owner = r.unqualifiedOwner(name)
	}
	r.b.SetMethod(call, semantic.MethodRef{Owner: owner, Name: name})
}

// declaringOwner maps a receiver type to the type that declares name, so a
// call through a subclass of a known owner resolves to that owner.
func (r *resolver) declaringOwner(owner *semantic.Type, name string) *semantic.Type {
	if owner.IsUnknown() || declaresStatic(owner.Name(), name) {
		return owner
	}
	for _, cls := range r.classes {
		if cls.typ == owner && cls.methods[name] {
			return owner
		}
	}
	for _, anc := range owner.Ancestors()[1:] {
		if declaresStatic(anc.Name(), name) {
			return anc
		}
	}
	return owner
}

// unqualifiedOwner follows Java's lookup order for a bare call: members of
// the enclosing classes (declared or inherited from a known owner), then
// single static imports, then static on-demand imports.
func (r *resolver) unqualifiedOwner(name string) *semantic.Type {
	for i := len(r.enclosing) - 1; i >= 0; i-- {
		cls := r.enclosing[i]
		if cls.methods[name] {
			return cls.typ
		}
		for _, anc := range cls.typ.Ancestors()[1:] {
			if declaresStatic(anc.Name(), name) {
				return anc
			}
		}
	}
	if owner, ok := r.statics[name]; ok {
		t, _ := r.types.Lookup(owner)
		return t
	}
	for _, owner := range r.staticStars {
		if declaresStatic(owner, name) {
			t, _ := r.types.Lookup(owner)
			return t
		}
	}
	return semantic.Unknown
}

// exprType is the static type of a receiver expression, or the type it names
// when the expression is a (possibly qualified) type name.
func (r *resolver) exprType(e *tree.Node) *semantic.Type {
	switch e.Kind() {
	case tree.KindIdentifier:
		switch e.Text() {
		case "this":
			return r.currentClass()
		case "super":
			if supers := r.currentClass().Supertypes(); len(supers) > 0 {
				return supers[0]
			}
			return semantic.Unknown
		}
		if sym := r.scope.lookup(e.Text()); sym != nil {
			return sym.Type()
		}
		return r.resolveType(e.Text())
	case tree.KindMemberSelect:
		if dotted, ok := dottedName(e); ok {
			if first := dotted[:strings.IndexByte(dotted+".", '.')]; r.scope.lookup(first) == nil {
				return r.resolveType(dotted)
			}
		}
		obj, name := e.Child(tree.RoleObject), e.Child(tree.RoleName)
		if obj != nil && name != nil && obj.Kind() == tree.KindIdentifier && obj.Text() == "this" {
			if cls := r.currentInfo(); cls != nil {
				if sym, ok := cls.fields[name.Text()]; ok {
					return sym.Type()
				}
			}
		}
		return semantic.Unknown
	case tree.KindNewClass:
		return r.typeOfNode(e.Child(tree.RoleType))
	case tree.KindLiteral:
		if strings.HasPrefix(e.Text(), `"`) {
			t, _ := r.types.Lookup("java.lang.String")
			return t
		}
	}
	return semantic.Unknown
}

func (r *resolver) currentInfo() *classInfo {
	if len(r.enclosing) == 0 {
		return nil
	}
	return r.enclosing[len(r.enclosing)-1]
}

func (r *resolver) currentClass() *semantic.Type {
	if cls := r.currentInfo(); cls != nil {
		return cls.typ
	}
	return semantic.Unknown
}

// resolveType maps source type text to a known type. Generic arguments and
// array brackets are ignored.
func (r *resolver) resolveType(text string) *semantic.Type {
	name := erase(text)
	if name == "" {
		return semantic.Unknown
	}
	if primitives[name] {
		return r.types.Declare(name)
	}
	if !strings.Contains(name, ".") {
		return r.resolveSimple(name)
	}
	if q, ok := r.bySimple[name]; ok {
		t, _ := r.types.Lookup(q)
		return t
	}
	if t, ok := r.types.Lookup(name); ok {
		return t
	}
	// Outer.Inner where Outer is itself imported or known.
	i := strings.IndexByte(name, '.')
	head := r.resolveSimple(name[:i])
	if head.IsUnknown() {
		return semantic.Unknown
	}
	t, _ := r.types.Lookup(head.Name() + name[i:])
	return t
}

func (r *resolver) resolveSimple(name string) *semantic.Type {
	if q, ok := r.bySimple[name]; ok {
		t, _ := r.types.Lookup(q)
		return t
	}
	if q, ok := r.imports[name]; ok {
		t, _ := r.types.Lookup(q)
		return t
	}
	candidates := []string{"java.lang." + name}
	if r.pkg != "" {
		candidates = append([]string{r.pkg + "." + name}, candidates...)
	}
	for _, w := range r.wildcards {
		candidates = append(candidates, w+"."+name)
	}
	for _, c := range candidates {
		if t, ok := r.types.Lookup(c); ok {
			return t
		}
	}
	return semantic.Unknown
}

// erase strips generic arguments and array dimensions.
func erase(text string) string {
	var sb strings.Builder
	depth := 0
	for _, ch := range text {
		switch {
		case ch == '<':
			depth++
		case ch == '>':
			depth--
		case depth > 0:
		case ch == '[' || ch == ']':
		default:
			sb.WriteRune(ch)
		}
	}
	name := sb.String()
	if strings.HasPrefix(name, "@") {
		// "@Ann Type" compacts to "@AnnType"; leave it unresolved.
		return ""
	}
	return strings.TrimSuffix(name, "...")
}

func dottedName(n *tree.Node) (string, bool) {
	switch n.Kind() {
	case tree.KindIdentifier:
		return n.Text(), n.Text() != "this" && n.Text() != "super"
	case tree.KindMemberSelect:
		obj, name := n.Child(tree.RoleObject), n.Child(tree.RoleName)
		if obj == nil || name == nil {
			return "", false
		}
		head, ok := dottedName(obj)
		if !ok {
			return "", false
		}
		return head + "." + name.Text(), true
	}
	return "", false
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
