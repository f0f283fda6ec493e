package javafront

import (
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/assay/internal/tree"
)

// kinds maps tree-sitter-java node types onto tree kinds. Unlisted types lower
// to KindOther and keep their children.
var kinds = map[string]tree.Kind{
	"program":                         tree.KindCompilationUnit,
	"package_declaration":             tree.KindPackageDecl,
	"import_declaration":              tree.KindImportDecl,
	"class_declaration":               tree.KindClassDecl,
	"interface_declaration":           tree.KindClassDecl,
	"enum_declaration":                tree.KindClassDecl,
	"record_declaration":              tree.KindClassDecl,
	"annotation_type_declaration":     tree.KindClassDecl,
	"class_body":                      tree.KindClassBody,
	"interface_body":                  tree.KindClassBody,
	"enum_body":                       tree.KindClassBody,
	"annotation_type_body":            tree.KindClassBody,
	"field_declaration":               tree.KindFieldDecl,
	"constant_declaration":            tree.KindFieldDecl,
	"method_declaration":              tree.KindMethodDecl,
	"constructor_declaration":         tree.KindConstructorDecl,
	"compact_constructor_declaration": tree.KindConstructorDecl,
	"formal_parameters":               tree.KindParameters,
	"formal_parameter":                tree.KindParameter,
	"spread_parameter":                tree.KindParameter,
	"block":                           tree.KindBlock,
	"constructor_body":                tree.KindBlock,
	"local_variable_declaration":      tree.KindLocalVariableDecl,
	"variable_declarator":             tree.KindVariableDeclarator,
	"expression_statement":            tree.KindExpressionStatement,
	"if_statement":                    tree.KindIf,
	"for_statement":                   tree.KindFor,
	"enhanced_for_statement":          tree.KindForEach,
	"while_statement":                 tree.KindWhile,
	"do_statement":                    tree.KindDoWhile,
	"switch_statement":                tree.KindSwitch,
	"switch_expression":               tree.KindSwitch,
	"switch_block_statement_group":    tree.KindCaseGroup,
	"switch_rule":                     tree.KindCaseGroup,
	"switch_label":                    tree.KindCaseLabel,
	"return_statement":                tree.KindReturn,
	"throw_statement":                 tree.KindThrow,
	"try_statement":                   tree.KindTryStatement,
	"try_with_resources_statement":    tree.KindTryStatement,
	"resource":                        tree.KindResource,
	"catch_clause":                    tree.KindCatchClause,
	"catch_formal_parameter":          tree.KindCatchParameter,
	"catch_type":                      tree.KindCatchType,
	"finally_clause":                  tree.KindFinally,
	"method_invocation":               tree.KindMethodInvocation,
	"argument_list":                   tree.KindArguments,
	"field_access":                    tree.KindMemberSelect,
	"identifier":                      tree.KindIdentifier,
	"this":                            tree.KindIdentifier,
	"super":                           tree.KindIdentifier,
	"lambda_expression":               tree.KindLambda,
	"object_creation_expression":      tree.KindNewClass,
	"assignment_expression":           tree.KindAssignment,
	"modifiers":                       tree.KindModifiers,
}

// typeNodes are lowered as KindTypeRef leaves carrying their source text.
var typeNodes = map[string]bool{
	"type_identifier":        true,
	"scoped_type_identifier": true,
	"generic_type":           true,
	"array_type":             true,
	"integral_type":          true,
	"floating_point_type":    true,
	"boolean_type":           true,
	"void_type":              true,
}

// leafNodes keep their text and drop their children.
var leafNodes = map[string]tree.Kind{
	"string_literal":                 tree.KindLiteral,
	"text_block":                     tree.KindLiteral,
	"character_literal":              tree.KindLiteral,
	"decimal_integer_literal":        tree.KindLiteral,
	"hex_integer_literal":            tree.KindLiteral,
	"octal_integer_literal":          tree.KindLiteral,
	"binary_integer_literal":         tree.KindLiteral,
	"decimal_floating_point_literal": tree.KindLiteral,
	"hex_floating_point_literal":     tree.KindLiteral,
	"true":                           tree.KindLiteral,
	"false":                          tree.KindLiteral,
	"null_literal":                   tree.KindLiteral,
	"scoped_identifier":              tree.KindOther,
}

// fieldRoles maps tree-sitter field names to child roles.
var fieldRoles = []struct {
	field string
	role  tree.Role
}{
	{"name", tree.RoleName},
	{"type", tree.RoleType},
	{"body", tree.RoleBody},
	{"object", tree.RoleObject},
	{"arguments", tree.RoleArguments},
	{"parameters", tree.RoleParameters},
	{"condition", tree.RoleCondition},
	{"consequence", tree.RoleThen},
	{"alternative", tree.RoleElse},
	{"value", tree.RoleValue},
	{"field", tree.RoleName},
	{"resources", tree.RoleResources},
	{"right", tree.RoleValue},
	{"superclass", tree.RoleSuperclass},
	{"interfaces", tree.RoleInterfaces},
}

type lowerer struct {
	src []byte
	// lineStarts holds the byte offset of each line.
	lineStarts []int
}

func newLowerer(src []byte) *lowerer {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lowerer{src: src, lineStarts: starts}
}

// rangeOf converts tree-sitter byte columns into 1-based character columns.
func (l *lowerer) rangeOf(n *sitter.Node) tree.Range {
	s, e := n.StartPoint(), n.EndPoint()
	return tree.Range{
		Start: tree.Position{Line: int(s.Row) + 1, Column: l.column(s)},
		End:   tree.Position{Line: int(e.Row) + 1, Column: l.column(e)},
	}
}

func (l *lowerer) column(p sitter.Point) int {
	row, col := int(p.Row), int(p.Column)
	if row >= len(l.lineStarts) {
		return col + 1
	}
	start := l.lineStarts[row]
	end := min(start+col, len(l.src))
	return utf8.RuneCount(l.src[start:end]) + 1
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

type spanKey struct {
	start, end uint32
	typ        string
}

func keyOf(n *sitter.Node) spanKey {
	return spanKey{start: n.StartByte(), end: n.EndByte(), typ: n.Type()}
}

// roles resolves which field, if any, each named child of n occupies.
func roles(n *sitter.Node) map[spanKey]tree.Role {
	out := make(map[spanKey]tree.Role)
	for _, fr := range fieldRoles {
		if c := n.ChildByFieldName(fr.field); c != nil {
			if _, taken := out[keyOf(c)]; !taken {
				out[keyOf(c)] = fr.role
			}
		}
	}
	return out
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

func (l *lowerer) lower(n *sitter.Node) *tree.Node {
	typ := n.Type()
	rng := l.rangeOf(n)

	if typeNodes[typ] {
		return tree.NewNode(tree.KindTypeRef, rng).SetText(compact(l.text(n)))
	}
	if k, ok := leafNodes[typ]; ok {
		return tree.NewNode(k, rng).SetText(l.text(n))
	}

	switch typ {
	case "import_declaration":
		return l.lowerImport(n)
	case "package_declaration":
		out := tree.NewNode(tree.KindPackageDecl, rng)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
				out.SetText(l.text(c))
			}
		}
		return out
	case "spread_parameter":
		return l.lowerSpread(n)
	case "lambda_expression":
		return l.lowerLambda(n)
	case "enhanced_for_statement":
		return l.lowerForEach(n)
	case "superclass", "super_interfaces", "extends_interfaces", "type_list":
		// flattened by lowerChildren
		return nil
	}

	kind, ok := kinds[typ]
	if !ok {
		kind = tree.KindOther
	}
	out := tree.NewNode(kind, rng)
	switch kind {
	case tree.KindIdentifier:
		out.SetText(l.text(n))
	case tree.KindCatchType:
		out.SetText(compact(l.text(n)))
	}
	l.lowerChildren(n, out)
	return out
}

func (l *lowerer) lowerChildren(n *sitter.Node, out *tree.Node) {
	fieldOf := roles(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		if isComment(c) {
			out.Set(tree.FlagCommented)
			continue
		}
		switch c.Type() {
		case "superclass":
			l.appendTypes(out, c, tree.RoleSuperclass)
			continue
		case "super_interfaces", "extends_interfaces":
			l.appendTypes(out, c, tree.RoleInterfaces)
			continue
		}
		role := fieldOf[keyOf(c)]
		switch {
		case role == tree.RoleNone && c.Type() == "catch_type":
			role = tree.RoleType
		case role == tree.RoleNone && c.Type() == "finally_clause":
			role = tree.RoleFinally
		case role == tree.RoleNone && c.Type() == "modifiers":
			role = tree.RoleModifiers
		}
		if child := l.lower(c); child != nil {
			out.Append(role, child)
		}
	}
}

// appendTypes flattens superclass / interface lists into TypeRef children.
func (l *lowerer) appendTypes(out *tree.Node, n *sitter.Node, role tree.Role) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case typeNodes[c.Type()]:
			out.Append(role, l.lower(c))
		case c.Type() == "type_list":
			l.appendTypes(out, c, role)
		}
	}
}

func (l *lowerer) lowerImport(n *sitter.Node) *tree.Node {
	out := tree.NewNode(tree.KindImportDecl, l.rangeOf(n))
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "static":
			out.Set(tree.FlagStatic)
		case "asterisk", "*":
			out.Set(tree.FlagWildcard)
		case "scoped_identifier", "identifier":
			out.SetText(l.text(c))
		}
	}
	return out
}

// lowerSpread lowers `Type... name` as a varargs parameter whose name is a
// direct child, like formal parameters.
func (l *lowerer) lowerSpread(n *sitter.Node) *tree.Node {
	out := tree.NewNode(tree.KindParameter, l.rangeOf(n)).Set(tree.FlagVarargs)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case c.Type() == "modifiers":
			out.Append(tree.RoleModifiers, l.lower(c))
		case typeNodes[c.Type()]:
			out.Append(tree.RoleType, l.lower(c))
		case c.Type() == "variable_declarator":
			if name := c.ChildByFieldName("name"); name != nil {
				out.Append(tree.RoleName, l.lower(name))
			}
		case c.Type() == "identifier":
			out.Append(tree.RoleName, l.lower(c))
		}
	}
	return out
}

// lowerLambda normalizes the three parameter shapes into a Parameters node.
func (l *lowerer) lowerLambda(n *sitter.Node) *tree.Node {
	out := tree.NewNode(tree.KindLambda, l.rangeOf(n))
	if ps := n.ChildByFieldName("parameters"); ps != nil {
		params := tree.NewNode(tree.KindParameters, l.rangeOf(ps))
		switch ps.Type() {
		case "identifier":
			params.Append(tree.RoleNone, l.inferredParam(ps))
		case "inferred_parameters":
			for i := 0; i < int(ps.NamedChildCount()); i++ {
				if c := ps.NamedChild(i); c.Type() == "identifier" {
					params.Append(tree.RoleNone, l.inferredParam(c))
				}
			}
		default:
			l.lowerChildren(ps, params)
		}
		out.Append(tree.RoleParameters, params)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		out.Append(tree.RoleBody, l.lower(body))
	}
	return out
}

func (l *lowerer) inferredParam(ident *sitter.Node) *tree.Node {
	p := tree.NewNode(tree.KindParameter, l.rangeOf(ident))
	p.Append(tree.RoleName, l.lower(ident))
	return p
}

// lowerForEach wraps the loop variable into a Parameter so it declares a
// symbol like any other parameter.
func (l *lowerer) lowerForEach(n *sitter.Node) *tree.Node {
	out := tree.NewNode(tree.KindForEach, l.rangeOf(n))
	typ := n.ChildByFieldName("type")
	name := n.ChildByFieldName("name")
	if typ != nil && name != nil {
		rng := l.rangeOf(typ)
		rng.End = l.rangeOf(name).End
		param := tree.NewNode(tree.KindParameter, rng)
		param.Append(tree.RoleType, l.lower(typ))
		param.Append(tree.RoleName, l.lower(name))
		out.Append(tree.RoleParameters, param)
	}
	if value := n.ChildByFieldName("value"); value != nil {
		out.Append(tree.RoleValue, l.lower(value))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		out.Append(tree.RoleBody, l.lower(body))
	}
	return out
}

// compact removes whitespace from type text so `Map< K , V >` resolves like
// `Map<K,V>`.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
