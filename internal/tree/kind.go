package tree

// Kind tags a Node with the syntactic construct it represents.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindCompilationUnit
	KindPackageDecl
	KindImportDecl
	KindClassDecl
	KindClassBody
	KindFieldDecl
	KindMethodDecl
	KindConstructorDecl
	KindParameters
	KindParameter
	KindBlock
	KindLocalVariableDecl
	KindVariableDeclarator
	KindExpressionStatement
	KindIf
	KindFor
	KindForEach
	KindWhile
	KindDoWhile
	KindSwitch
	KindCaseGroup
	KindCaseLabel
	KindReturn
	KindThrow
	KindTryStatement
	KindResource
	KindCatchClause
	KindCatchParameter
	KindCatchType
	KindFinally
	KindMethodInvocation
	KindArguments
	KindMemberSelect
	KindIdentifier
	KindTypeRef
	KindLambda
	KindNewClass
	KindAssignment
	KindLiteral
	KindModifiers
	KindOther

	numKinds
)

var kindNames = [numKinds]string{
	KindInvalid:             "invalid",
	KindCompilationUnit:     "compilation-unit",
	KindPackageDecl:         "package",
	KindImportDecl:          "import",
	KindClassDecl:           "class",
	KindClassBody:           "class-body",
	KindFieldDecl:           "field",
	KindMethodDecl:          "method",
	KindConstructorDecl:     "constructor",
	KindParameters:          "parameters",
	KindParameter:           "parameter",
	KindBlock:               "block",
	KindLocalVariableDecl:   "local-variable",
	KindVariableDeclarator:  "variable-declarator",
	KindExpressionStatement: "expression-statement",
	KindIf:                  "if",
	KindFor:                 "for",
	KindForEach:             "for-each",
	KindWhile:               "while",
	KindDoWhile:             "do-while",
	KindSwitch:              "switch",
	KindCaseGroup:           "case-group",
	KindCaseLabel:           "case-label",
	KindReturn:              "return",
	KindThrow:               "throw",
	KindTryStatement:        "try",
	KindResource:            "resource",
	KindCatchClause:         "catch",
	KindCatchParameter:      "catch-parameter",
	KindCatchType:           "catch-type",
	KindFinally:             "finally",
	KindMethodInvocation:    "method-invocation",
	KindArguments:           "arguments",
	KindMemberSelect:        "member-select",
	KindIdentifier:          "identifier",
	KindTypeRef:             "type",
	KindLambda:              "lambda",
	KindNewClass:            "new-class",
	KindAssignment:          "assignment",
	KindLiteral:             "literal",
	KindModifiers:           "modifiers",
	KindOther:               "other",
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds other than KindInvalid.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < numKinds
}

// NumKinds is the size of the kind enumeration, usable as an array bound.
const NumKinds = int(numKinds)

// Role names the position a child occupies inside its parent.
type Role uint8

const (
	RoleNone Role = iota
	RoleName
	RoleType
	RoleBody
	RoleObject
	RoleArguments
	RoleParameters
	RoleCondition
	RoleThen
	RoleElse
	RoleFinally
	RoleValue
	RoleSuperclass
	RoleInterfaces
	RoleResources
	RoleModifiers
)
