// Package tree is the typed syntax-tree model rules inspect. Trees are built by a
// frontend (see internal/javafront) and are read-only once handed to analysis.
package tree

import "fmt"

// Position is a 1-based line and 1-based column in the source text.
type Position struct {
	Line   int
	Column int
}

// Range spans Start (inclusive) to End (exclusive column) in the source text.
type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Column, r.End.Line, r.End.Column)
}

// Contains reports whether other lies within r.
func (r Range) Contains(other Range) bool {
	return !before(other.Start, r.Start) && !before(r.End, other.End)
}

func before(a, b Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

// Flag carries boolean attributes a frontend attaches to a node.
type Flag uint8

const (
	FlagStatic Flag = 1 << iota
	FlagWildcard
	FlagVarargs
	// FlagCommented marks a node that had comments among its children; the
	// comments themselves are not part of the tree.
	FlagCommented
)

// Node is a single syntax node. Children are owned; Parent is a back-reference.
type Node struct {
	kind     Kind
	role     Role
	rng      Range
	text     string
	flags    Flag
	parent   *Node
	children []*Node
}

// NewNode creates a detached node.
func NewNode(kind Kind, rng Range) *Node {
	return &Node{kind: kind, rng: rng}
}

func (n *Node) Kind() Kind      { return n.kind }
func (n *Node) Role() Role      { return n.role }
func (n *Node) Range() Range    { return n.rng }
func (n *Node) Parent() *Node   { return n.parent }
func (n *Node) Text() string    { return n.text }
func (n *Node) Has(f Flag) bool { return n.flags&f != 0 }

// Children returns the children in source order. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Child returns the first child with the given role, or nil when absent.
func (n *Node) Child(role Role) *Node {
	for _, c := range n.children {
		if c.role == role {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns the direct children of the given kind.
func (n *Node) ChildrenOfKind(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Append attaches child under n with the given role. A node may have only one
// parent; appending an attached node or n itself panics.
func (n *Node) Append(role Role, child *Node) *Node {
	if child == nil {
		return n
	}
	if child.parent != nil {
		panic(fmt.Sprintf("tree: %s node at %s already has a parent", child.kind, child.rng))
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			panic("tree: appending an ancestor would create a cycle")
		}
	}
	child.parent = n
	child.role = role
	n.children = append(n.children, child)
	return n
}

// SetText records the token text of a leaf (identifier name, literal, import path).
func (n *Node) SetText(s string) *Node {
	n.text = s
	return n
}

// Set turns on the given flags.
func (n *Node) Set(f Flag) *Node {
	n.flags |= f
	return n
}

// Enclosing returns the nearest proper ancestor whose kind is one of kinds.
func (n *Node) Enclosing(kinds ...Kind) *Node {
	for p := n.parent; p != nil; p = p.parent {
		for _, k := range kinds {
			if p.kind == k {
				return p
			}
		}
	}
	return nil
}

func (n *Node) String() string {
	if n.text != "" {
		return fmt.Sprintf("%s(%q)@%s", n.kind, n.text, n.rng)
	}
	return fmt.Sprintf("%s@%s", n.kind, n.rng)
}

// File is one parsed source file.
type File struct {
	Path   string
	Source []byte
	Root   *Node
}
