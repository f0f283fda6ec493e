package tree

// Inspect walks the subtree rooted at root depth-first in source order, calling
// fn for each node. Descent is opt-in: the children of n are visited only when
// fn(n) returns true.
func Inspect(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for _, c := range root.children {
		Inspect(c, fn)
	}
}

// Find returns the first node in source order under root (inclusive) for which
// match returns true, descending everywhere.
func Find(root *Node, match func(*Node) bool) *Node {
	var found *Node
	Inspect(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}
