package ast

// Walk visits n and every node reachable from it in document order:
// open-tag contents first, then attribute values, then children, then
// directive branches. fn returning false prunes the subtree below the
// current node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, open := range n.Open {
		Walk(open, fn)
	}
	for _, val := range n.Value {
		Walk(val, fn)
	}
	for _, child := range n.Children {
		Walk(child, fn)
	}
	for _, br := range n.Branches {
		for _, child := range br.Children {
			Walk(child, fn)
		}
	}
}

// EachChildList calls fn once for every child slice owned by n (element
// children, open-tag contents, attribute values, branch bodies). fn may
// return a replacement slice; passes use this to splice, drop, and merge
// siblings without knowing which structural slot they sit in.
func EachChildList(n *Node, fn func(children []*Node) []*Node) {
	if n == nil {
		return
	}
	if n.Open != nil {
		n.Open = fn(n.Open)
	}
	if n.Value != nil {
		n.Value = fn(n.Value)
	}
	if n.Children != nil {
		n.Children = fn(n.Children)
	}
	for _, br := range n.Branches {
		if br.Children != nil {
			br.Children = fn(br.Children)
		}
	}
}
