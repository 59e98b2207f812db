package rstast

// WalkFunc is called for each visited node during a Walk. Returning a
// non-nil error stops the walk immediately.
type WalkFunc func(n *Node) error

// Walk performs a pre-order traversal of the tree rooted at root.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	if err := fn(root); err != nil {
		return err
	}
	for c := root.FirstChild; c != nil; c = c.Next {
		if err := Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// FindAll returns every node in the tree matching predicate, in document order.
func FindAll(root *Node, predicate func(*Node) bool) []*Node {
	var out []*Node
	_ = Walk(root, func(n *Node) error {
		if predicate(n) {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// FindByKind returns every node of the given kind, in document order.
func FindByKind(root *Node, k Kind) []*Node {
	return FindAll(root, func(n *Node) bool { return n.Kind == k })
}

var errStopWalk = stopWalkErr{}

type stopWalkErr struct{}

func (stopWalkErr) Error() string { return "rstast: stop walk" }

// FindFirst returns the first node matching predicate in document order, or
// nil if none match.
func FindFirst(root *Node, predicate func(*Node) bool) *Node {
	var found *Node
	_ = Walk(root, func(n *Node) error {
		if predicate(n) {
			found = n
			return errStopWalk
		}
		return nil
	})
	return found
}
