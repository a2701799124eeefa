package comet

// Role classifies a Node the way the DOM classifies elements for the
// interactive-target check.
type Role uint8

const (
	RoleGeneric    Role = iota // plain container or block (div, section)
	RoleText                   // static text
	RoleImage                  // static image
	RoleLink                   // a
	RoleButton                 // button
	RoleInput                  // input
	RoleSelect                 // select
	RoleTextArea               // textarea
	RoleButtonLike             // any element with role="button"
)

// interactive reports whether the role is one of the hover target roles.
func (r Role) interactive() bool {
	switch r {
	case RoleLink, RoleButton, RoleInput, RoleSelect, RoleTextArea, RoleButtonLike:
		return true
	}
	return false
}

// nodeIDCounter is a plain counter; nodes are only built on the host goroutine.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is an element of the hosted view. Nodes form a tree rooted at
// Host.Root; X and Y are offsets from the parent. A node is hit-testable
// when it has a HitShape or a non-zero Width/Height.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Role Role

	// CursorInteractive opts a node into the hover cue regardless of Role.
	CursorInteractive bool

	// Hierarchy
	parent   *Node
	children []*Node

	// Layout (local)
	X, Y          float64
	Width, Height float64

	// Appearance; a zero alpha draws nothing.
	Color   Color
	Visible bool

	// Hit testing
	HitShape HitShape

	UserData any

	disposed bool
}

// NewNode creates a visible node with the given role.
func NewNode(name string, role Role) *Node {
	return &Node{ID: nextNodeID(), Name: name, Role: role, Visible: true}
}

// NewButton creates a solid-colored button node at (x, y) with the given size.
func NewButton(name string, x, y, w, h float64, c Color) *Node {
	n := NewNode(name, RoleButton)
	n.X, n.Y = x, y
	n.Width, n.Height = w, h
	n.Color = c
	return n
}

// Parent implements Element. It returns an untyped nil at the root so that
// callers comparing against nil see the end of the chain.
func (n *Node) Parent() Element {
	if n == nil || n.parent == nil {
		return nil
	}
	return n.parent
}

// ParentNode returns the parent node, or nil at the root.
func (n *Node) ParentNode() *Node {
	return n.parent
}

// Interactive implements Element.
func (n *Node) Interactive() bool {
	if n == nil {
		return false
	}
	return n.CursorInteractive || n.Role.interactive()
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("comet: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("comet: adding child would create a cycle")
	}
	if child.parent != nil {
		child.parent.removeChildByPtr(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	if globalDebug {
		debugCheckTreeDepth(child)
	}
}

// RemoveChild detaches child from this node.
// Panics if child's parent is not n.
func (n *Node) RemoveChild(child *Node) {
	if child.parent != n {
		panic("comet: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.parent = nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.parent == nil {
		return
	}
	n.parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// WorldPosition returns the node's top-left corner in viewport space.
func (n *Node) WorldPosition() (float64, float64) {
	var x, y float64
	for p := n; p != nil; p = p.parent {
		x += p.X
		y += p.Y
	}
	return x, y
}

// WorldToLocal converts viewport coordinates to this node's local space.
func (n *Node) WorldToLocal(wx, wy float64) (float64, float64) {
	x, y := n.WorldPosition()
	return wx - x, wy - y
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.parent = nil
		child.dispose()
	}
	n.children = nil
	n.parent = nil
	n.HitShape = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
