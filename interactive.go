package comet

// Element is anything the pointer can be over. Only the parent link and an
// interactivity flag are needed; the simulator never inspects a tree any
// other way.
type Element interface {
	// Parent returns the enclosing element, or nil at the root.
	Parent() Element
	// Interactive reports whether this element itself is a hover target
	// (a link, button, form control, or an explicit opt-in).
	Interactive() bool
}

// maxAncestorDepth bounds the ancestor walk so a malformed, cyclic parent
// chain cannot hang the input path.
const maxAncestorDepth = 256

// IsInteractive reports whether e or any of its ancestors is interactive.
func IsInteractive(e Element) bool {
	for depth := 0; e != nil && depth < maxAncestorDepth; depth++ {
		if e.Interactive() {
			return true
		}
		e = e.Parent()
	}
	return false
}
