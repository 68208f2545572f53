package filesystem

import "io"

// NodeContext wraps a [Node] while the owning [FileSystem] is locked.
// Calling NodeContext.Close() unwinds all unlocking/cleanup callbacks in reverse order.
// Do NOT call back into the FileSystem's locking methods while this context is
// active; use the accessors below.
//
// NOTE: NodeContext itself is **not** thread-safe meaning references
// to it should not be shared between goroutines
type NodeContext struct {
	fs       *FileSystem
	node     Node
	closeFns []func()
}

// Node returns the raw node. It must not be used after Close.
func (ctx *NodeContext) Node() Node {
	return ctx.node
}

// NodeID returns the node's registry ID, allocating one if needed
func (ctx *NodeContext) NodeID() uint64 {
	return ctx.fs.EnsureNodeID(ctx.node)
}

func (ctx *NodeContext) Name() string {
	return ctx.node.Name()
}

func (ctx *NodeContext) Kind() Kind {
	return ctx.node.Kind()
}

func (ctx *NodeContext) Size() int {
	return ctx.node.Size()
}

// Children returns a snapshot of the direct children in insertion order.
// Non-directories have none.
func (ctx *NodeContext) Children() []Node {
	d, ok := ctx.node.(*Directory)
	if !ok {
		return nil
	}
	children := make([]Node, 0, d.Len())
	for ch := range d.Children() {
		children = append(children, ch)
	}
	return children
}

// Child returns the first direct child named name
func (ctx *NodeContext) Child(name string) (Node, bool) {
	d, ok := ctx.node.(*Directory)
	if !ok {
		return nil, false
	}
	for ch := range d.Children() {
		if ch.Name() == name {
			return ch, true
		}
	}
	return nil, false
}

// Read returns up to count bytes of file content starting at offset; empty for
// anything but a file.
func (ctx *NodeContext) Read(count, offset int) []byte {
	if f, ok := ctx.node.(*File); ok {
		return f.Read(count, offset)
	}
	return []byte{}
}

// Target returns a link's live target; nil for dangling links and non-links.
func (ctx *NodeContext) Target() Node {
	if l, ok := ctx.node.(*Link); ok {
		return l.Target()
	}
	return nil
}

// Resolve follows links starting at the context node until it reaches a file
// or directory, allowing at most maxHops links along the way.
func (ctx *NodeContext) Resolve(maxHops int) (Node, error) {
	return Resolve(ctx.node, maxHops)
}

// PrintSubtree writes the subtree of a directory node; a no-op otherwise.
func (ctx *NodeContext) PrintSubtree(w io.Writer) error {
	if d, ok := ctx.node.(*Directory); ok {
		return d.PrintSubtree(w)
	}
	return nil
}

// AddClose pushes a cleanup callback (e.g., unlock) onto the end of the stack.
func (ctx *NodeContext) AddClose(fn func()) {
	ctx.closeFns = append(ctx.closeFns, fn)
}

// Close unwinds all cleanup callbacks in reverse order.
// Safe to call even if ctx is nil or no locks were acquired; it is
// a no-op in those cases, so you can `defer ctx.Close()` unconditionally.
// Make sure to call this when you're done with the context!
//
// Example:
//
//	ctx := fs.GetNodeCtx(nodeID)
//	defer ctx.Close()
func (ctx *NodeContext) Close() {
	if ctx == nil {
		return
	}
	for i := len(ctx.closeFns) - 1; i >= 0; i-- {
		ctx.closeFns[i]()
	}
	ctx.closeFns = nil
}
