// Package filesystem implements an in-memory tree of named nodes shaped like a
// filesystem: files holding opaque bytes, directories owning an ordered list of
// children, and links observing another node without owning it.
//
// A node may be attached to exactly one directory for its whole lifetime. The
// tree types are not safe for concurrent use; hosts sharing a tree between
// goroutines go through [FileSystem] and [NodeContext].
package filesystem

import "sync/atomic"

// Kind identifies which variant of the closed node set a [Node] is.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDir
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// Node is the capability shared by every entry in the tree.
// It is implemented only by [*File], [*Directory] and [*Link].
type Node interface {
	Name() string
	SetName(name string)
	// Size is the byte count of a file's content; always 0 for directories and links.
	Size() int
	Kind() Kind
	// Attached reports whether the node has been added to a directory.
	Attached() bool

	base() *nodeBase
}

// nodeBase carries the identity common to all variants
type nodeBase struct {
	name   string
	parent *Directory    // Owning directory; nil until attached
	nodeID atomic.Uint64 // Active registry ID; 0 if not registered with a FileSystem
}

func (b *nodeBase) base() *nodeBase { return b }

func (b *nodeBase) Name() string { return b.name }

func (b *nodeBase) SetName(name string) { b.name = name }

func (b *nodeBase) Attached() bool { return b.parent != nil }

// NodeID returns the registry ID assigned by [FileSystem.EnsureNodeID]; 0 if unregistered
func (b *nodeBase) NodeID() uint64 { return b.nodeID.Load() }
