package filesystem

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

var (
	// ErrAlreadyAttached is returned by [Directory.Add] when the node already
	// belongs to a directory (including the one it is being added to).
	ErrAlreadyAttached = errors.New("node already attached to a directory")

	// ErrCycle is returned by [Directory.Add] when the node is the directory
	// itself or one of its ancestors.
	ErrCycle = errors.New("node would own its own ancestor")

	ErrNilNode = errors.New("nil node")
)

// Directory is a container node owning an ordered sequence of children.
// Children keep insertion order and are never reordered or removed.
type Directory struct {
	nodeBase
	children []Node
	cur      cursor
}

var _ Node = (*Directory)(nil)

func NewDirectory(name string) *Directory {
	return &Directory{nodeBase: nodeBase{name: name}}
}

// CreateRoot returns an empty, unnamed directory to build a tree under.
func CreateRoot() *Directory {
	return NewDirectory("")
}

func (d *Directory) Kind() Kind { return KindDir }

// Size is always 0 for directories.
func (d *Directory) Size() int { return 0 }

// Len returns the number of direct children.
func (d *Directory) Len() int { return len(d.children) }

// Add transfers ownership of node to d, appending it after existing children.
// On error d is unchanged.
func (d *Directory) Add(node Node) error {
	if node == nil {
		return ErrNilNode
	}
	b := node.base()
	if b.parent != nil {
		return fmt.Errorf("%w: %q", ErrAlreadyAttached, b.name)
	}
	if dir, ok := node.(*Directory); ok && d.ownedBy(dir) {
		return fmt.Errorf("%w: %q", ErrCycle, b.name)
	}

	b.parent = d
	d.children = append(d.children, node)
	d.cur.reset()
	return nil
}

// ownedBy reports whether dir is d or one of its ancestors.
func (d *Directory) ownedBy(dir *Directory) bool {
	for p := d; p != nil; p = p.parent {
		if p == dir {
			return true
		}
	}
	return false
}

// First returns the first child and positions the cursor on it, or nil when
// the directory is empty.
func (d *Directory) First() Node {
	d.cur.reset()
	if len(d.children) == 0 {
		return nil
	}
	return d.children[0]
}

// Next returns the child after current, or nil past the last child.
//
// Passing the node returned by the previous First/Next call is O(1). Any other
// node is located by a linear scan, which also moves the cursor there so that
// continuing from it is O(1) again. A nil result resets the cursor; calling
// Next again simply restarts from that state, there is no end-of-sequence latch.
// A node that is not a child of d yields nil.
func (d *Directory) Next(current Node) Node {
	pos := d.cur.pos
	if !d.cur.at(d.children, current) {
		pos = slices.Index(d.children, current)
		if pos < 0 {
			d.cur.reset()
			return nil
		}
		d.cur.pos = pos
	}
	return d.cur.advance(d.children, pos)
}

// Children iterates the direct children in insertion order using First/Next.
func (d *Directory) Children() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for n := d.First(); n != nil; n = d.Next(n) {
			if !yield(n) {
				return
			}
		}
	}
}
