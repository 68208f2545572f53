package filesystem

import (
	"errors"
	"weak"
)

var (
	ErrDangling = errors.New("link target no longer exists")
	ErrLinkLoop = errors.New("too many levels of links")
)

// Link is a soft reference to another node. It never owns its target and is
// never treated as a tree edge: traversal does not follow it. Once nothing else
// keeps the target alive (its owning tree was dropped) the link dangles and
// [Link.Target] reports nil.
//
// The target is fixed at construction.
type Link struct {
	nodeBase
	target weakNode
}

var _ Node = (*Link)(nil)

// NewLink creates a link observing target. A nil target yields a link that
// always dangles.
func NewLink(name string, target Node) *Link {
	return &Link{
		nodeBase: nodeBase{name: name},
		target:   makeWeakNode(target),
	}
}

func (l *Link) Kind() Kind { return KindLink }

// Size is always 0 for links.
func (l *Link) Size() int { return 0 }

// Target returns the live target, or nil once it has been collected.
func (l *Link) Target() Node {
	return l.target.value()
}

// Resolve follows n through links until it reaches a file or directory,
// allowing at most maxHops links along the way.
func Resolve(n Node, maxHops int) (Node, error) {
	for hops := 0; ; hops++ {
		l, ok := n.(*Link)
		if !ok {
			return n, nil
		}
		if hops >= maxHops {
			return nil, ErrLinkLoop
		}
		if n = l.Target(); n == nil {
			return nil, ErrDangling
		}
	}
}

// weakNode is a weak pointer to one of the concrete node variants.
// weak.Pointer needs a concrete type, so one field per variant.
type weakNode struct {
	kind Kind
	file weak.Pointer[File]
	dir  weak.Pointer[Directory]
	link weak.Pointer[Link]
}

func makeWeakNode(n Node) weakNode {
	switch n := n.(type) {
	case *File:
		return weakNode{kind: KindFile, file: weak.Make(n)}
	case *Directory:
		return weakNode{kind: KindDir, dir: weak.Make(n)}
	case *Link:
		return weakNode{kind: KindLink, link: weak.Make(n)}
	default:
		return weakNode{}
	}
}

// value resolves the pointer, taking care not to return a typed nil.
func (w weakNode) value() Node {
	switch w.kind {
	case KindFile:
		if f := w.file.Value(); f != nil {
			return f
		}
	case KindDir:
		if d := w.dir.Value(); d != nil {
			return d
		}
	case KindLink:
		if l := w.link.Value(); l != nil {
			return l
		}
	}
	return nil
}
