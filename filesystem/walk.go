package filesystem

import (
	"io"
	"strings"
)

// VisitFunc is called once per node by [Directory.Recurse] with the node's
// depth below the starting directory.
type VisitFunc func(n Node, level int)

// Recurse walks the subtree rooted at d in preorder, starting at level 0.
func (d *Directory) Recurse(visit VisitFunc) {
	d.RecurseAt(visit, 0)
}

// RecurseAt visits d at level, then each child in insertion order one level
// deeper. Links are visited as leaves; their targets are not followed.
func (d *Directory) RecurseAt(visit VisitFunc, level int) {
	visit(d, level)
	for _, child := range d.children {
		switch c := child.(type) {
		case *Directory:
			c.RecurseAt(visit, level+1)
		case *File, *Link:
			visit(c, level+1)
		}
	}
}

// PrintSubtree writes one line per node of the subtree: level spaces, a slash
// and the node name. It stops writing at and returns the first write error.
func (d *Directory) PrintSubtree(w io.Writer) error {
	var err error
	d.Recurse(func(n Node, level int) {
		if err != nil {
			return
		}
		_, err = io.WriteString(w, strings.Repeat(" ", level)+"/"+n.Name()+"\n")
	})
	return err
}
