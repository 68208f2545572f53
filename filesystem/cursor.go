package filesystem

// cursor is a position hint into a directory's children used to make the
// "advance from the previous result" pattern O(1). It is not logical state:
// any change to the children resets it.
type cursor struct {
	pos int
}

func (c *cursor) reset() { c.pos = 0 }

// at reports whether the cursor currently references n within children.
func (c *cursor) at(children []Node, n Node) bool {
	return c.pos < len(children) && children[c.pos] == n
}

// advance moves past pos. It returns the next child, or nil after resetting
// when pos was the last one.
func (c *cursor) advance(children []Node, pos int) Node {
	if pos+1 < len(children) {
		c.pos = pos + 1
		return children[c.pos]
	}
	c.reset()
	return nil
}
