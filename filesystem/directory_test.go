package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createDir returns a directory holding files with the given names, in order
func createDir(t *testing.T, name string, children ...string) (*Directory, []Node) {
	t.Helper()
	d := NewDirectory(name)
	nodes := make([]Node, 0, len(children))
	for _, c := range children {
		f := NewFile(c)
		require.NoError(t, d.Add(f))
		nodes = append(nodes, f)
	}
	return d, nodes
}

func TestDirectory_Add(t *testing.T) {
	t.Parallel()

	root := CreateRoot()
	f := NewFile("f")
	d := NewDirectory("d")
	l := NewLink("l", f)

	require.NoError(t, root.Add(f))
	require.NoError(t, root.Add(d))
	require.NoError(t, root.Add(l))

	assert.Equal(t, 3, root.Len())
	assert.Equal(t, []Node{f, d, l}, root.children)
	assert.Equal(t, root, f.parent)
}

func TestDirectory_Add_AlreadyAttached(t *testing.T) {
	t.Parallel()

	root := CreateRoot()
	other := NewDirectory("other")
	f := NewFile("f")
	require.NoError(t, root.Add(f))
	require.NoError(t, root.Add(other))

	t.Run("same directory", func(t *testing.T) {
		err := root.Add(f)
		require.ErrorIs(t, err, ErrAlreadyAttached)
		assert.Equal(t, 2, root.Len())
	})

	t.Run("different directory", func(t *testing.T) {
		err := other.Add(f)
		require.ErrorIs(t, err, ErrAlreadyAttached)
		assert.Equal(t, 0, other.Len())
		assert.Equal(t, root, f.parent)
	})
}

func TestDirectory_Add_Cycle(t *testing.T) {
	t.Parallel()

	t.Run("self", func(t *testing.T) {
		d := NewDirectory("d")
		require.ErrorIs(t, d.Add(d), ErrCycle)
		assert.Equal(t, 0, d.Len())
		assert.False(t, d.Attached())
	})

	t.Run("ancestor", func(t *testing.T) {
		root := CreateRoot()
		mid := NewDirectory("mid")
		leaf := NewDirectory("leaf")
		require.NoError(t, root.Add(mid))
		require.NoError(t, mid.Add(leaf))

		require.ErrorIs(t, leaf.Add(root), ErrCycle)
		assert.Equal(t, 0, leaf.Len())
		assert.False(t, root.Attached())
	})
}

func TestDirectory_Add_Nil(t *testing.T) {
	t.Parallel()

	d := NewDirectory("d")
	require.ErrorIs(t, d.Add(nil), ErrNilNode)
	assert.Equal(t, 0, d.Len())
}

func TestDirectory_First(t *testing.T) {
	t.Parallel()

	empty := NewDirectory("empty")
	assert.Nil(t, empty.First())

	d, nodes := createDir(t, "d", "a", "b")
	assert.Equal(t, nodes[0], d.First())
	assert.Equal(t, 0, d.cur.pos)
}

func TestDirectory_Next_Sequential(t *testing.T) {
	t.Parallel()

	d, nodes := createDir(t, "d", "a", "b", "c")

	n := d.First()
	var got []Node
	for n != nil {
		got = append(got, n)
		prev := d.cur.pos
		n = d.Next(n)
		if n != nil {
			// advanced from the cached position
			assert.Equal(t, prev+1, d.cur.pos)
		}
	}
	assert.Equal(t, nodes, got)
	assert.Equal(t, 0, d.cur.pos)
}

func TestDirectory_Next_WithoutCursor(t *testing.T) {
	t.Parallel()

	d, nodes := createDir(t, "d", "a", "b", "c")

	// no First call; the cursor does not reference b
	assert.Equal(t, nodes[2], d.Next(nodes[1]))
	assert.Equal(t, 2, d.cur.pos)

	// jumping backwards repositions the cursor
	assert.Equal(t, nodes[1], d.Next(nodes[0]))
	assert.Equal(t, 1, d.cur.pos)
	assert.Equal(t, nodes[2], d.Next(nodes[1]))
}

func TestDirectory_Next_PastEnd(t *testing.T) {
	t.Parallel()

	d, nodes := createDir(t, "d", "a", "b")

	assert.Nil(t, d.Next(nodes[1]))
	assert.Equal(t, 0, d.cur.pos)

	// no end-of-sequence latch; calls keep working from the reset cursor
	assert.Nil(t, d.Next(nodes[1]))
	assert.Equal(t, nodes[1], d.Next(nodes[0]))
}

func TestDirectory_Next_NotAChild(t *testing.T) {
	t.Parallel()

	d, _ := createDir(t, "d", "a", "b")
	_, foreign := createDir(t, "other", "x")

	d.First()
	assert.Nil(t, d.Next(foreign[0]))
	assert.Nil(t, d.Next(nil))
	assert.Nil(t, NewDirectory("empty").Next(foreign[0]))
}

func TestDirectory_AddResetsCursor(t *testing.T) {
	t.Parallel()

	d, nodes := createDir(t, "d", "a", "b")
	assert.Equal(t, nodes[1], d.Next(d.First()))
	assert.Equal(t, 1, d.cur.pos)

	c := NewFile("c")
	require.NoError(t, d.Add(c))
	assert.Equal(t, 0, d.cur.pos)

	// still finds the successor through the scan path
	assert.Equal(t, Node(c), d.Next(nodes[1]))
}

func TestDirectory_Children(t *testing.T) {
	t.Parallel()

	d, nodes := createDir(t, "d", "a", "b", "c")

	var got []Node
	for n := range d.Children() {
		got = append(got, n)
	}
	assert.Equal(t, nodes, got)

	// stopping early is allowed
	var first []Node
	for n := range d.Children() {
		first = append(first, n)
		break
	}
	assert.Equal(t, nodes[:1], first)

	for range NewDirectory("empty").Children() {
		t.Fatal("empty directory yielded a child")
	}
}

func TestDirectory_Size(t *testing.T) {
	t.Parallel()

	d, _ := createDir(t, "d", "a")
	assert.Equal(t, 0, d.Size())
	assert.Equal(t, 1, d.Len())
}
