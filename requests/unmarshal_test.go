package requests

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/fakefs"
	"github.com/brettbedarf/fakefs/adapters"
	"github.com/brettbedarf/fakefs/config"
	"github.com/brettbedarf/fakefs/filesystem"
)

const (
	dir3ID   = "6f1c2a0e-3b7d-4c1e-9a55-0d2f3e4b5a61"
	file32ID = "0b9e8d7c-6a5b-4c3d-8e2f-1a0b9c8d7e6f"
)

func newTestDecoder() *Decoder {
	r := adapters.NewRegistry()
	adapters.RegisterBuiltins(r, adapters.TextAdapterType, adapters.Base64AdapterType)
	return NewDecoder(r)
}

func readSource(t *testing.T, src fakefs.ContentAdapter) []byte {
	t.Helper()
	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

// verifyReferenceTree checks the request decoded from testdata/tree.*
func verifyReferenceTree(t *testing.T, root *fakefs.DirCreateRequest) {
	t.Helper()
	require.Len(t, root.Children, 6)

	file2, ok := root.Children[1].(*fakefs.FileCreateRequest)
	require.True(t, ok)
	assert.Equal(t, "file2", file2.Name)
	require.Len(t, file2.Sources, 3)
	assert.Equal(t, []byte("hello"), readSource(t, file2.Sources[0]))
	assert.Equal(t, []byte{0, 0}, readSource(t, file2.Sources[1]))

	dir3, ok := root.Children[2].(*fakefs.DirCreateRequest)
	require.True(t, ok)
	assert.Equal(t, uuid.MustParse(dir3ID), dir3.UUID)
	require.Len(t, dir3.Children, 3)
	assert.Equal(t, fakefs.DirNodeType, dir3.Children[2].GetNodeRequest().Type)

	link5, ok := root.Children[4].(*fakefs.LinkCreateRequest)
	require.True(t, ok)
	assert.Equal(t, uuid.MustParse(dir3ID), link5.Target)
	assert.NotEqual(t, uuid.Nil, link5.UUID)
}

func TestUnmarshalTree_JSON(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("testdata", "tree.json"))
	require.NoError(t, err)

	root, err := newTestDecoder().UnmarshalTree(data)
	require.NoError(t, err)
	verifyReferenceTree(t, root)
}

func TestUnmarshalTree_YAML(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("testdata", "tree.yaml"))
	require.NoError(t, err)

	root, err := newTestDecoder().UnmarshalTreeYAML(data)
	require.NoError(t, err)
	verifyReferenceTree(t, root)
}

func TestUnmarshalTree_ChildrenArray(t *testing.T) {
	t.Parallel()

	root, err := newTestDecoder().LoadTreeFile(filepath.Join("testdata", "children.json"))
	require.NoError(t, err)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "a", root.Children[0].GetNodeRequest().Name)
	b := root.Children[1].(*fakefs.DirCreateRequest)
	require.Len(t, b.Children, 1)
	assert.Equal(t, "c", b.Children[0].GetNodeRequest().Name)
}

func TestUnmarshalTree_DefaultIDs(t *testing.T) {
	t.Parallel()

	root, err := newTestDecoder().UnmarshalTree([]byte(`[{"type":"file","name":"a"},{"type":"file","name":"b"}]`))
	require.NoError(t, err)

	a := root.Children[0].GetNodeRequest().UUID
	b := root.Children[1].GetNodeRequest().UUID
	assert.NotEqual(t, uuid.Nil, a)
	assert.NotEqual(t, a, b)
}

func TestUnmarshalTree_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc    string
		data    string
		wantErr error
	}{
		{"unknown type", `[{"type":"socket","name":"s"}]`, ErrUnknownNodeType},
		{"missing type", `[{"name":"s"}]`, ErrUnknownNodeType},
		{"link without target", `[{"type":"link","name":"l"}]`, ErrMissingTarget},
		{"file with children", `[{"type":"file","name":"f","children":[{"type":"file","name":"x"}]}]`, ErrInvalidField},
		{"dir with sources", `[{"type":"dir","name":"d","sources":[{"type":"text"}]}]`, ErrInvalidField},
		{"link with sources", `[{"type":"link","name":"l","target":"` + dir3ID + `","sources":[{"type":"text"}]}]`, ErrInvalidField},
		{"unregistered source", `[{"type":"file","name":"f","sources":[{"type":"http","url":"http://x"}]}]`, adapters.ErrUnregistered},
		{"nested error", `[{"type":"dir","name":"d","children":[{"type":"bogus"}]}]`, ErrUnknownNodeType},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := newTestDecoder().UnmarshalTree([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("invalid id", func(t *testing.T) {
		_, err := newTestDecoder().UnmarshalTree([]byte(`[{"type":"file","name":"f","id":"nope"}]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid id")
	})

	t.Run("invalid target", func(t *testing.T) {
		_, err := newTestDecoder().UnmarshalTree([]byte(`[{"type":"link","name":"l","target":"nope"}]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid target")
	})

	t.Run("root not a dir", func(t *testing.T) {
		_, err := newTestDecoder().UnmarshalTree([]byte(`{"type":"file","name":"f"}`))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := newTestDecoder().UnmarshalTree([]byte(`{"type":`))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := newTestDecoder().UnmarshalTreeYAML([]byte("type: [dir"))
		assert.Error(t, err)
	})
}

func TestLoadTreeFile(t *testing.T) {
	t.Parallel()

	d := newTestDecoder()

	t.Run("by extension", func(t *testing.T) {
		for _, name := range []string{"tree.json", "tree.yaml"} {
			root, err := d.LoadTreeFile(filepath.Join("testdata", name))
			require.NoError(t, err, name)
			verifyReferenceTree(t, root)
		}
	})

	t.Run("yml extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tree.yml")
		require.NoError(t, os.WriteFile(path, []byte("- {type: file, name: only}\n"), 0o644))
		root, err := d.LoadTreeFile(path)
		require.NoError(t, err)
		require.Len(t, root.Children, 1)
	})

	t.Run("extension case", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tree.YAML")
		require.NoError(t, os.WriteFile(path, []byte("- {type: file, name: only}\n"), 0o644))
		root, err := d.LoadTreeFile(path)
		require.NoError(t, err)
		require.Len(t, root.Children, 1)
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tree.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
		_, err := d.LoadTreeFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tree file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := d.LoadTreeFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestGetNodeType(t *testing.T) {
	t.Parallel()

	typ, err := GetNodeType([]byte(`{"type":"link","name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, fakefs.LinkNodeType, typ)

	_, err = GetNodeType([]byte(`nope`))
	assert.Error(t, err)
}

func TestReferenceTree_LoadAndPrint(t *testing.T) {
	t.Parallel()

	root, err := newTestDecoder().LoadTreeFile(filepath.Join("testdata", "tree.yaml"))
	require.NoError(t, err)

	fs := filesystem.NewFS(config.NewDefaultConfig())
	require.NoError(t, fs.Load(context.Background(), root))

	ctx := fs.RootCtx()
	defer ctx.Close()
	var out bytes.Buffer
	require.NoError(t, ctx.PrintSubtree(&out))
	assert.Equal(t, "/\n"+
		" /file1\n"+
		" /file2\n"+
		" /dir3\n"+
		"  /file31\n"+
		"  /file32\n"+
		"  /dir33\n"+
		" /file4\n"+
		" /link5\n"+
		" /link6\n", out.String())

	file2, ok := ctx.Child("file2")
	require.True(t, ok)
	assert.Equal(t, 12, file2.Size())
	assert.Equal(t, []byte("hello\x00\x00world"), file2.(*filesystem.File).Read(100, 0))

	file32, ok := fs.NodeByUUID(uuid.MustParse(file32ID))
	require.True(t, ok)
	link6, ok := ctx.Child("link6")
	require.True(t, ok)
	assert.Equal(t, file32, link6.(*filesystem.Link).Target())
}

func TestLinkToRoot_LoadAndPrint(t *testing.T) {
	t.Parallel()

	const rootID = "3a7f0c1e-5d2b-4e8a-9c61-7b0d4f2e8a13"
	root, err := newTestDecoder().UnmarshalTree([]byte(`{
		"type": "dir",
		"id": "` + rootID + `",
		"children": [
			{"type": "dir", "name": "sub", "children": [
				{"type": "link", "name": "up", "target": "` + rootID + `"}
			]}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse(rootID), root.UUID)

	fs := filesystem.NewFS(config.NewDefaultConfig())
	require.NoError(t, fs.Load(context.Background(), root))

	ctx := fs.RootCtx()
	defer ctx.Close()
	var out bytes.Buffer
	require.NoError(t, ctx.PrintSubtree(&out))
	assert.Equal(t, "/\n /sub\n  /up\n", out.String())

	sub, ok := ctx.Child("sub")
	require.True(t, ok)
	up := sub.(*filesystem.Directory).First()
	assert.Equal(t, filesystem.Node(fs.Root()), up.(*filesystem.Link).Target())
}
