package adapters

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Registry, cfg string) []byte {
	t.Helper()
	adapter, err := r.NewAdapter([]byte(cfg))
	require.NoError(t, err)
	rc, err := adapter.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestTextSource(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	RegisterText(r)

	assert.Equal(t, []byte("hello world"), readAll(t, r, `{"type":"text","text":"hello world"}`))
	assert.Equal(t, []byte{}, readAll(t, r, `{"type":"text"}`))
	// JSON escapes may carry NUL bytes
	assert.Equal(t, []byte("a\x00b"), readAll(t, r, `{"type":"text","text":"a\u0000b"}`))

	_, err := r.NewAdapter([]byte(`{"type":"text","text":5}`))
	assert.Error(t, err)
}

func TestBase64Source(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	RegisterBase64(r)

	// "hi\x00\x01"
	assert.Equal(t, []byte("hi\x00\x01"), readAll(t, r, `{"type":"base64","data":"aGkAAQ=="}`))

	_, err := r.NewAdapter([]byte(`{"type":"base64","data":"not base64!"}`))
	assert.Error(t, err)
}

func TestInlineAdapter_CanceledContext(t *testing.T) {
	t.Parallel()

	a := &InlineAdapter{data: []byte("x")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
