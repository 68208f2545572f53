// Package fakefs contains the core request types and content interfaces used to
// describe a fake filesystem tree before it is built in memory.
package fakefs

import (
	"context"
	"io"
)

// ContentAdapter retrieves the bytes of a single file content source.
// Instances are 1:1 with a source entry of a [FileCreateRequest].
type ContentAdapter interface {
	// Open returns a reader over the full content of the source
	Open(ctx context.Context) (io.ReadCloser, error)
}

// AdapterProvider is a factory for concrete [ContentAdapter] implementations
// generated from a source's raw JSON config.
type AdapterProvider interface {
	NewAdapter(raw []byte) (ContentAdapter, error)
}
