package filesystem

// File is a leaf node holding an append-only byte buffer.
// Content is opaque binary; embedded zero bytes count towards Size.
type File struct {
	nodeBase
	buf []byte
}

var _ Node = (*File)(nil)

func NewFile(name string) *File {
	return &File{nodeBase: nodeBase{name: name}}
}

func (f *File) Kind() Kind { return KindFile }

// Size is the total number of bytes ever appended.
func (f *File) Size() int { return len(f.buf) }

// Append adds data to the end of the file.
func (f *File) Append(data []byte) {
	f.buf = append(f.buf, data...)
}

// Read returns up to count bytes starting at offset.
// Out of range requests are clamped rather than rejected: an offset at or past
// the end, or a negative argument, yields an empty slice. The result is a copy.
func (f *File) Read(count, offset int) []byte {
	if count <= 0 || offset < 0 || offset >= len(f.buf) {
		return []byte{}
	}
	end := offset + min(count, len(f.buf)-offset)
	out := make([]byte, end-offset)
	copy(out, f.buf[offset:end])
	return out
}
