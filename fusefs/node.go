// Package fusefs presents a [filesystem.FileSystem] to the kernel as a
// read-only FUSE filesystem.
//
// Directories list their children in insertion order and files serve their
// content. A link shows up as a mirror of whatever it resolves to; dangling
// links are hidden and overly long link chains fail with ELOOP.
package fusefs

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/fakefs/config"
	"github.com/brettbedarf/fakefs/filesystem"
	"github.com/brettbedarf/fakefs/internal/util"
)

// Node is the kernel-facing inode for one tree entry
type Node struct {
	fs.Inode

	fsys  *filesystem.FileSystem
	entry filesystem.Node // May be a link; resolved on every operation
	ino   uint64
}

var (
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeReader    = (*Node)(nil)
	_ fs.NodeStatfser  = (*Node)(nil)
	// Write interfaces; all refuse with EROFS
	_ fs.NodeSetattrer = (*Node)(nil)
	_ fs.NodeCreater   = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeUnlinker  = (*Node)(nil)
	_ fs.NodeRmdirer   = (*Node)(nil)
	_ fs.NodeRenamer   = (*Node)(nil)
)

// NewRoot creates the inode for the FileSystem's root directory
func NewRoot(fsys *filesystem.FileSystem) *Node {
	return &Node{fsys: fsys, entry: fsys.Root(), ino: filesystem.RootNodeID}
}

func (n *Node) cfg() *config.Config {
	return n.fsys.Config()
}

// resolve follows n through links. Callers must hold the FileSystem lock
// through a NodeContext for as long as they use the result.
func (n *Node) resolve(entry filesystem.Node) (filesystem.Node, syscall.Errno) {
	target, err := filesystem.Resolve(entry, n.cfg().MaxLinkHops)
	return target, toErrno(err)
}

func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, filesystem.ErrDangling):
		return syscall.ENOENT
	case errors.Is(err, filesystem.ErrLinkLoop):
		return syscall.ELOOP
	default:
		return syscall.EIO
	}
}

// mode returns the file type and permission bits for a resolved node
func (n *Node) mode(target filesystem.Node) uint32 {
	if target.Kind() == filesystem.KindDir {
		return fuse.S_IFDIR | n.cfg().DirPerms
	}
	return fuse.S_IFREG | n.cfg().FilePerms
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// fillAttr sets attributes for a resolved node presented under inode ino
func (n *Node) fillAttr(target filesystem.Node, ino uint64, out *fuse.Attr) {
	out.Ino = ino
	out.Mode = n.mode(target)
	out.Size = uint64(target.Size())
	out.Blocks = (out.Size + 511) / 512
	out.Blksize = 4096
	out.Nlink = 1
	if target.Kind() == filesystem.KindDir {
		out.Nlink = 2
	}
}

// Lookup is called by the kernel when the VFS wants to know
// about a file inside a directory. The first child with a matching name wins.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	logger := util.GetLogger("Fuse.Lookup")
	logger.Trace().Str("parent", n.entry.Name()).Str("name", name).Msg("Lookup called")

	nctx := n.fsys.NodeCtx(n.entry)
	defer nctx.Close()

	self, errno := n.resolve(n.entry)
	if errno != 0 {
		return nil, errno
	}
	dir, ok := self.(*filesystem.Directory)
	if !ok {
		return nil, syscall.ENOTDIR
	}

	var child filesystem.Node
	for c := range dir.Children() {
		if c.Name() == name {
			child = c
			break
		}
	}
	if child == nil {
		return nil, syscall.ENOENT
	}

	target, errno := n.resolve(child)
	if errno != 0 {
		logger.Debug().Str("name", name).Err(errno).Msg("Hiding unresolvable link")
		return nil, errno
	}

	ino := n.fsys.EnsureNodeID(child)
	n.fillAttr(target, ino, &out.Attr)
	out.SetAttrTimeout(seconds(n.cfg().AttrTimeout))
	out.SetEntryTimeout(seconds(n.cfg().EntryTimeout))

	node := &Node{fsys: n.fsys, entry: child, ino: ino}
	return n.NewInode(ctx, node, fs.StableAttr{
		Mode: n.mode(target) & syscall.S_IFMT,
		Ino:  ino,
	}), 0
}

func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	logger := util.GetLogger("Fuse.Getattr")
	logger.Trace().Str("name", n.entry.Name()).Msg("Getattr called")

	nctx := n.fsys.NodeCtx(n.entry)
	defer nctx.Close()

	target, errno := n.resolve(n.entry)
	if errno != 0 {
		return errno
	}
	n.fillAttr(target, n.ino, &out.Attr)
	out.SetTimeout(seconds(n.cfg().AttrTimeout))
	return 0
}

// Readdir lists children in insertion order, leaving out links that cannot
// be resolved.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	logger := util.GetLogger("Fuse.Readdir")
	logger.Trace().Str("name", n.entry.Name()).Msg("Readdir called")

	nctx := n.fsys.NodeCtx(n.entry)
	defer nctx.Close()

	self, errno := n.resolve(n.entry)
	if errno != 0 {
		return nil, errno
	}
	dir, ok := self.(*filesystem.Directory)
	if !ok {
		return nil, syscall.ENOTDIR
	}

	entries := make([]fuse.DirEntry, 0, dir.Len())
	for child := range dir.Children() {
		target, errno := n.resolve(child)
		if errno != 0 {
			continue
		}
		entries = append(entries, fuse.DirEntry{
			Name: child.Name(),
			Mode: n.mode(target),
			Ino:  n.fsys.EnsureNodeID(child),
		})
	}
	logger.Debug().Str("name", n.entry.Name()).Int("entries", len(entries)).Msg("Listed directory")
	return fs.NewListDirStream(entries), 0
}

// Open only permits read-only access to files
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	logger := util.GetLogger("Fuse.Open")
	logger.Trace().Str("name", n.entry.Name()).Uint32("flags", flags).Msg("Open called")

	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_APPEND|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EROFS
	}

	nctx := n.fsys.NodeCtx(n.entry)
	defer nctx.Close()

	target, errno := n.resolve(n.entry)
	if errno != 0 {
		return nil, 0, errno
	}
	if target.Kind() == filesystem.KindDir {
		return nil, 0, syscall.EISDIR
	}

	var fuseFlags uint32
	if n.cfg().DirectIO {
		fuseFlags |= fuse.FOPEN_DIRECT_IO
	}
	return nil, fuseFlags, 0
}

func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	logger := util.GetLogger("Fuse.Read")
	logger.Trace().Str("name", n.entry.Name()).Int64("offset", off).Int("len", len(dest)).Msg("Read called")

	nctx := n.fsys.NodeCtx(n.entry)
	defer nctx.Close()

	target, errno := n.resolve(n.entry)
	if errno != 0 {
		return nil, errno
	}
	file, ok := target.(*filesystem.File)
	if !ok {
		return nil, syscall.EISDIR
	}
	return fuse.ReadResultData(file.Read(len(dest), int(off))), 0
}

// Statfs reports a filesystem with no free space
func (n *Node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	const blockSize = 4096
	out.Bsize = blockSize
	out.Frsize = blockSize
	out.NameLen = 255
	return 0
}

// OnForget drops the registry entry once the kernel forgets the inode
func (n *Node) OnForget() {
	n.fsys.ForgetNodeID(n.ino)
}

func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	return nil, nil, 0, syscall.EROFS
}

func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	return syscall.EROFS
}
