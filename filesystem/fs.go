package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/errgroup"

	"github.com/brettbedarf/fakefs"
	"github.com/brettbedarf/fakefs/config"
	"github.com/brettbedarf/fakefs/internal/util"
)

// RootNodeID is the registry ID of the root directory
const RootNodeID uint64 = fuse.FUSE_ROOT_ID

var (
	ErrDuplicateUUID    = errors.New("duplicate node uuid")
	ErrDuplicateRequest = errors.New("node request appears more than once")
	ErrUnresolvedTarget = errors.New("link target not found")
	ErrUnknownRequest   = errors.New("unknown node request")
	ErrSourceTooLarge   = errors.New("content source exceeds size limit")
)

// FileSystem hosts a tree for consumers that share it between goroutines.
// All tree access goes through a [NodeContext], which holds the FileSystem
// lock until closed.
type FileSystem struct {
	cfg          *config.Config
	mu           sync.Mutex
	root         *Directory                  // Root of node tree
	lastNodeID   atomic.Uint64               // Last registry NodeID assigned; assigned on-demand for session only
	nodeRegistry *xsync.Map[uint64, Node]    // maps registry NodeIDs to core Nodes
	ids          *xsync.Map[uuid.UUID, Node] // maps request UUIDs to the nodes built from them
}

func NewFS(cfg *config.Config) *FileSystem {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	root := CreateRoot()
	root.nodeID.Store(RootNodeID)

	fs := FileSystem{cfg: cfg, root: root}
	fs.lastNodeID.Store(RootNodeID)
	fs.nodeRegistry = xsync.NewMap[uint64, Node]()
	fs.nodeRegistry.Store(RootNodeID, root)
	fs.ids = xsync.NewMap[uuid.UUID, Node]()
	return &fs
}

// Root returns the root directory without locking. Callers sharing the
// FileSystem between goroutines should use [FileSystem.RootCtx] instead.
func (fs *FileSystem) Root() *Directory {
	return fs.root
}

func (fs *FileSystem) Config() *config.Config {
	return fs.cfg
}

// NodeByUUID returns the node built from the request carrying id
func (fs *FileSystem) NodeByUUID(id uuid.UUID) (Node, bool) {
	return fs.ids.Load(id)
}

// Load builds the children of req and appends them to the root directory.
// req itself stands for the root: its UUID, if set, names the root directory.
//
// File sources are fetched concurrently, bounded by the configured fetch
// concurrency. Link targets are resolved by UUID against every node of req and
// of earlier loads; a link may only target another link declared before it.
// Nothing is attached unless the whole request is valid and every source was
// fetched.
func (fs *FileSystem) Load(ctx context.Context, req *fakefs.DirCreateRequest) error {
	logger := util.GetLogger("FS.Load")

	b := &treeBuilder{
		fs:       fs,
		built:    map[fakefs.NodeRequestor]Node{},
		seen:     map[uuid.UUID]struct{}{},
		requests: map[fakefs.NodeRequestor]struct{}{req: {}},
	}
	if err := b.collectRoot(req); err != nil {
		logger.Error().Err(err).Msg("Invalid tree request")
		return err
	}
	if err := b.collect(req.Children); err != nil {
		logger.Error().Err(err).Msg("Invalid tree request")
		return err
	}

	contents, err := fs.fetchAll(ctx, b.files)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch file contents")
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	b.built[req] = fs.root
	for i, fr := range b.files {
		f := NewFile(fr.Name)
		for _, data := range contents[i] {
			f.Append(data)
		}
		b.built[fr] = f
	}
	for _, dr := range b.dirs {
		b.built[dr] = NewDirectory(dr.Name)
	}
	for _, lr := range b.links {
		target, err := b.target(lr.Target)
		if err != nil {
			logger.Error().Err(err).Str("name", lr.Name).Msg("Failed to create link")
			return err
		}
		b.built[lr] = NewLink(lr.Name, target)
	}

	for _, dr := range b.dirs {
		if err := b.attach(b.built[dr].(*Directory), dr.Children); err != nil {
			return err
		}
	}
	if err := b.attach(fs.root, req.Children); err != nil {
		return err
	}
	for r, n := range b.built {
		if id := r.GetNodeRequest().UUID; id != uuid.Nil {
			fs.ids.Store(id, n)
		}
	}

	logger.Info().
		Int("files", len(b.files)).
		Int("directories", len(b.dirs)).
		Int("links", len(b.links)).
		Msg("Loaded nodes into filesystem")
	return nil
}

// treeBuilder flattens a request tree so nodes can be built in phases
type treeBuilder struct {
	fs       *FileSystem
	files    []*fakefs.FileCreateRequest
	dirs     []*fakefs.DirCreateRequest
	links    []*fakefs.LinkCreateRequest
	built    map[fakefs.NodeRequestor]Node
	seen     map[uuid.UUID]struct{}
	requests map[fakefs.NodeRequestor]struct{}
}

// collectRoot reserves the root request's UUID. Reusing an id that already
// names the root is fine; one naming any other node is a duplicate.
func (b *treeBuilder) collectRoot(req *fakefs.DirCreateRequest) error {
	id := req.UUID
	if id == uuid.Nil {
		return nil
	}
	if n, ok := b.fs.ids.Load(id); ok && n != Node(b.fs.root) {
		return fmt.Errorf("%w: %s", ErrDuplicateUUID, id)
	}
	b.seen[id] = struct{}{}
	return nil
}

func (b *treeBuilder) collect(children []fakefs.NodeRequestor) error {
	for _, child := range children {
		if child == nil {
			return fmt.Errorf("%w: nil", ErrUnknownRequest)
		}
		nr := child.GetNodeRequest()
		if _, dup := b.requests[child]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateRequest, nr.Name)
		}
		b.requests[child] = struct{}{}

		if id := nr.UUID; id != uuid.Nil {
			if _, dup := b.seen[id]; dup {
				return fmt.Errorf("%w: %s", ErrDuplicateUUID, id)
			}
			if _, dup := b.fs.ids.Load(id); dup {
				return fmt.Errorf("%w: %s", ErrDuplicateUUID, id)
			}
			b.seen[id] = struct{}{}
		}

		switch r := child.(type) {
		case *fakefs.FileCreateRequest:
			b.files = append(b.files, r)
		case *fakefs.DirCreateRequest:
			b.dirs = append(b.dirs, r)
			if err := b.collect(r.Children); err != nil {
				return err
			}
		case *fakefs.LinkCreateRequest:
			b.links = append(b.links, r)
		default:
			return fmt.Errorf("%w: %q (%T)", ErrUnknownRequest, nr.Name, child)
		}
	}
	return nil
}

// target finds the node for id among this load's built nodes, then earlier loads
func (b *treeBuilder) target(id uuid.UUID) (Node, error) {
	if id != uuid.Nil {
		for r, n := range b.built {
			if r.GetNodeRequest().UUID == id {
				return n, nil
			}
		}
		if n, ok := b.fs.ids.Load(id); ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolvedTarget, id)
}

func (b *treeBuilder) attach(dir *Directory, children []fakefs.NodeRequestor) error {
	for _, child := range children {
		if err := dir.Add(b.built[child]); err != nil {
			return fmt.Errorf("attach %q: %w", child.GetNodeRequest().Name, err)
		}
	}
	return nil
}

// fetchAll reads every source of every file. Result i holds the content of
// files[i], one entry per source in order.
func (fs *FileSystem) fetchAll(ctx context.Context, files []*fakefs.FileCreateRequest) ([][][]byte, error) {
	logger := util.GetLogger("FS.fetchAll")

	contents := make([][][]byte, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(fs.cfg.FetchConcurrency, 1))
	for i, fr := range files {
		contents[i] = make([][]byte, len(fr.Sources))
		for j, src := range fr.Sources {
			g.Go(func() error {
				data, err := fs.fetch(ctx, src)
				if err != nil {
					return fmt.Errorf("fetch source %d of %q: %w", j, fr.Name, err)
				}
				logger.Trace().Str("name", fr.Name).Int("source", j).Int("bytes", len(data)).Msg("Fetched source")
				contents[i][j] = data
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

func (fs *FileSystem) fetch(ctx context.Context, src fakefs.ContentAdapter) ([]byte, error) {
	if src == nil {
		return nil, errors.New("nil content source")
	}
	if fs.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(fs.cfg.FetchTimeout*float64(time.Second)))
		defer cancel()
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := fs.cfg.MaxSourceBytes
	if limit <= 0 {
		return io.ReadAll(rc)
	}
	// one extra byte tells an exact fit from an overflow
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, limit)
	}
	return data, nil
}

// RootCtx returns a locked NodeContext for the root directory
func (fs *FileSystem) RootCtx() *NodeContext {
	return fs.NodeCtx(fs.root)
}

// NodeCtx locks the FileSystem and returns a NodeContext for n
func (fs *FileSystem) NodeCtx(n Node) *NodeContext {
	fs.mu.Lock()
	ctx := &NodeContext{fs: fs, node: n}
	ctx.AddClose(fs.mu.Unlock)
	return ctx
}

// GetNodeCtx returns a locked NodeContext with its Close() wired up
// If the node does not exist, returns nil
func (fs *FileSystem) GetNodeCtx(nodeID uint64) *NodeContext {
	logger := util.GetLogger("FS.GetNodeCtx")
	logger.Trace().Uint64("nodeID", nodeID).Msg("GetNodeCtx called")

	if node, ok := fs.nodeRegistry.Load(nodeID); ok {
		return fs.NodeCtx(node)
	}
	logger.Debug().Uint64("nodeID", nodeID).Msg("No node found")
	return nil
}

// ForgetNodeID removes the registry NodeID entry. The root is never forgotten.
func (fs *FileSystem) ForgetNodeID(id uint64) {
	logger := util.GetLogger("FS.ForgetNodeID")
	logger.Trace().Uint64("id", id).Msg("ForgetNodeID called")

	if id == RootNodeID {
		return
	}
	node, ok := fs.nodeRegistry.LoadAndDelete(id)
	if !ok {
		logger.Debug().Uint64("id", id).Msg("No node found")
		return
	}
	node.base().nodeID.CompareAndSwap(id, 0)
}

// EnsureNodeID retrieves or allocates & sets NodeID; safe with or without held locks.
// returns NodeID
func (fs *FileSystem) EnsureNodeID(n Node) uint64 {
	b := n.base()
	// fast path
	if id := b.nodeID.Load(); id != 0 {
		return id
	}
	// allocate a new one
	newID := fs.lastNodeID.Add(1)
	// only one CAS will succeed
	if b.nodeID.CompareAndSwap(0, newID) {
		fs.nodeRegistry.Store(newID, n)
		return newID
	}
	// someone else won the race, load the real value
	return b.nodeID.Load()
}
