package server

import (
	"errors"
	"io"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/fakefs/config"
	"github.com/brettbedarf/fakefs/filesystem"
	"github.com/brettbedarf/fakefs/fusefs"
	"github.com/brettbedarf/fakefs/internal/util"
)

var ErrNotMounted = errors.New("filesystem is not mounted")

// FakeFs hosts an in-memory tree and serves it over FUSE
type FakeFs struct {
	*filesystem.FileSystem
	cfg    *config.Config
	server *fuse.Server
}

// New creates a FakeFs instance given your config.
func New(cfg *config.Config) *FakeFs {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &FakeFs{
		filesystem.NewFS(cfg),
		cfg,
		nil,
	}
}

// PrintTree writes the whole tree to w, one line per node
func (f *FakeFs) PrintTree(w io.Writer) error {
	ctx := f.RootCtx()
	defer ctx.Close()
	return ctx.PrintSubtree(w)
}

func (f *FakeFs) mountOptions() *fs.Options {
	attrTimeout := time.Duration(f.cfg.AttrTimeout * float64(time.Second))
	entryTimeout := time.Duration(f.cfg.EntryTimeout * float64(time.Second))
	opts := f.cfg.MountOptions
	return &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   opts.Name,
			FsName: opts.FsName,
			Debug:  opts.Debug || f.cfg.LogLvl == util.TraceLevel,
			Logger: util.NewLogLogger("FuseServer", util.DebugLevel),
		},
		AttrTimeout:  &attrTimeout,
		EntryTimeout: &entryTimeout,
		Logger:       util.NewLogLogger("FuseBridge", util.DebugLevel),
	}
}

// Serve mounts the filesystem at the given mountPoint and returns once the
// kernel has acknowledged the mount. Requests are served in the background.
func (f *FakeFs) Serve(mountPoint string) error {
	logger := util.GetLogger("FakeFs.Serve")

	srv, err := fs.Mount(mountPoint, fusefs.NewRoot(f.FileSystem), f.mountOptions())
	if err != nil {
		logger.Error().Err(err).Str("mountpoint", mountPoint).Msg("Failed to mount")
		return err
	}
	f.server = srv
	logger.Debug().Str("mountpoint", mountPoint).Msg("Mounted")
	return nil
}

func (f *FakeFs) ServeAsync(mountPoint string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- f.Serve(mountPoint)
		close(done)
	}()

	return done
}

// Wait blocks until the filesystem is unmounted
func (f *FakeFs) Wait() error {
	if f.server == nil {
		return ErrNotMounted
	}
	f.server.Wait()
	return nil
}

// Unmount cleanly unmounts the filesystem.
func (f *FakeFs) Unmount() error {
	if f.server == nil {
		return nil
	}
	return f.server.Unmount()
}
