// Package source turns a user-given descriptor (a local directory or a
// repository URL) into a readable root directory for one pack run.
//
// Remote sources are cloned into a fresh temporary directory that the returned
// Cleanup removes. Callers must invoke Cleanup on every exit path:
//
//	res, err := acq.Resolve(ctx, "https://github.com/user/repo")
//	if err != nil {
//		return err
//	}
//	defer res.Cleanup()
package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sourcepack/pkg/config"
	"sourcepack/pkg/packerr"
)

// Resolved is an acquired source tree.
type Resolved struct {
	Root   string  // Absolute, readable directory.
	Name   string  // Display name for headers and default output naming.
	Remote *Remote // Nil for local sources.

	cleanup func() error
	once    sync.Once
	err     error
}

// Cleanup releases whatever Resolve created. It is safe to call more than once.
func (r *Resolved) Cleanup() error {
	r.once.Do(func() {
		if r.cleanup != nil {
			r.err = r.cleanup()
		}
	})
	return r.err
}

// Acquirer resolves source descriptors.
type Acquirer struct {
	Cloner   Cloner // Defaults to GitCloner.
	TempRoot string // Parent for clone directories; empty uses os.TempDir.

	opts   config.Clone
	logger *zap.Logger
}

// NewAcquirer creates an Acquirer that clones remotes with opts.
func NewAcquirer(opts config.Clone, logger *zap.Logger) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acquirer{
		Cloner: GitCloner{Logger: logger},
		opts:   opts,
		logger: logger,
	}
}

// Resolve maps descriptor to a root directory. Existing local directories are
// used in place; anything else must be a repository reference.
func (a *Acquirer) Resolve(ctx context.Context, descriptor string) (*Resolved, error) {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return nil, packerr.New(packerr.KindConfig, "source is required")
	}

	info, err := os.Stat(descriptor)
	switch {
	case err == nil && info.IsDir():
		return a.resolveLocal(descriptor)
	case err == nil:
		return nil, packerr.New(packerr.KindAcquisition, "source is not a directory").WithPath(descriptor)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, packerr.Wrap(err, packerr.KindAcquisition, "cannot access source").WithPath(descriptor)
	}

	remote, perr := ParseRemote(descriptor)
	if perr != nil {
		if !strings.Contains(descriptor, "://") && !scpPattern.MatchString(descriptor) {
			return nil, packerr.Wrap(fs.ErrNotExist, packerr.KindAcquisition, "source directory does not exist").WithPath(descriptor)
		}
		return nil, perr
	}
	return a.resolveRemote(ctx, remote)
}

func (a *Acquirer) resolveLocal(dir string) (*Resolved, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, packerr.Wrap(err, packerr.KindAcquisition, "cannot resolve source path").WithPath(dir)
	}
	a.logger.Debug("Using local source", zap.String("root", abs))
	return &Resolved{Root: abs, Name: localName(abs)}, nil
}

func (a *Acquirer) resolveRemote(ctx context.Context, remote *Remote) (*Resolved, error) {
	tmp, err := os.MkdirTemp(a.TempRoot, "sourcepack-*")
	if err != nil {
		return nil, packerr.Wrap(err, packerr.KindAcquisition, "cannot create temporary directory")
	}
	remove := func() error {
		if err := os.RemoveAll(tmp); err != nil {
			a.logger.Warn("Failed to remove temporary clone", zap.String("dir", tmp), zap.Error(err))
			return err
		}
		a.logger.Debug("Removed temporary clone", zap.String("dir", tmp))
		return nil
	}

	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	cloner := a.Cloner
	if cloner == nil {
		cloner = GitCloner{Logger: a.logger}
	}

	a.logger.Info("Fetching remote source", zap.String("url", remote.URL), zap.String("dir", tmp))
	if err := cloner.Clone(ctx, tmp, remote, a.opts); err != nil {
		_ = remove()
		return nil, packerr.Wrap(err, packerr.KindAcquisition, "failed to fetch repository").WithPath(remote.URL)
	}

	name := DisplayName(remote.URL)
	if name == "" {
		name = DefaultName
	}
	return &Resolved{Root: tmp, Name: name, Remote: remote, cleanup: remove}, nil
}

func localName(abs string) string {
	if name := DisplayName(abs); name != "" {
		return name
	}
	return DefaultName
}
