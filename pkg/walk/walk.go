// Package walk enumerates the files of a source tree in a stable order.
package walk

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sourcepack/pkg/packerr"
)

// Entry is one included regular file.
type Entry struct {
	RelPath string      // Slash-separated, relative to the walk root.
	AbsPath string      // Path used for reading.
	Size    int64       // Size in bytes at the time of the walk.
	Mode    fs.FileMode // Mode of the file (of the link target for symlinks).
}

// Skip records an entry left out because it could not be read.
type Skip struct {
	RelPath string
	Err     error
}

// ErrLineBreakInName is reported for entries whose name contains a line break,
// which cannot be written as a single heading or attribute.
var ErrLineBreakInName = errors.New("name contains a line break")

// Filter decides inclusion for a single entry.
type Filter interface {
	ShouldInclude(relPath string, isDir bool) bool
}

// Walker walks source trees with a Filter.
type Walker struct {
	// OnSkip, when set, receives every entry that could not be read.
	OnSkip func(Skip)

	filter   Filter
	exclude  map[string]bool
	excluded []fs.FileInfo
	logger   *zap.Logger
}

// New creates a Walker. Excluded directories are never opened.
func New(filter Filter, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		filter:  filter,
		exclude: make(map[string]bool),
		logger:  logger,
	}
}

// Exclude omits the file at absPath from every walk, typically the output file
// when it lives inside the tree being packed. If the file already exists it is
// also recognized when reached through a symlinked path.
func (w *Walker) Exclude(absPath string) {
	if abs, err := filepath.Abs(absPath); err == nil {
		w.exclude[abs] = true
	}
	if info, err := os.Stat(absPath); err == nil {
		w.ExcludeFile(info)
	}
}

// ExcludeFile omits every entry that is the same file as info.
func (w *Walker) ExcludeFile(info fs.FileInfo) {
	w.excluded = append(w.excluded, info)
}

func (w *Walker) isExcluded(abs string, info fs.FileInfo) bool {
	if w.exclude[abs] {
		return true
	}
	for _, x := range w.excluded {
		if os.SameFile(x, info) {
			return true
		}
	}
	return false
}

// Walk returns the included files under root, depth-first, visiting the entries
// of each directory in byte-wise order of their names. The sequence is lazy and
// reads the filesystem again on every call. A non-nil error is fatal and is the
// last element produced.
func (w *Walker) Walk(ctx context.Context, root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		root, err := filepath.Abs(root)
		if err != nil {
			yield(Entry{}, packerr.Wrap(err, packerr.KindAcquisition, "cannot resolve source root"))
			return
		}
		canon, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield(Entry{}, packerr.Wrap(err, packerr.KindAcquisition, "cannot resolve source root").WithPath(root))
			return
		}
		w.logger.Debug("Starting walk", zap.String("root", root))
		ancestors := map[string]bool{canon: true}
		w.walkDir(ctx, root, "", ancestors, yield)
	}
}

// walkDir reports false once the walk must stop.
func (w *Walker) walkDir(ctx context.Context, dir, rel string, ancestors map[string]bool, yield func(Entry, error) bool) bool {
	// os.ReadDir returns entries sorted by name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		if rel == "" {
			yield(Entry{}, packerr.Wrap(err, packerr.KindAcquisition, "cannot read source root").WithPath(dir))
			return false
		}
		w.skip(rel, err)
		return true
	}

	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			yield(Entry{}, err)
			return false
		}

		childRel := path.Join(rel, de.Name())
		childAbs := filepath.Join(dir, de.Name())

		if strings.ContainsAny(de.Name(), "\r\n") {
			w.skip(childRel, ErrLineBreakInName)
			continue
		}

		info, err := entryInfo(de, childAbs)
		if err != nil {
			w.skip(childRel, err)
			continue
		}

		if info.IsDir() {
			if !w.filter.ShouldInclude(childRel, true) {
				w.logger.Debug("Skipping ignored directory", zap.String("directory", childRel))
				continue
			}
			canon, err := filepath.EvalSymlinks(childAbs)
			if err != nil {
				w.skip(childRel, err)
				continue
			}
			if ancestors[canon] {
				w.logger.Debug("Skipping symlink cycle", zap.String("directory", childRel), zap.String("target", canon))
				continue
			}
			ancestors[canon] = true
			ok := w.walkDir(ctx, childAbs, childRel, ancestors, yield)
			delete(ancestors, canon)
			if !ok {
				return false
			}
			continue
		}

		if !info.Mode().IsRegular() {
			// Sockets, devices and pipes have no content to pack; pipes would block.
			w.logger.Debug("Skipping non-regular file", zap.String("file", childRel), zap.Stringer("mode", info.Mode()))
			continue
		}
		if !w.filter.ShouldInclude(childRel, false) {
			w.logger.Debug("Skipping ignored file", zap.String("file", childRel))
			continue
		}
		if w.isExcluded(childAbs, info) {
			w.logger.Debug("Skipping output file", zap.String("file", childRel))
			continue
		}

		if !yield(Entry{RelPath: childRel, AbsPath: childAbs, Size: info.Size(), Mode: info.Mode()}, nil) {
			return false
		}
	}
	return true
}

// entryInfo stats symlinks through to their target.
func entryInfo(de fs.DirEntry, abs string) (fs.FileInfo, error) {
	if de.Type()&fs.ModeSymlink != 0 {
		return os.Stat(abs)
	}
	return de.Info()
}

func (w *Walker) skip(rel string, err error) {
	w.logger.Warn("Skipping unreadable entry", zap.String("path", rel), zap.Error(err))
	if w.OnSkip != nil {
		w.OnSkip(Skip{RelPath: rel, Err: packerr.Wrap(err, packerr.KindWalk, "unreadable entry").WithPath(rel)})
	}
}
