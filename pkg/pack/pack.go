// Package pack runs the packing pipeline: acquire a source, walk it, process
// each file and stream the result into one document.
package pack

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sourcepack/pkg/config"
	"sourcepack/pkg/content"
	"sourcepack/pkg/emit"
	"sourcepack/pkg/ignore"
	"sourcepack/pkg/packerr"
	"sourcepack/pkg/source"
	"sourcepack/pkg/walk"
)

// Request describes one run.
type Request struct {
	Config      config.Config
	Source      string // Local directory or repository reference.
	Destination string // Output file; its parent directory is created.

	// OnProgress is called with each file's relative path right after the file
	// has been written, in output order.
	OnProgress func(relPath string)
}

// Result summarizes a successful run.
type Result struct {
	Destination string
	Name        string
	Files       int // Files written, placeholders included.
	Binary      int // Files rendered as placeholders.
	Skipped     []walk.Skip
	Elapsed     time.Duration
}

// SkippedErr combines the errors of every skipped entry, or returns nil.
func (r *Result) SkippedErr() error {
	var err error
	for _, s := range r.Skipped {
		err = multierr.Append(err, s.Err)
	}
	return err
}

// Packer runs pack requests. It holds no state between runs, so one Packer may
// serve concurrent runs with distinct destinations.
type Packer struct {
	// Cloner replaces the git cloner used for remote sources.
	Cloner source.Cloner
	// TempRoot is where remote sources are cloned; empty uses os.TempDir.
	TempRoot string

	logger *zap.Logger
}

// NewPacker creates a Packer.
func NewPacker(logger *zap.Logger) *Packer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Packer{logger: logger}
}

// Run packs req.Source into req.Destination. Failures are *packerr.Error values
// of kind CONFIG, ACQUISITION or EMIT, or the context's error when ctx ends
// mid-run. Unreadable entries do not fail the run; they are listed in
// Result.Skipped. A destination left behind by a failed write is not removed.
func (p *Packer) Run(ctx context.Context, req Request) (_ *Result, err error) {
	start := time.Now()
	cfg := req.Config

	if strings.TrimSpace(req.Source) == "" {
		return nil, packerr.New(packerr.KindConfig, "source is required")
	}
	if strings.TrimSpace(req.Destination) == "" {
		return nil, packerr.New(packerr.KindConfig, "destination is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	acq := source.NewAcquirer(cfg.Clone, p.logger)
	if p.Cloner != nil {
		acq.Cloner = p.Cloner
	}
	acq.TempRoot = p.TempRoot

	resolved, err := acq.Resolve(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resolved.Cleanup(); cerr != nil {
			p.logger.Warn("Failed to clean up source", zap.String("root", resolved.Root), zap.Error(cerr))
		}
	}()

	dest, err := filepath.Abs(req.Destination)
	if err != nil {
		return nil, packerr.Wrap(err, packerr.KindEmit, "invalid destination").WithPath(req.Destination)
	}
	if err := ensureDirectory(filepath.Dir(dest), p.logger); err != nil {
		return nil, packerr.Wrap(err, packerr.KindEmit, "failed to create output directory").WithPath(dest)
	}
	f, err := os.Create(dest)
	if err != nil {
		return nil, packerr.Wrap(err, packerr.KindEmit, "failed to create output file").WithPath(dest)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = packerr.Wrap(cerr, packerr.KindEmit, "failed to close output file").WithPath(dest)
		}
	}()

	logger := p.logger.With(zap.String("source", resolved.Name))
	logger.Debug("Writing output",
		zap.String("root", resolved.Root),
		zap.String("destination", dest),
		zap.String("format", string(cfg.Format)),
		zap.String("mode", string(cfg.Mode)))

	out := bufio.NewWriter(f)
	emitter, err := emit.New(cfg.Format, cfg.Mode, out)
	if err != nil {
		return nil, err
	}

	result := &Result{Destination: dest, Name: resolved.Name}
	walker := walk.New(ignore.New(cfg), logger)
	walker.Exclude(dest)
	walker.OnSkip = func(s walk.Skip) {
		result.Skipped = append(result.Skipped, s)
	}
	proc := content.NewProcessor(cfg, logger)

	if err := emitter.Begin(resolved.Name); err != nil {
		return nil, withPath(err, dest)
	}

	for entry, werr := range walker.Walk(ctx, resolved.Root) {
		if werr != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("pack interrupted after %d files: %w", result.Files, werr)
			}
			return nil, werr
		}

		doc, perr := proc.Process(entry)
		if perr != nil {
			logger.Warn("Skipping unreadable file", zap.String("file", entry.RelPath), zap.Error(perr))
			result.Skipped = append(result.Skipped, walk.Skip{RelPath: entry.RelPath, Err: perr})
			continue
		}

		if err := emitter.File(doc); err != nil {
			return nil, withPath(err, dest)
		}
		if err := out.Flush(); err != nil {
			return nil, packerr.Wrap(err, packerr.KindEmit, "failed to write output").WithPath(dest)
		}

		result.Files++
		if doc.Kind != content.KindText {
			result.Binary++
		}
		if req.OnProgress != nil {
			req.OnProgress(entry.RelPath)
		}
	}

	if err := emitter.End(); err != nil {
		return nil, withPath(err, dest)
	}
	if err := out.Flush(); err != nil {
		return nil, packerr.Wrap(err, packerr.KindEmit, "failed to flush output").WithPath(dest)
	}

	result.Elapsed = time.Since(start)
	logger.Info("Packed source",
		zap.String("destination", dest),
		zap.Int("files", result.Files),
		zap.Int("placeholders", result.Binary),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

func withPath(err error, path string) error {
	var pe *packerr.Error
	if errors.As(err, &pe) && pe.Path == "" {
		return pe.WithPath(path)
	}
	return err
}
