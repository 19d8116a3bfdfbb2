// Package emit serializes processed files into Markdown or XML documents.
//
// Emitters write each file as soon as it is handed to them and keep no more
// than the current file in memory.
package emit

import (
	"fmt"
	"io"

	"sourcepack/pkg/config"
	"sourcepack/pkg/content"
	"sourcepack/pkg/packerr"
)

// Emitter writes one document. Begin is called once, then File once per file
// in output order, then End.
type Emitter interface {
	Begin(name string) error
	File(doc content.Document) error
	End() error
}

// New returns the emitter for format and mode writing to w.
func New(format config.Format, mode config.Mode, w io.Writer) (Emitter, error) {
	out := &writer{w: w}
	tree := mode == config.ModeTree
	switch format {
	case config.FormatMarkdown:
		return &markdown{out: out, tree: tree}, nil
	case config.FormatXML:
		return &xmlEmitter{out: out, tree: tree}, nil
	default:
		return nil, packerr.Newf(packerr.KindConfig, "unsupported format %q", format)
	}
}

// writer remembers the first write error and turns later writes into no-ops.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.w, s); err != nil {
		w.err = packerr.Wrap(err, packerr.KindEmit, "failed to write output")
	}
}

func (w *writer) Printf(format string, args ...any) {
	w.WriteString(fmt.Sprintf(format, args...))
}

func (w *writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	if err != nil {
		w.err = packerr.Wrap(err, packerr.KindEmit, "failed to write output")
	}
	return n, w.err
}
