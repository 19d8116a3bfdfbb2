// Package content turns walked files into renderable documents.
package content

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"sourcepack/pkg/config"
	"sourcepack/pkg/packerr"
	"sourcepack/pkg/walk"
)

// Kind classifies a processed file.
type Kind int

const (
	KindText Kind = iota
	KindBinary
	KindTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindTooLarge:
		return "too-large"
	default:
		return "unknown"
	}
}

// Document is one file ready for emission. Text is empty unless Kind is KindText.
type Document struct {
	RelPath  string
	Size     int64
	Kind     Kind
	Text     string
	Language string
}

// Placeholder is the stand-in rendered for files whose body is not embedded.
func (d Document) Placeholder() string {
	switch d.Kind {
	case KindBinary:
		return fmt.Sprintf("Binary file omitted (%d bytes).", d.Size)
	case KindTooLarge:
		return fmt.Sprintf("File omitted: too large (%d bytes).", d.Size)
	default:
		return ""
	}
}

// Processor reads and classifies files according to a Config.
type Processor struct {
	compress    bool
	maxFileSize int64
	listOnly    bool
	logger      *zap.Logger
}

// NewProcessor creates a Processor for cfg.
func NewProcessor(cfg config.Config, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		compress:    cfg.Compress,
		maxFileSize: cfg.MaxFileSize,
		listOnly:    cfg.Mode == config.ModeTree,
		logger:      logger,
	}
}

// Process reads entry and returns its document. Read failures are WalkErrors
// and leave the entry out of the output.
func (p *Processor) Process(entry walk.Entry) (Document, error) {
	doc := Document{
		RelPath:  entry.RelPath,
		Size:     entry.Size,
		Language: Language(entry.RelPath),
	}

	if p.maxFileSize > 0 && entry.Size > p.maxFileSize {
		p.logger.Debug("File exceeds size limit",
			zap.String("file", entry.RelPath),
			zap.Int64("sizeBytes", entry.Size),
			zap.Int64("maxSizeBytes", p.maxFileSize))
		doc.Kind = KindTooLarge
		return doc, nil
	}

	f, err := os.Open(entry.AbsPath)
	if err != nil {
		return Document{}, packerr.Wrap(err, packerr.KindWalk, "failed to open file").WithPath(entry.RelPath)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, SniffLen)
	prefix, err := r.Peek(SniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return Document{}, packerr.Wrap(err, packerr.KindWalk, "failed to read file").WithPath(entry.RelPath)
	}
	if IsBinary(prefix) {
		p.logger.Debug("File is binary", zap.String("file", entry.RelPath))
		doc.Kind = KindBinary
		return doc, nil
	}
	if p.listOnly {
		// Tree mode renders sizes only; the body is never needed.
		return doc, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, packerr.Wrap(err, packerr.KindWalk, "failed to read file").WithPath(entry.RelPath)
	}
	doc.Size = int64(len(data))
	doc.Text = string(data)
	if p.compress {
		doc.Text = Compress(doc.Text)
	}

	p.logger.Debug("Processed file",
		zap.String("file", entry.RelPath),
		zap.Int("contentSizeBytes", len(data)),
		zap.Int("renderedSizeBytes", len(doc.Text)))
	return doc, nil
}
