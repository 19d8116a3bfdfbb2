package cmd

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// progress rewrites a single status line while files are written. It stays
// silent unless w is a terminal.
type progress struct {
	w     io.Writer
	tty   bool
	width int
	count int
}

func newProgress(w io.Writer) *progress {
	p := &progress{w: w, width: 80}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			p.width = width
		}
	}
	return p
}

func (p *progress) Update(relPath string) {
	p.count++
	if !p.tty {
		return
	}
	line := fmt.Sprintf("Packing [%d] %s", p.count, relPath)
	fmt.Fprintf(p.w, "\r\033[K%s", truncateLeft(line, p.width-1))
}

// Done clears the status line.
func (p *progress) Done() {
	if p.tty && p.count > 0 {
		fmt.Fprint(p.w, "\r\033[K")
	}
}

// truncateLeft keeps the last limit runes of s, marking the cut with "...".
func truncateLeft(s string, limit int) string {
	n := utf8.RuneCountInString(s)
	if n <= limit {
		return s
	}
	if limit <= 3 {
		return ""
	}
	runes := []rune(s)
	return "..." + string(runes[n-limit+3:])
}
