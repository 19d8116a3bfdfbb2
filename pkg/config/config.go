// Package config holds the immutable settings of a single pack run.
package config

import (
	"strings"
	"time"

	"sourcepack/pkg/packerr"
)

// Format selects the syntax of the output document.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatXML      Format = "xml"
)

// ParseFormat accepts "markdown", "md" or "xml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "xml":
		return FormatXML, nil
	}
	return "", packerr.Newf(packerr.KindConfig, "unknown format %q (want markdown or xml)", s)
}

// Ext returns the conventional file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatXML {
		return ".xml"
	}
	return ".md"
}

// Mode selects how much of each file ends up in the document.
type Mode string

const (
	// ModeFull embeds file bodies.
	ModeFull Mode = "full"
	// ModeTree lists included files with their sizes and no bodies.
	ModeTree Mode = "tree"
)

// ParseMode accepts "full" or "tree", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return ModeFull, nil
	case "tree":
		return ModeTree, nil
	}
	return "", packerr.Newf(packerr.KindConfig, "unknown mode %q (want full or tree)", s)
}

// Clone configures remote acquisition.
type Clone struct {
	Timeout time.Duration // Upper bound for the whole fetch; 0 disables it.
	Depth   int           // History depth; 0 fetches everything.
	Branch  string        // Branch to check out; empty uses the remote HEAD.
	Token   string        // Optional HTTP token for private repositories.
}

// Config is built once per run and passed by value.
type Config struct {
	Compress bool

	IgnoreGit    bool
	IgnoreBuild  bool
	IgnoreGradle bool

	Format Format
	Mode   Mode

	IgnoreFiles           []string // Exact basenames, files or directories.
	IgnoreExts            []string // Extensions without the leading dot.
	IgnorePatterns        []string // gitignore-style lines.
	IgnoreCaseInsensitive bool     // Case-insensitive fallback for IgnoreFiles and IgnoreExts.

	MaxFileSize int64 // Bytes; 0 means unlimited.

	Clone Clone
}

// Default returns the settings a fresh run starts from.
func Default() Config {
	return Config{
		IgnoreGit:    true,
		IgnoreBuild:  true,
		IgnoreGradle: true,
		Format:       FormatMarkdown,
		Mode:         ModeFull,
		IgnoreExts:   []string{"log", "tmp"},
		Clone: Clone{
			Timeout: 2 * time.Minute,
			Depth:   1,
		},
	}
}

// Validate reports the first problem with c as a ConfigError.
func (c Config) Validate() error {
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return err
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.MaxFileSize < 0 {
		return packerr.Newf(packerr.KindConfig, "max file size must not be negative, got %d", c.MaxFileSize)
	}
	if c.Clone.Depth < 0 {
		return packerr.Newf(packerr.KindConfig, "clone depth must not be negative, got %d", c.Clone.Depth)
	}
	if c.Clone.Timeout < 0 {
		return packerr.Newf(packerr.KindConfig, "clone timeout must not be negative, got %s", c.Clone.Timeout)
	}
	for _, name := range c.IgnoreFiles {
		if err := checkListEntry("ignore file", name); err != nil {
			return err
		}
	}
	for _, ext := range c.IgnoreExts {
		if err := checkListEntry("ignore extension", ext); err != nil {
			return err
		}
	}
	return nil
}

func checkListEntry(what, v string) error {
	if strings.TrimSpace(v) == "" {
		return packerr.Newf(packerr.KindConfig, "%s must not be blank", what)
	}
	if strings.ContainsAny(v, `/\`) {
		return packerr.Newf(packerr.KindConfig, "%s %q must be a bare name, not a path", what, v)
	}
	return nil
}

// ParseList splits a comma-separated list, trimming entries and dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
