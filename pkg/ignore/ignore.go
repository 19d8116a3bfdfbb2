// Package ignore decides which paths of a source tree are packed.
package ignore

import (
	"path"
	"strings"

	"sourcepack/pkg/config"
)

// Rule names the rule that excluded a path.
type Rule int

const (
	RuleNone    Rule = iota // path is included
	RuleBuiltin             // built-in directory name (.git, build, gradle)
	RuleFile                // user-supplied basename
	RuleExt                 // user-supplied extension
	RulePattern             // user-supplied gitignore-style pattern
)

func (r Rule) String() string {
	switch r {
	case RuleBuiltin:
		return "builtin"
	case RuleFile:
		return "file"
	case RuleExt:
		return "extension"
	case RulePattern:
		return "pattern"
	}
	return "none"
}

// Built-in directory names, gated by the matching Config flag.
var (
	GitDirs    = []string{".git"}
	BuildDirs  = []string{"build"}
	GradleDirs = []string{".gradle", "gradle"}
)

// Filter is a pure function of the Config it was built from.
type Filter struct {
	builtin    map[string]bool
	files      map[string]bool
	exts       map[string]bool
	foldFiles  map[string]bool
	foldExts   map[string]bool
	caseInsens bool
	patterns   *Patterns
}

// New builds a Filter from cfg. Extensions given with a leading dot are accepted.
func New(cfg config.Config) *Filter {
	f := &Filter{
		builtin:    make(map[string]bool),
		files:      make(map[string]bool),
		exts:       make(map[string]bool),
		foldFiles:  make(map[string]bool),
		foldExts:   make(map[string]bool),
		caseInsens: cfg.IgnoreCaseInsensitive,
		patterns:   CompilePatterns(cfg.IgnorePatterns...),
	}

	addAll := func(set map[string]bool, names []string) {
		for _, n := range names {
			set[n] = true
		}
	}
	if cfg.IgnoreGit {
		addAll(f.builtin, GitDirs)
	}
	if cfg.IgnoreBuild {
		addAll(f.builtin, BuildDirs)
	}
	if cfg.IgnoreGradle {
		addAll(f.builtin, GradleDirs)
	}

	for _, name := range cfg.IgnoreFiles {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f.files[name] = true
		f.foldFiles[strings.ToLower(name)] = true
	}
	for _, ext := range cfg.IgnoreExts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" {
			continue
		}
		f.exts[ext] = true
		f.foldExts[strings.ToLower(ext)] = true
	}
	return f
}

// ShouldInclude reports whether the entry at relPath is packed. It looks at the
// entry alone; the walker never asks about entries under an excluded directory.
func (f *Filter) ShouldInclude(relPath string, isDir bool) bool {
	return f.Match(relPath, isDir) == RuleNone
}

// IncludesPath is ShouldInclude applied to every ancestor directory of relPath
// and then to relPath itself, which is what a walk starting at the root decides.
func (f *Filter) IncludesPath(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	segments := strings.Split(relPath, "/")
	for i := 1; i < len(segments); i++ {
		if !f.ShouldInclude(strings.Join(segments[:i], "/"), true) {
			return false
		}
	}
	return f.ShouldInclude(relPath, isDir)
}

// Match returns the first rule that excludes relPath, or RuleNone.
func (f *Filter) Match(relPath string, isDir bool) Rule {
	relPath = normalizePath(relPath)
	base := path.Base(relPath)

	if isDir && f.builtin[base] {
		return RuleBuiltin
	}
	if f.files[base] || (f.caseInsens && f.foldFiles[strings.ToLower(base)]) {
		return RuleFile
	}
	if !isDir {
		if ext := Extension(base); ext != "" {
			if f.exts[ext] || (f.caseInsens && f.foldExts[strings.ToLower(ext)]) {
				return RuleExt
			}
		}
	}
	if f.patterns.MatchesPath(relPath, isDir) {
		return RulePattern
	}
	return RuleNone
}

// Extension returns the part of name after its last dot, or "" when name has
// no dot or ends with one.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}
