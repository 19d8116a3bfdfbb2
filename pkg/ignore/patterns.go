package ignore

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Pattern is one compiled gitignore-style line.
type Pattern struct {
	Pattern *regexp.Regexp // Compiled regular expression for the pattern.
	Negate  bool           // Line started with '!'.
	DirOnly bool           // Line ended with '/'.
	Line    string         // Original pattern line.
	LineNo  int            // Position in the source list (1-based).
}

// Patterns is an ordered set of gitignore-style patterns. The last matching
// pattern decides, so a later '!' line re-includes what an earlier line excluded.
type Patterns struct {
	patterns []*Pattern
}

// CompilePatterns compiles lines, skipping blanks, comments and lines that do not
// compile.
func CompilePatterns(lines ...string) *Patterns {
	ps := &Patterns{}
	for i, line := range lines {
		if p := parsePatternLine(line); p != nil {
			p.LineNo = i + 1
			ps.patterns = append(ps.patterns, p)
		}
	}
	return ps
}

// Len returns the number of compiled patterns.
func (ps *Patterns) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.patterns)
}

// MatchesPath reports whether relPath is excluded by the patterns.
func (ps *Patterns) MatchesPath(relPath string, isDir bool) bool {
	matched, _ := ps.MatchesPathWithPattern(relPath, isDir)
	return matched
}

// MatchesPathWithPattern is like MatchesPath and also returns the deciding pattern.
func (ps *Patterns) MatchesPathWithPattern(relPath string, isDir bool) (bool, *Pattern) {
	if ps.Len() == 0 {
		return false, nil
	}
	relPath = normalizePath(relPath)

	matched := false
	var matchedPattern *Pattern
	for _, p := range ps.patterns {
		if p.matches(relPath, isDir) {
			matched = !p.Negate
			matchedPattern = p
		}
	}
	return matched, matchedPattern
}

// matches tests the path itself and every ancestor directory, so "docs/" also
// covers "docs/guide/intro.md".
func (p *Pattern) matches(relPath string, isDir bool) bool {
	segments := strings.Split(relPath, "/")
	for i := 1; i <= len(segments); i++ {
		candidate := strings.Join(segments[:i], "/")
		candidateIsDir := i < len(segments) || isDir
		if p.DirOnly && !candidateIsDir {
			continue
		}
		if p.Pattern.MatchString(candidate) {
			return true
		}
	}
	return false
}

// parsePatternLine turns one line into a Pattern, or nil for blanks and comments.
func parsePatternLine(line string) *Pattern {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	p := &Pattern{Line: line}
	if strings.HasPrefix(trimmed, "!") {
		p.Negate = true
		trimmed = trimmed[1:]
	}
	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "/") {
		p.DirOnly = true
		trimmed = strings.TrimRight(trimmed, "/")
	}

	// A slash at the start or in the middle anchors the pattern to the root.
	anchored := strings.Contains(trimmed, "/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil
	}

	body := wildcardToRegex(trimmed)
	if anchored {
		body = "^" + body + "$"
	} else {
		body = "^(?:.*/)?" + body + "$"
	}

	re, err := regexp.Compile(body)
	if err != nil {
		return nil
	}
	p.Pattern = re
	return p
}

// wildcardToRegex converts '*', '?' and '**' to regex, quoting everything else.
func wildcardToRegex(pattern string) string {
	var b strings.Builder
	for rest := pattern; rest != ""; {
		switch {
		case strings.HasPrefix(rest, "**/"):
			b.WriteString("(?:.*/)?")
			rest = rest[3:]
		case strings.HasPrefix(rest, "**"):
			b.WriteString(".*")
			rest = rest[2:]
		case rest[0] == '*':
			b.WriteString("[^/]*")
			rest = rest[1:]
		case rest[0] == '?':
			b.WriteString("[^/]")
			rest = rest[1:]
		default:
			_, size := utf8.DecodeRuneInString(rest)
			b.WriteString(regexp.QuoteMeta(rest[:size]))
			rest = rest[size:]
		}
	}
	return b.String()
}

// normalizePath converts OS-specific separators to forward slashes.
func normalizePath(path string) string {
	return strings.Trim(filepath.ToSlash(path), "/")
}
