package source

import (
	"os"
	"path/filepath"
	"strings"

	"sourcepack/pkg/config"
)

// DefaultName is used when no display name can be derived.
const DefaultName = "SourcePack_Output"

// DisplayName derives a short project name from a descriptor without touching
// the filesystem: trailing separators and a ".git" suffix are dropped and the
// last path segment is kept. It returns "" when nothing usable remains.
func DisplayName(descriptor string) string {
	s := strings.TrimSpace(descriptor)
	s = strings.TrimRight(s, `/\`)
	s = strings.TrimSuffix(s, ".git")
	s = strings.TrimRight(s, `/\`)
	if i := strings.LastIndexAny(s, `/\:`); i >= 0 {
		s = s[i+1:]
	}
	if s == "." || s == ".." {
		return ""
	}
	return s
}

// DefaultOutputPath proposes "<name>.md" or "<name>.xml". For an existing local
// directory the file sits next to it; otherwise the path is relative to the
// working directory.
func DefaultOutputPath(descriptor string, format config.Format) string {
	descriptor = strings.TrimSpace(descriptor)
	if info, err := os.Stat(descriptor); err == nil && info.IsDir() {
		if abs, err := filepath.Abs(descriptor); err == nil {
			return filepath.Join(filepath.Dir(abs), localName(abs)+format.Ext())
		}
	}

	name := DisplayName(descriptor)
	if name == "" {
		name = DefaultName
	}
	return name + format.Ext()
}
