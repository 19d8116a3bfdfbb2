package emit

import (
	"strings"

	"sourcepack/pkg/content"
)

const minFence = 3

type markdown struct {
	out  *writer
	tree bool

	// dirs is the directory chain of the last file listed in tree mode.
	dirs []string
}

func (m *markdown) Begin(name string) error {
	m.out.Printf("# %s\n", name)
	if m.tree {
		m.out.WriteString("\n```text\n")
	}
	return m.out.err
}

func (m *markdown) File(doc content.Document) error {
	if m.tree {
		m.treeLine(doc)
		return m.out.err
	}

	m.out.Printf("\n## %s\n\n", doc.RelPath)
	if doc.Kind != content.KindText {
		m.out.Printf("_%s_\n", doc.Placeholder())
		return m.out.err
	}

	fence := strings.Repeat("`", max(minFence, longestRun(doc.Text, '`')+1))
	m.out.Printf("%s%s\n", fence, doc.Language)
	m.out.WriteString(doc.Text)
	if doc.Text != "" && !strings.HasSuffix(doc.Text, "\n") {
		m.out.WriteString("\n")
	}
	m.out.Printf("%s\n", fence)
	return m.out.err
}

func (m *markdown) End() error {
	if m.tree {
		m.out.WriteString("```\n")
	}
	return m.out.err
}

// treeLine lists the directories of doc that differ from the previous file,
// then doc itself, each indented by its depth.
func (m *markdown) treeLine(doc content.Document) {
	parts := strings.Split(doc.RelPath, "/")
	dirs, base := parts[:len(parts)-1], parts[len(parts)-1]

	common := 0
	for common < len(dirs) && common < len(m.dirs) && dirs[common] == m.dirs[common] {
		common++
	}
	for depth := common; depth < len(dirs); depth++ {
		m.out.Printf("%s%s/\n", indent(depth), dirs[depth])
	}
	m.dirs = append(m.dirs[:0], dirs...)

	suffix := ""
	if doc.Kind != content.KindText {
		suffix = ", " + doc.Kind.String()
	}
	m.out.Printf("%s%s (%d bytes%s)\n", indent(len(dirs)), base, doc.Size, suffix)
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// longestRun returns the length of the longest run of c in s.
func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}
