package content

import (
	"strings"
	"unicode"
)

// Compress reduces whitespace in text: line endings become LF, trailing
// whitespace is stripped from every line, runs of blank lines collapse to one,
// and leading and trailing blank lines are dropped. Non-empty output ends with
// exactly one newline. Compress(Compress(s)) == Compress(s).
func Compress(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	prevBlank := false
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			if prevBlank || len(out) == 0 {
				continue
			}
			prevBlank = true
		} else {
			prevBlank = false
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}
