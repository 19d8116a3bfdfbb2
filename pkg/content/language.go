package content

import (
	"path"
	"strings"
)

var languageByName = map[string]string{
	"Dockerfile":      "dockerfile",
	"Makefile":        "makefile",
	"GNUmakefile":     "makefile",
	"CMakeLists.txt":  "cmake",
	"Jenkinsfile":     "groovy",
	"go.mod":          "go",
	"go.sum":          "text",
	"build.gradle":    "groovy",
	"settings.gradle": "groovy",
}

var languageByExt = map[string]string{
	"bash":       "bash",
	"c":          "c",
	"cc":         "cpp",
	"cfg":        "ini",
	"clj":        "clojure",
	"conf":       "ini",
	"cpp":        "cpp",
	"cs":         "csharp",
	"css":        "css",
	"csv":        "csv",
	"dart":       "dart",
	"diff":       "diff",
	"ex":         "elixir",
	"exs":        "elixir",
	"fish":       "fish",
	"go":         "go",
	"gradle":     "groovy",
	"graphql":    "graphql",
	"groovy":     "groovy",
	"h":          "c",
	"hpp":        "cpp",
	"hs":         "haskell",
	"htm":        "html",
	"html":       "html",
	"ini":        "ini",
	"java":       "java",
	"js":         "javascript",
	"json":       "json",
	"jsx":        "jsx",
	"kt":         "kotlin",
	"kts":        "kotlin",
	"lua":        "lua",
	"m":          "objectivec",
	"md":         "markdown",
	"markdown":   "markdown",
	"mjs":        "javascript",
	"php":        "php",
	"pl":         "perl",
	"proto":      "protobuf",
	"ps1":        "powershell",
	"py":         "python",
	"r":          "r",
	"rb":         "ruby",
	"rs":         "rust",
	"scala":      "scala",
	"scss":       "scss",
	"sh":         "bash",
	"sql":        "sql",
	"svelte":     "svelte",
	"swift":      "swift",
	"tf":         "hcl",
	"toml":       "toml",
	"ts":         "typescript",
	"tsx":        "tsx",
	"txt":        "text",
	"vue":        "vue",
	"xml":        "xml",
	"yaml":       "yaml",
	"yml":        "yaml",
	"zig":        "zig",
	"zsh":        "zsh",
	"properties": "properties",
}

// Language returns a code fence hint for relPath, or "" when none is known.
func Language(relPath string) string {
	base := path.Base(relPath)
	if lang, ok := languageByName[base]; ok {
		return lang
	}
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return ""
	}
	return languageByExt[strings.ToLower(base[i+1:])]
}
