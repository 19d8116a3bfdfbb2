package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sourcepack/pkg/config"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://github.com/user/repo", "repo"},
		{"https://github.com/user/repo.git", "repo"},
		{"https://github.com/user/repo/", "repo"},
		{"https://github.com/user/repo.git/", "repo"},
		{"git@github.com:user/repo.git", "repo"},
		{"git@host:repo.git", "repo"},
		{"/home/me/projects/app/", "app"},
		{`C:\Projects\MySource\`, "MySource"},
		{"/home/me/app/.git", "app"},
		{"bare", "bare"},
		{"  padded  ", "padded"},
		{"https://", ""},
		{".git", ""},
		{".", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.in))
		})
	}
}

func TestDefaultOutputPath(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "proj")
	require.NoError(t, os.Mkdir(dir, 0o755))

	assert.Equal(t, filepath.Join(parent, "proj.md"), DefaultOutputPath(dir, config.FormatMarkdown))
	assert.Equal(t, filepath.Join(parent, "proj.xml"), DefaultOutputPath(dir+"/", config.FormatXML))
	assert.Equal(t, "repo.xml", DefaultOutputPath("https://github.com/user/repo.git", config.FormatXML))
	assert.Equal(t, DefaultName+".md", DefaultOutputPath("https://", config.FormatMarkdown))
}
