package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveScene(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(project, DirName), 0o750))
	file := filepath.Join(root, "demo.yaml")
	require.NoError(t, os.WriteFile(file, []byte("panels: []\n"), 0o600))

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"project dir", project, filepath.Join(project, DirName, SceneFile)},
		{"arbor dir", filepath.Join(project, DirName), filepath.Join(project, DirName, SceneFile)},
		{"scene file", file, file},
		{"missing file", filepath.Join(root, "missing.yaml"), filepath.Join(root, "missing.yaml")},
		{"unclean path", project + "/./", filepath.Join(project, DirName, SceneFile)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ResolveScene(tt.input))
		})
	}
}

func TestResolveScene_Empty(t *testing.T) {
	t.Chdir(t.TempDir())
	require.Equal(t, filepath.Join(DirName, SceneFile), ResolveScene(""))
}

func TestResolveScene_Redirect(t *testing.T) {
	root := t.TempDir()
	mainDir := filepath.Join(root, "main", DirName)
	worktree := filepath.Join(root, "worktree", DirName)
	require.NoError(t, os.MkdirAll(mainDir, 0o750))
	require.NoError(t, os.MkdirAll(worktree, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(worktree, "redirect"), []byte("../../main/.arbor\n"), 0o600))

	require.Equal(t, filepath.Join(mainDir, SceneFile), ResolveScene(filepath.Join(root, "worktree")))
}

func TestResolveScene_EmptyRedirect(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DirName)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "redirect"), []byte("  \n"), 0o600))

	require.Equal(t, filepath.Join(dir, SceneFile), ResolveScene(dir))
}
