package templates

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSceneNames(t *testing.T) {
	require.Equal(t, []string{"default", "minimal", "nested"}, SceneNames())
	require.Contains(t, SceneNames(), DefaultScene)
}

func TestScene(t *testing.T) {
	data, err := Scene("minimal")
	require.NoError(t, err)
	require.Contains(t, string(data), "hello from arbor")

	_, err = Scene("nope")
	require.EqualError(t, err, `unknown scene template "nope" (available: default, minimal, nested)`)
}

func TestTemplate_Header(t *testing.T) {
	fsys := ScenesFS()

	var missing []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(string(data), "# Arbor scene\n") {
			missing = append(missing, path)
		}
		return nil
	})

	require.NoError(t, err)
	require.Empty(t, missing, "templates without header: %v", missing)
}
