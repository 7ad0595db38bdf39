// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DirName is the per-project arbor directory.
	DirName = ".arbor"
	// SceneFile is the scene file name inside DirName.
	SceneFile = "scene.yaml"
)

// ResolveScene resolves the scene file path from user input.
// It accepts a scene file, a project dir or an .arbor dir, and follows
// redirect files so several checkouts can share one scene.
//
// Input normalization:
//   - "/path/to/project" -> "/path/to/project/.arbor/scene.yaml"
//   - "/path/to/project/.arbor" -> "/path/to/project/.arbor/scene.yaml"
//   - "/path/to/demo.yaml" -> "/path/to/demo.yaml"
//   - "" -> ".arbor/scene.yaml"
//
// Redirect handling:
//   - If .arbor/redirect exists, its content names the .arbor dir to use,
//     relative to the redirecting dir
func ResolveScene(path string) string {
	if path == "" {
		path = "."
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		// Missing paths are taken as files so the caller can create them
		if filepath.Base(path) == DirName {
			return filepath.Join(followRedirect(path), SceneFile)
		}
		return path
	}

	dir := path
	if filepath.Base(path) != DirName {
		dir = filepath.Join(path, DirName)
	}
	return filepath.Join(followRedirect(dir), SceneFile)
}

// followRedirect checks for a redirect file and follows it if present.
func followRedirect(dir string) string {
	content, err := os.ReadFile(filepath.Join(dir, "redirect")) //nolint:gosec // redirect path is within the arbor dir
	if err != nil {
		return dir
	}

	target := strings.TrimSpace(string(content))
	if target == "" {
		return dir
	}
	return filepath.Clean(filepath.Join(dir, target))
}
