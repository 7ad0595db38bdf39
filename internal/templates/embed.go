// Package templates embeds the built-in scene templates.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// DefaultScene is the template written on first run.
const DefaultScene = "default"

// sceneTemplates embeds every built-in scene as scenes/<name>.yaml.
//
//go:embed scenes/*.yaml
var sceneTemplates embed.FS

// ScenesFS returns the embedded filesystem containing scene templates.
func ScenesFS() fs.FS {
	return sceneTemplates
}

// SceneNames returns the names of the built-in scenes, sorted.
func SceneNames() []string {
	entries, err := fs.ReadDir(sceneTemplates, "scenes")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Scene returns the named built-in scene.
func Scene(name string) ([]byte, error) {
	data, err := fs.ReadFile(sceneTemplates, path.Join("scenes", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown scene template %q (available: %s)", name, strings.Join(SceneNames(), ", "))
	}
	return data, nil
}
