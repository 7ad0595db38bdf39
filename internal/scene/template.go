package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/paths"
	"github.com/zjrosen/arbor/internal/templates"
)

// DefaultPath is where arbor looks for a scene when none is configured.
var DefaultPath = filepath.Join(paths.DirName, paths.SceneFile)

// DefaultTemplate returns the starter scene exercising every panel kind.
func DefaultTemplate() string {
	data, err := templates.Scene(templates.DefaultScene)
	if err != nil {
		panic(err) // embedded at build time
	}
	return string(data)
}

// WriteDefault writes DefaultTemplate to path, creating parent directories.
func WriteDefault(path string) error {
	return WriteTemplate(path, templates.DefaultScene)
}

// WriteTemplate writes the named built-in scene to path. The template is
// parsed first so a broken template never lands on disk.
func WriteTemplate(path, name string) error {
	data, err := templates.Scene(name)
	if err != nil {
		return err
	}
	if _, err := Parse(data); err != nil {
		return fmt.Errorf("template %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating scene directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing scene: %w", err)
	}
	log.Info(log.CatScene, "Created scene from template", "path", path, "template", name)
	return nil
}
