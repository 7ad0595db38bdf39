// Package scene loads YAML scene files and builds them into lifecycle
// chips that register widgets with the shared renderable set.
//
// A scene is a list of panels. Each panel becomes one registration; a
// group panel hosts its own panels in a nested set published under its
// own context key and contributes a single wrapping element to the
// enclosing set.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/arbor/internal/widgets"
)

// Panel kinds.
const (
	KindText     = "text"
	KindMarkdown = "markdown"
	KindSpinner  = "spinner"
	KindCounter  = "counter"
	KindClock    = "clock"
	KindLog      = "log"
	KindGroup    = "group"
)

// Scene is a parsed scene file.
type Scene struct {
	Title  string  `yaml:"title"`
	Panels []Panel `yaml:"panels"`

	// Dir resolves relative markdown file paths. Load sets it to the
	// scene file's directory.
	Dir string `yaml:"-"`
}

// Panel describes one widget, or a nested group of panels.
type Panel struct {
	Kind  string `yaml:"kind"`
	Title string `yaml:"title,omitempty"`
	Class string `yaml:"class,omitempty"`

	Text   string `yaml:"text,omitempty"`   // text, spinner label, counter label, clock label
	Source string `yaml:"source,omitempty"` // markdown
	File   string `yaml:"file,omitempty"`   // markdown, relative to the scene
	Style  string `yaml:"style,omitempty"`  // spinner
	Start  int    `yaml:"start,omitempty"`  // counter
	Lines  int    `yaml:"lines,omitempty"`  // log

	Key      string  `yaml:"key,omitempty"`      // group context key
	Selector string  `yaml:"selector,omitempty"` // group wrapping element
	Panels   []Panel `yaml:"panels,omitempty"`   // group children
}

// Parse decodes a scene. Unknown fields are rejected.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// Validate checks every panel. Errors name the panel by its path, e.g.
// panels[1].panels[0].
func (s *Scene) Validate() error {
	keys := make(map[string]string)
	return validatePanels("panels", s.Panels, keys)
}

func validatePanels(path string, panels []Panel, keys map[string]string) error {
	for i, p := range panels {
		at := fmt.Sprintf("%s[%d]", path, i)
		if err := p.validate(at, keys); err != nil {
			return err
		}
	}
	return nil
}

func (p Panel) validate(at string, keys map[string]string) error {
	switch p.Kind {
	case KindText:
		if p.Text == "" {
			return fmt.Errorf("%s: text is required for kind %q", at, p.Kind)
		}
	case KindMarkdown:
		if (p.Source == "") == (p.File == "") {
			return fmt.Errorf("%s: exactly one of source or file is required for kind %q", at, p.Kind)
		}
	case KindSpinner:
		if p.Style != "" && !widgets.SpinnerStyles(p.Style) {
			return fmt.Errorf("%s: unknown spinner style %q", at, p.Style)
		}
	case KindCounter, KindClock:
	case KindLog:
		if p.Lines < 0 {
			return fmt.Errorf("%s: lines must not be negative", at)
		}
	case KindGroup:
		key := p.groupKey(at)
		if prev, ok := keys[key]; ok {
			return fmt.Errorf("%s: context key %q already used by %s", at, key, prev)
		}
		keys[key] = at
		return validatePanels(at+".panels", p.Panels, keys)
	case "":
		return fmt.Errorf("%s: kind is required", at)
	default:
		return fmt.Errorf("%s: unknown kind %q", at, p.Kind)
	}
	if len(p.Panels) > 0 {
		return fmt.Errorf("%s: only group panels may have panels", at)
	}
	return nil
}

// groupKey is the context key a group publishes its nested set under.
func (p Panel) groupKey(at string) string {
	if p.Key != "" {
		return p.Key
	}
	return "scene/" + at
}
