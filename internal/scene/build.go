package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/projector"
	"github.com/zjrosen/arbor/internal/renderable"
	"github.com/zjrosen/arbor/internal/scope"
	"github.com/zjrosen/arbor/internal/vnode"
	"github.com/zjrosen/arbor/internal/widgets"
)

// Deps are the services widgets are built with.
type Deps struct {
	// Context bounds log subscriptions made by log panels.
	Context context.Context
	// Key is the set top-level panels register with (scope.DefaultKey if
	// empty).
	Key scope.Key
	// Markdown renders markdown panels. Without it the source is shown.
	Markdown *widgets.MarkdownRenderer
	// Logs opens a log stream; log.Subscribe when nil.
	Logs func(context.Context) <-chan log.LogEvent
}

// Build turns a scene into chips, one per top-level panel, in order.
func Build(s *Scene, deps Deps) ([]lifecycle.Chip, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Key == "" {
		deps.Key = scope.DefaultKey
	}
	if deps.Logs == nil {
		deps.Logs = log.Subscribe
	}
	b := builder{deps: deps, dir: s.Dir}
	chips, err := b.panels("panels", s.Panels, deps.Key)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatScene, "scene built", "title", s.Title, "panels", len(chips))
	return chips, nil
}

type builder struct {
	deps Deps
	dir  string
}

func (b builder) panels(path string, panels []Panel, key scope.Key) ([]lifecycle.Chip, error) {
	chips := make([]lifecycle.Chip, 0, len(panels))
	for i, p := range panels {
		at := fmt.Sprintf("%s[%d]", path, i)
		c, err := b.panel(at, p, key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", at, err)
		}
		chips = append(chips, c)
	}
	return chips, nil
}

func (b builder) panel(at string, p Panel, key scope.Key) (lifecycle.Chip, error) {
	if p.Kind == KindGroup {
		return b.group(at, p, key)
	}
	w, err := b.widget(p)
	if err != nil {
		return nil, err
	}
	return projector.NewRegistration(&frame{title: p.Title, class: p.Class, inner: w}, projector.WithRegistrationKey(key))
}

func (b builder) widget(p Panel) (renderable.Renderer, error) {
	switch p.Kind {
	case KindText:
		return &widgets.Text{Content: p.Text}, nil
	case KindMarkdown:
		source := p.Source
		if p.File != "" {
			path := p.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(b.dir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading markdown: %w", err)
			}
			source = string(data)
		}
		return widgets.NewMarkdown(b.deps.Markdown, source), nil
	case KindSpinner:
		return widgets.NewSpinner(p.Style, p.Text), nil
	case KindCounter:
		label := p.Text
		if label == "" {
			label = "count"
		}
		return widgets.NewCounter(label, p.Start), nil
	case KindClock:
		return &widgets.Clock{Label: p.Text}, nil
	case KindLog:
		return widgets.NewLogTail(b.deps.Logs(b.deps.Context), p.Lines), nil
	}
	return nil, fmt.Errorf("unknown kind %q", p.Kind)
}

func (b builder) group(at string, p Panel, outer scope.Key) (lifecycle.Chip, error) {
	key := scope.Key(p.groupKey(at))
	children, err := b.panels(at+".panels", p.Panels, key)
	if err != nil {
		return nil, err
	}
	view := &groupView{key: key, selector: p.Selector, title: p.Title, class: p.Class}
	wrapper, err := projector.NewRegistration(view, projector.WithRegistrationKey(outer))
	if err != nil {
		return nil, err
	}
	return &group{
		view:    view,
		inner:   lifecycle.NewGroup(at, children...).WithScope(key),
		wrapper: wrapper,
	}, nil
}

// frame wraps a widget in a titled panel element and forwards ticks to it.
type frame struct {
	title string
	class string
	inner renderable.Renderer
}

func (f *frame) Render() []*vnode.VNode {
	children := f.inner.Render()
	if f.title == "" && f.class == "" {
		return children
	}
	return []*vnode.VNode{vnode.H(selector("div", f.title, f.class), titleProps(f.title), children...)}
}

func (f *frame) Advance(info lifecycle.TickInfo) {
	if a, ok := f.inner.(lifecycle.Advancer); ok {
		a.Advance(info)
	}
}

func selector(base, title, class string) string {
	sel := base
	if title != "" {
		sel += ".panel"
	}
	for _, c := range strings.Fields(class) {
		sel += "." + c
	}
	return sel
}

func titleProps(title string) vnode.Properties {
	if title == "" {
		return vnode.Properties{}
	}
	return vnode.Properties{Attrs: map[string]string{"title": title}}
}

// groupView renders a nested set inside one element. The set is bound
// while the owning group is active.
type groupView struct {
	key      scope.Key
	selector string
	title    string
	class    string
	set      *renderable.Set
}

func (v *groupView) Render() []*vnode.VNode {
	base := v.selector
	if base == "" {
		base = "section"
	}
	var children []*vnode.VNode
	if v.set != nil {
		children = v.set.Render()
	}
	return []*vnode.VNode{vnode.H(selector(base, v.title, v.class), titleProps(v.title), children...)}
}

// group hosts a nested scope and the registration wrapping it. The inner
// group is activated first so the nested set exists before the wrapper
// joins the enclosing set; termination runs in reverse.
type group struct {
	lifecycle.Base
	view    *groupView
	inner   *lifecycle.Group
	wrapper *projector.Registration
}

func (g *group) Activate(ctx *scope.Context) error {
	op := "scene.group.activate"
	if err := g.BeginActivate(op, ctx); err != nil {
		return err
	}
	if err := g.inner.Activate(ctx); err != nil {
		return err
	}
	set, err := g.inner.Context().Set(g.view.key)
	if err != nil {
		_ = g.inner.Terminate()
		return fmt.Errorf("%s: %w", op, err)
	}
	g.view.set = set
	if err := g.wrapper.Activate(ctx); err != nil {
		g.view.set = nil
		_ = g.inner.Terminate()
		return err
	}
	g.MarkActive(ctx)
	return nil
}

func (g *group) Tick(info lifecycle.TickInfo) error {
	if err := g.CheckActive("scene.group.tick"); err != nil {
		return err
	}
	if err := g.inner.Tick(info); err != nil {
		return err
	}
	return g.wrapper.Tick(info)
}

func (g *group) Terminate() error {
	if err := g.CheckActive("scene.group.terminate"); err != nil {
		return err
	}
	werr := g.wrapper.Terminate()
	ierr := g.inner.Terminate()
	g.view.set = nil
	g.MarkInactive()
	if werr != nil {
		return werr
	}
	return ierr
}
