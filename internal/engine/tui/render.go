package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/arbor/internal/vnode"
)

// Border characters (rounded).
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// inlineTags lay out horizontally with their siblings; every other tag
// starts on a new line.
var inlineTags = map[string]bool{
	"span": true, "b": true, "strong": true, "em": true, "i": true,
	"a": true, "button": true, "code": true, "label": true, "small": true,
}

// target locates a rendered description that handles events.
type target struct {
	projector *Projector
	root      *vnode.VNode
	path      []int
}

func (t target) node() *vnode.VNode {
	return t.root.At(t.path)
}

// screen is one rendered view plus the event targets found while rendering.
type screen struct {
	view      string
	clickable map[string]target
	focusable []target
}

// renderer turns descriptions into styled terminal text.
type renderer struct {
	theme  *Theme
	zones  *zone.Manager
	prefix string
	width  int
	focus  int

	seq    int
	screen *screen
	cur    frame
}

func (r *renderer) render(frames []frame) screen {
	r.seq = 0
	r.screen = &screen{clickable: make(map[string]target)}
	blocks := make([]string, 0, len(frames))
	for _, f := range frames {
		r.cur = f
		blocks = append(blocks, r.node(f.node, nil))
	}
	r.screen.view = strings.Join(blocks, "\n")
	return *r.screen
}

func (r *renderer) node(n *vnode.VNode, path []int) string {
	if n.IsText() {
		return n.Text
	}

	focused := false
	if _, ok := n.Handler("keydown"); ok {
		focused = len(r.screen.focusable) == r.focus
		r.screen.focusable = append(r.screen.focusable, r.target(path))
	}

	out := r.children(n, path)
	style, styled := r.style(n, focused)
	_, _, classes := vnode.ParseSelector(n.Selector)
	all := vnode.ClassList(classes, n.Properties.Classes)

	switch {
	case hasClass(all, "panel"):
		out = r.panel(out, n.Properties.Attrs["title"], focused)
	case styled:
		out = style.Render(out)
	}
	if hasClass(all, "truncate") && r.width > 0 {
		out = truncateLines(out, r.width)
	}

	if _, ok := n.Handler("click"); ok && r.zones != nil {
		r.seq++
		id := fmt.Sprintf("%s%d", r.prefix, r.seq)
		r.screen.clickable[id] = r.target(path)
		out = r.zones.Mark(id, out)
	}
	return out
}

// children lays out n's children: runs of text and inline elements share a
// line, block elements stack.
func (r *renderer) children(n *vnode.VNode, path []int) string {
	var (
		lines []string
		run   strings.Builder
		inRun bool
	)
	flush := func() {
		if !inRun {
			return
		}
		text := run.String()
		if r.width > 0 && !inlineTags[n.Tag()] {
			text = wordwrap.String(text, r.width)
		}
		lines = append(lines, text)
		run.Reset()
		inRun = false
	}
	for i, c := range n.Children {
		childPath := append(path[:len(path):len(path)], i)
		rendered := r.node(c, childPath)
		if c.IsText() || inlineTags[c.Tag()] {
			run.WriteString(rendered)
			inRun = true
			continue
		}
		flush()
		lines = append(lines, rendered)
	}
	flush()
	return strings.Join(lines, "\n")
}

func (r *renderer) target(path []int) target {
	return target{projector: r.cur.projector, root: r.cur.node, path: append([]int(nil), path...)}
}

// style combines tag defaults, theme classes and inline styles. It reports
// false when n carries no styling, so plain blocks keep their line widths.
func (r *renderer) style(n *vnode.VNode, focused bool) (lipgloss.Style, bool) {
	s := lipgloss.NewStyle()
	styled := focused || len(n.Properties.Styles) > 0
	switch n.Tag() {
	case "b", "strong":
		s, styled = s.Bold(true), true
	case "em", "i":
		s, styled = s.Italic(true), true
	case "h1", "h2", "h3":
		if title, ok := r.theme.Class("title"); ok {
			s, styled = s.Inherit(title), true
		}
	case "button":
		if button, ok := r.theme.Class("button"); ok {
			s, styled = s.Inherit(button), true
		}
	}

	_, _, classes := vnode.ParseSelector(n.Selector)
	for _, c := range vnode.ClassList(classes, n.Properties.Classes) {
		if cs, ok := r.theme.Class(c); ok {
			s, styled = cs.Inherit(s), true
		}
	}
	if focused {
		if fs, ok := r.theme.Class("focused"); ok {
			s = fs.Inherit(s)
		}
	}

	for k, v := range n.Properties.Styles {
		switch k {
		case "color":
			s = s.Foreground(lipgloss.Color(v))
		case "background":
			s = s.Background(lipgloss.Color(v))
		case "font-weight":
			s = s.Bold(v == "bold")
		case "font-style":
			s = s.Italic(v == "italic")
		case "text-decoration":
			s = s.Underline(v == "underline")
		case "text-align":
			switch v {
			case "center":
				s = s.Align(lipgloss.Center)
			case "right":
				s = s.Align(lipgloss.Right)
			}
		case "padding":
			if p, err := strconv.Atoi(v); err == nil {
				s = s.Padding(0, p)
			}
		case "width":
			if w, err := strconv.Atoi(v); err == nil {
				s = s.Width(w)
			}
		case "border":
			s = s.Border(lipgloss.RoundedBorder()).BorderForeground(r.theme.Color(TokenBorderDefault))
		}
	}
	return s, styled
}

// panel draws content inside a rounded border with the title embedded in
// the top edge: ╭─ Title ─────╮
func (r *renderer) panel(content, title string, focused bool) string {
	borderColor := r.theme.Color(TokenBorderDefault)
	if focused {
		borderColor = r.theme.Color(TokenBorderFocus)
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(r.theme.Color(TokenTitle))

	rows := strings.Split(content, "\n")
	innerWidth := 0
	for _, row := range rows {
		innerWidth = max(innerWidth, lipgloss.Width(row))
	}
	if r.width > 2 {
		innerWidth = r.width - 2
	}
	innerWidth = max(innerWidth, runewidth.StringWidth(title)+3, 1)

	var top string
	if title == "" {
		top = borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	} else {
		title = runewidth.Truncate(title, max(innerWidth-3, 1), "…")
		dashesAfter := max(innerWidth-runewidth.StringWidth(title)-3, 0)
		top = borderStyle.Render(borderTopLeft+borderHorizontal+" ") + titleStyle.Render(title) +
			borderStyle.Render(" "+strings.Repeat(borderHorizontal, dashesAfter)+borderTopRight)
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, top)
	for _, row := range rows {
		if w := lipgloss.Width(row); w > innerWidth {
			row = ansi.Truncate(row, innerWidth, "")
		}
		padding := strings.Repeat(" ", max(innerWidth-lipgloss.Width(row), 0))
		lines = append(lines, borderStyle.Render(borderVertical)+row+padding+borderStyle.Render(borderVertical))
	}
	lines = append(lines, borderStyle.Render(borderBottomLeft+strings.Repeat(borderHorizontal, innerWidth)+borderBottomRight))
	return strings.Join(lines, "\n")
}

func truncateLines(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "…")
	}
	return strings.Join(lines, "\n")
}

func hasClass(classes []string, c string) bool {
	for _, have := range classes {
		if have == c {
			return true
		}
	}
	return false
}
