package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/arbor/internal/engine"
	"github.com/zjrosen/arbor/internal/keys"
	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/metrics"
	"github.com/zjrosen/arbor/internal/scope"
	"github.com/zjrosen/arbor/internal/vnode"
)

// DefaultInterval is the tick cadence used when none is configured.
const DefaultInterval = 100 * time.Millisecond

const logPaneLines = 5

type tickMsg time.Time

type logMsg log.LogEvent

// Model hosts a lifecycle root on the bubbletea update loop. The root is
// activated in Init, ticked on every tick message and terminated on quit,
// so every lifecycle hook runs on the update goroutine.
type Model struct {
	eng      *Engine
	root     lifecycle.Chip
	scope    *scope.Context
	interval time.Duration
	metrics  *metrics.Collector

	renderer renderer
	screen   screen
	width    int
	height   int

	frame    uint64
	lastTick time.Time
	active   bool
	quitting bool
	err      error

	onReload func()

	logPane   bool
	logs      <-chan log.LogEvent
	logLines  []string
	cancelLog context.CancelFunc
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithInterval sets the tick cadence.
func WithInterval(d time.Duration) ModelOption {
	return func(m *Model) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithTheme sets the class theme.
func WithTheme(t *Theme) ModelOption {
	return func(m *Model) {
		if t != nil {
			m.renderer.theme = t
		}
	}
}

// WithLogPane shows the most recent log entries under the view.
func WithLogPane(enabled bool) ModelOption {
	return func(m *Model) {
		m.logPane = enabled
	}
}

// WithReload runs fn when the reload key is pressed.
func WithReload(fn func()) ModelOption {
	return func(m *Model) {
		m.onReload = fn
	}
}

// WithMetrics counts ticks on c.
func WithMetrics(c *metrics.Collector) ModelOption {
	return func(m *Model) {
		m.metrics = c
	}
}

// NewModel creates a model hosting root with the shared context sc.
func NewModel(eng *Engine, root lifecycle.Chip, sc *scope.Context, opts ...ModelOption) *Model {
	zones := zone.New()
	m := &Model{
		eng:      eng,
		root:     root,
		scope:    sc,
		interval: DefaultInterval,
		renderer: renderer{
			theme:  DefaultTheme(),
			zones:  zones,
			prefix: zones.NewPrefix(),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Err returns the first lifecycle failure, if any.
func (m *Model) Err() error {
	return m.err
}

// Frame returns the number of ticks delivered so far.
func (m *Model) Frame() uint64 {
	return m.frame
}

// Active reports whether the root is between activation and termination.
func (m *Model) Active() bool {
	return m.active
}

// Init activates the root and starts the tick loop.
func (m *Model) Init() tea.Cmd {
	if err := m.root.Activate(m.scope); err != nil {
		log.ErrorErr(log.CatLifecycle, "activation failed", err)
		m.err = fmt.Errorf("activating: %w", err)
		return tea.Quit
	}
	m.active = true
	log.Info(log.CatLifecycle, "tui host activated", "interval", m.interval)

	cmds := []tea.Cmd{m.tick()}
	if m.logPane {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancelLog = cancel
		m.logs = log.Subscribe(ctx)
		if m.logs != nil {
			cmds = append(cmds, m.waitForLog())
		}
	}
	return tea.Batch(cmds...)
}

// Update handles ticks, input and resizes.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.active {
			return m, nil
		}
		now := time.Time(msg)
		m.frame++
		info := lifecycle.TickInfo{Frame: m.frame}
		if !m.lastTick.IsZero() {
			info.Delta = now.Sub(m.lastTick)
		}
		m.lastTick = now
		if err := m.root.Tick(info); err != nil {
			log.ErrorErr(log.CatLifecycle, "tick failed", err, "frame", m.frame)
			m.err = fmt.Errorf("tick %d: %w", m.frame, err)
			return m, m.quit()
		}
		m.metrics.Tick()
		m.eng.Flush()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Host.Quit):
			return m, m.quit()
		case key.Matches(msg, keys.Host.NextFocus):
			m.moveFocus(1)
			return m, nil
		case key.Matches(msg, keys.Host.PrevFocus):
			m.moveFocus(-1)
			return m, nil
		case key.Matches(msg, keys.Host.Reload):
			if m.onReload != nil {
				m.onReload()
			}
			return m, nil
		}
		if m.dispatchKey(msg.String()) {
			m.eng.Flush()
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			if m.dispatchClick(msg) {
				m.eng.Flush()
			}
		}
		return m, nil

	case logMsg:
		m.logLines = append(m.logLines, strings.TrimRight(msg.Payload, "\n"))
		if len(m.logLines) > logPaneLines {
			m.logLines = m.logLines[len(m.logLines)-logPaneLines:]
		}
		return m, m.waitForLog()
	}
	return m, nil
}

// View renders every region.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	m.renderer.width = m.width
	m.screen = m.renderer.render(m.eng.frames())

	parts := []string{m.screen.view}
	if m.logPane {
		parts = append(parts, m.renderer.panel(strings.Join(m.logLines, "\n"), "log", false))
	}
	status := fmt.Sprintf("frame %d", m.frame)
	for _, b := range keys.Host.ShortHelp() {
		status += fmt.Sprintf(" · %s %s", b.Help().Key, b.Help().Desc)
	}
	if muted, ok := m.renderer.theme.Class("muted"); ok {
		status = muted.Render(status)
	}
	parts = append(parts, status)
	return m.renderer.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) waitForLog() tea.Cmd {
	ch := m.logs
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return logMsg(ev)
	}
}

// quit terminates the root exactly once and stops the program.
func (m *Model) quit() tea.Cmd {
	if m.active {
		m.active = false
		if err := m.root.Terminate(); err != nil {
			log.ErrorErr(log.CatLifecycle, "termination failed", err)
			if m.err == nil {
				m.err = fmt.Errorf("terminating: %w", err)
			}
		} else {
			log.Info(log.CatLifecycle, "tui host terminated", "frames", m.frame)
		}
	}
	if m.cancelLog != nil {
		m.cancelLog()
	}
	m.quitting = true
	return tea.Quit
}

func (m *Model) moveFocus(delta int) {
	n := len(m.screen.focusable)
	if n == 0 {
		return
	}
	m.renderer.focus = ((m.renderer.focus+delta)%n + n) % n
}

// dispatchKey routes a key press to the focused keydown handler.
func (m *Model) dispatchKey(key string) bool {
	if keys.Host.Reserved(key) || m.renderer.focus >= len(m.screen.focusable) {
		return false
	}
	t := m.screen.focusable[m.renderer.focus]
	node := t.node()
	if node == nil {
		return false
	}
	return engine.HandleEvent(t.projector, t.projector.opts, node, &vnode.Event{Type: "keydown", Key: key, Target: node})
}

// dispatchClick routes a click to the deepest clickable zone under the
// pointer.
func (m *Model) dispatchClick(msg tea.MouseMsg) bool {
	var hit *target
	for id, t := range m.screen.clickable {
		z := m.renderer.zones.Get(id)
		if z == nil || !z.InBounds(msg) {
			continue
		}
		if hit == nil || len(t.path) > len(hit.path) {
			hit = &t
		}
	}
	if hit == nil {
		return false
	}
	node := engine.Nearest(hit.root, hit.path, "click")
	if node == nil {
		return false
	}
	return engine.HandleEvent(hit.projector, hit.projector.opts, node, &vnode.Event{Type: "click", Target: node, Data: msg})
}
