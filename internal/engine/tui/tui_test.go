package tui

import (
	"bytes"
	"fmt"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/arbor/internal/engine"
	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/projector"
	"github.com/zjrosen/arbor/internal/renderable"
	"github.com/zjrosen/arbor/internal/scope"
	"github.com/zjrosen/arbor/internal/vnode"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// counter renders a keyboard-focusable label that counts key presses.
type counter struct {
	n int
}

func (c *counter) Render() []*vnode.VNode {
	return []*vnode.VNode{vnode.H("span", vnode.Properties{
		Bind: c,
		On: map[string]vnode.Handler{
			"onkeydown": func(this any, ev *vnode.Event) { this.(*counter).n++ },
		},
	}, vnode.Text(fmt.Sprintf("count %d", c.n)))}
}

func host(t *testing.T, advanced bool, opts ...ModelOption) (*Model, *counter) {
	t.Helper()
	eng := NewEngine()
	c := &counter{}
	root := projector.NewRoot(eng, eng.Region("main"), projector.WithAdvancedEvents(advanced))
	group := lifecycle.NewGroup("app", projector.MustRegistration(c), root).WithScope(scope.DefaultKey)
	return NewModel(eng, group, scope.New(), opts...), c
}

func TestProjector_AppendRejectsForeignRegions(t *testing.T) {
	eng := NewEngine()
	other := NewEngine().Region("x")
	p := eng.NewProjector(engine.Options{})
	fn := func() *vnode.VNode { return nil }

	_, err := p.Append(other, fn)
	require.ErrorIs(t, err, faults.ErrContractViolation)

	h, err := p.Append(eng.Region("main"), fn)
	require.NoError(t, err)
	require.NoError(t, p.Detach(h))
	require.ErrorIs(t, p.Detach(h), faults.ErrMissingMember)
}

func TestProjector_ScheduleRenderIsDirtyFlag(t *testing.T) {
	eng := NewEngine()
	p := eng.NewProjector(engine.Options{}).(*Projector)
	_, err := p.Append(eng.Region("main"), func() *vnode.VNode { return vnode.Text("x") })
	require.NoError(t, err)
	require.Equal(t, 1, p.Renders())

	p.ScheduleRender()
	p.ScheduleRender()
	require.True(t, eng.Dirty())
	require.True(t, eng.Flush())
	require.False(t, eng.Flush())
	require.Equal(t, 2, p.Renders(), "repeated requests coalesce")
}

func TestEngine_RegionsStackInCreationOrder(t *testing.T) {
	eng := NewEngine()
	top, bottom := eng.Region("top"), eng.Region("bottom")
	require.Same(t, top, eng.Region("top"))

	p := eng.NewProjector(engine.Options{})
	_, err := p.Append(bottom, func() *vnode.VNode { return vnode.Text("b") })
	require.NoError(t, err)
	_, err = p.Append(top, func() *vnode.VNode { return vnode.Text("a") })
	require.NoError(t, err)

	r := renderer{theme: DefaultTheme()}
	require.Equal(t, "a\nb", r.render(eng.frames()).view)
}

func TestRenderer_InlineAndBlockLayout(t *testing.T) {
	r := renderer{theme: DefaultTheme()}
	node := vnode.H("div", vnode.Properties{},
		vnode.Text("a"),
		vnode.H("span", vnode.Properties{}, vnode.Text("b")),
		vnode.H("p", vnode.Properties{}, vnode.Text("c")),
		vnode.Text("d"),
	)
	got := r.render([]frame{{node: node}})
	require.Equal(t, "ab\nc\nd", got.view)
}

func TestRenderer_Panel(t *testing.T) {
	r := renderer{theme: DefaultTheme()}
	node := vnode.H("div.panel", vnode.Properties{Attrs: map[string]string{"title": "T"}}, vnode.Text("hi"))

	got := r.render([]frame{{node: node}})
	require.Equal(t, "╭─ T ╮\n│hi  │\n╰────╯", got.view)
}

func TestRenderer_WrapsToWidth(t *testing.T) {
	r := renderer{theme: DefaultTheme(), width: 5}
	node := vnode.H("p", vnode.Properties{}, vnode.Text("one two three"))

	got := r.render([]frame{{node: node}})
	require.Equal(t, "one\ntwo\nthree", got.view)
}

func TestRenderer_CollectsFocusableTargets(t *testing.T) {
	c := &counter{}
	root := vnode.H("div", vnode.Properties{}, c.Render()...)
	r := renderer{theme: DefaultTheme()}

	got := r.render([]frame{{node: root}})
	require.Len(t, got.focusable, 1)
	require.Equal(t, []int{0}, got.focusable[0].path)
	require.Same(t, root.Children[0], got.focusable[0].node())
}

func TestNewTheme_Overrides(t *testing.T) {
	th, err := NewTheme(map[string]string{"title": "#FFF"})
	require.NoError(t, err)
	require.Equal(t, "#FFF", th.Color(TokenTitle).Dark)

	_, err = NewTheme(map[string]string{"nope": "#FFF"})
	require.ErrorContains(t, err, "unknown color token")

	_, err = NewTheme(map[string]string{"title": "red"})
	require.ErrorContains(t, err, "invalid hex color")
}

// In default mode a handled key press repaints at once.
func TestModel_DefaultModeRepaintsOnEvent(t *testing.T) {
	m, c := host(t, false, WithInterval(time.Hour))
	m.Init()
	require.Contains(t, m.View(), "count 0")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})

	require.Equal(t, 1, c.n)
	require.Contains(t, m.View(), "count 1")
}

// In advanced mode handling an event does not repaint; the next tick does.
func TestModel_AdvancedModeWaitsForTick(t *testing.T) {
	m, c := host(t, true, WithInterval(time.Hour))
	m.Init()
	m.View()

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	require.Equal(t, 1, c.n)
	require.Contains(t, m.View(), "count 0")

	m.Update(tickMsg(time.Now()))
	require.Contains(t, m.View(), "count 1")
	require.Equal(t, uint64(1), m.Frame())
}

func TestModel_QuitTerminatesOnce(t *testing.T) {
	m, _ := host(t, false, WithInterval(time.Hour))
	m.Init()
	require.True(t, m.Active())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.False(t, m.Active())
	require.NoError(t, m.Err())
	require.Empty(t, m.View())
}

func TestModel_ActivationFailureQuits(t *testing.T) {
	eng := NewEngine()
	root := projector.NewRoot(eng, eng.Region("main"))
	m := NewModel(eng, root, scope.New())

	m.Init()
	require.ErrorIs(t, m.Err(), faults.ErrContractViolation)
	require.False(t, m.Active())
}

func TestModel_TeatestSession(t *testing.T) {
	m, _ := host(t, false, WithInterval(20*time.Millisecond))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(60, 20))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("count 0"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("count 1"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	final := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(*Model)
	require.False(t, final.Active())
	require.NoError(t, final.Err())
}

func TestModel_FixedUnitsRender(t *testing.T) {
	eng := NewEngine()
	root := projector.NewRoot(eng, eng.Region("main"))
	group := lifecycle.NewGroup("app", root,
		projector.MustRegistration(renderable.Fixed(vnode.H("h1", vnode.Properties{}, vnode.Text("Hello")))),
	).WithScope(scope.DefaultKey)
	m := NewModel(eng, group, scope.New(), WithInterval(time.Hour))
	m.Init()

	m.Update(tickMsg(time.Now()))
	require.Contains(t, m.View(), "Hello")
}
