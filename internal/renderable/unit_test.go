package renderable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/vnode"
)

type sentinelRenderer struct {
	out   []*vnode.VNode
	calls int
}

func (r *sentinelRenderer) Render() []*vnode.VNode {
	r.calls++
	return r.out
}

func TestResolve_Fixed_ReturnsSameSequence(t *testing.T) {
	nodes := []*vnode.VNode{vnode.Text("a"), vnode.Text("b")}
	u := Fixed(nodes...)

	got := Resolve(u)

	require.Equal(t, KindFixed, u.Kind())
	require.Len(t, got, 2)
	require.Same(t, nodes[0], got[0])
	require.Same(t, &nodes[0], &got[0], "fixed units resolve to their own backing slice")
}

func TestResolve_Func_ReturnsInvocationResult(t *testing.T) {
	sentinel := []*vnode.VNode{vnode.Text("from-func")}
	calls := 0
	u := Func(func() []*vnode.VNode {
		calls++
		return sentinel
	})

	got := Resolve(u)

	require.Equal(t, KindFunc, u.Kind())
	require.Equal(t, 1, calls)
	require.Same(t, &sentinel[0], &got[0])
}

func TestResolve_Renderer_ReturnsRenderResult(t *testing.T) {
	r := &sentinelRenderer{out: []*vnode.VNode{vnode.Text("from-object")}}
	u := Object(r)

	got := Resolve(u)

	require.Equal(t, KindRenderer, u.Kind())
	require.Equal(t, 1, r.calls)
	require.Same(t, r.out[0], got[0])
	require.Same(t, Renderer(r), u.Renderer())
}

func TestResolve_Nil(t *testing.T) {
	require.Nil(t, Resolve(nil))
}

func TestFrom(t *testing.T) {
	single := vnode.Text("single")
	r := &sentinelRenderer{out: []*vnode.VNode{vnode.Text("r")}}
	existing := Fixed()

	tests := []struct {
		name  string
		value any
		kind  Kind
		texts []string
	}{
		{name: "slice", value: []*vnode.VNode{vnode.Text("x"), vnode.Text("y")}, kind: KindFixed, texts: []string{"x", "y"}},
		{name: "single node", value: single, kind: KindFixed, texts: []string{"single"}},
		{name: "string", value: "hello", kind: KindFixed, texts: []string{"hello"}},
		{name: "slice func", value: func() []*vnode.VNode { return []*vnode.VNode{vnode.Text("f")} }, kind: KindFunc, texts: []string{"f"}},
		{name: "node func", value: func() *vnode.VNode { return vnode.Text("g") }, kind: KindFunc, texts: []string{"g"}},
		{name: "nil node func result", value: func() *vnode.VNode { return nil }, kind: KindFunc, texts: nil},
		{name: "renderer", value: r, kind: KindRenderer, texts: []string{"r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := From(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.kind, u.Kind())
			require.Equal(t, tt.texts, texts(Resolve(u)))
		})
	}

	t.Run("unit passes through", func(t *testing.T) {
		u, err := From(existing)
		require.NoError(t, err)
		require.Same(t, existing, u)
	})
}

func TestFrom_RejectsUnknownShapes(t *testing.T) {
	for _, v := range []any{42, nil, (*Unit)(nil), (*vnode.VNode)(nil), struct{}{}} {
		_, err := From(v)
		require.ErrorIs(t, err, faults.ErrContractViolation, "%T", v)
	}
}

func texts(nodes []*vnode.VNode) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Text)
	}
	return out
}
