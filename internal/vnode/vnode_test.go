package vnode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		selector string
		tag      string
		id       string
		classes  []string
	}{
		{selector: "div", tag: "div"},
		{selector: "span.title", tag: "span", classes: []string{"title"}},
		{selector: "section.card.wide#main", tag: "section", id: "main", classes: []string{"card", "wide"}},
		{selector: ".box", tag: "div", classes: []string{"box"}},
		{selector: "#root", tag: "div", id: "root"},
		{selector: "", tag: ""},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			tag, id, classes := ParseSelector(tt.selector)
			require.Equal(t, tt.tag, tag)
			require.Equal(t, tt.id, id)
			require.Equal(t, tt.classes, classes)
		})
	}
}

func TestH_DropsNilChildren(t *testing.T) {
	n := H("ul", Properties{}, H("li", Properties{}), nil, Text("x"))

	require.Len(t, n.Children, 2)
	require.Equal(t, "li", n.Children[0].Tag())
	require.True(t, n.Children[1].IsText())
}

func TestVNode_Handler(t *testing.T) {
	called := false
	n := H("button", Properties{On: map[string]Handler{
		"onclick": func(this any, ev *Event) { called = true },
	}})

	h, ok := n.Handler("click")
	require.True(t, ok)
	h(nil, &Event{Type: "click"})
	require.True(t, called)

	_, ok = n.Handler("keydown")
	require.False(t, ok)

	var nilNode *VNode
	_, ok = nilNode.Handler("click")
	require.False(t, ok)
}

func TestVNode_AtAndWalk(t *testing.T) {
	leaf := Text("leaf")
	root := H("div", Properties{}, H("p", Properties{}, Text("a"), leaf))

	require.Same(t, leaf, root.At([]int{0, 1}))
	require.Nil(t, root.At([]int{0, 5}))
	require.Same(t, root, root.At(nil))

	var paths [][]int
	root.Walk(func(path []int, n *VNode) bool {
		paths = append(paths, append([]int(nil), path...))
		return true
	})
	require.Equal(t, [][]int{{}, {0}, {0, 0}, {0, 1}}, normalise(paths))
}

func normalise(paths [][]int) [][]int {
	for i, p := range paths {
		if p == nil {
			paths[i] = []int{}
		}
	}
	return paths
}

func TestProperties_Merge(t *testing.T) {
	base := Properties{
		Key:     "a",
		Classes: map[string]bool{"x": true},
		Attrs:   map[string]string{"role": "main", "lang": "en"},
	}
	over := Properties{
		Bind:  "me",
		Attrs: map[string]string{"role": "region"},
	}

	merged := base.Merge(over)

	require.Equal(t, "a", merged.Key)
	require.Equal(t, "me", merged.Bind)
	require.Equal(t, map[string]bool{"x": true}, merged.Classes)
	require.Equal(t, map[string]string{"role": "region", "lang": "en"}, merged.Attrs)
	require.Nil(t, merged.Styles)
	// base is untouched
	require.Equal(t, "main", base.Attrs["role"])
}

func TestVNode_String(t *testing.T) {
	n := H("div.panel#top", Properties{
		Classes: map[string]bool{"active": true, "hidden": false},
		Attrs:   map[string]string{"data-x": "1"},
		Styles:  map[string]string{"color": "red"},
	}, Text("a < b"), H("span", Properties{}, Text("c")))

	require.Equal(t,
		`<div id="top" class="active panel" data-x="1" style="color:red">a &lt; b<span>c</span></div>`,
		n.String())
}
