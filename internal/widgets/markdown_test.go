package widgets

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func TestNewMarkdownRenderer(t *testing.T) {
	r, err := NewMarkdownRenderer("", 40, 0)
	require.NoError(t, err)
	require.Equal(t, 40, r.Width())
	require.Equal(t, "dark", r.style)
}

func TestMarkdownRenderer_RendersAndCaches(t *testing.T) {
	r, err := NewMarkdownRenderer("notty", 80, 0)
	require.NoError(t, err)

	first, err := r.Render(t.Context(), "# Title\n\nSome *content*")
	require.NoError(t, err)
	require.Contains(t, stripANSI(first), "Title")
	require.Contains(t, stripANSI(first), "content")
	require.Equal(t, 1, r.Cached())

	second, err := r.Render(t.Context(), "# Title\n\nSome *content*")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, r.Cached(), "same source hits the cache")

	_, err = r.Render(t.Context(), "other")
	require.NoError(t, err)
	require.Equal(t, 2, r.Cached())
	require.Equal(t, uint64(1), r.Stats().Hits)
	require.Equal(t, uint64(2), r.Stats().Misses)
}

func TestMarkdownRenderer_WithoutCache(t *testing.T) {
	r, err := NewMarkdownRenderer("notty", 80, 0, WithoutCache(true))
	require.NoError(t, err)

	for range 3 {
		_, err := r.Render(t.Context(), "# Title")
		require.NoError(t, err)
	}
	require.Equal(t, 0, r.Cached())
	require.Equal(t, uint64(0), r.Stats().Hits)
	require.Equal(t, uint64(3), r.Stats().Misses)
}

func TestMarkdownRenderer_KeyIncludesStyleAndWidth(t *testing.T) {
	narrow, err := NewMarkdownRenderer("notty", 20, 0)
	require.NoError(t, err)
	wide, err := NewMarkdownRenderer("notty", 80, 0)
	require.NoError(t, err)

	require.NotEqual(t, narrow.key("x"), wide.key("x"))
	require.NotEqual(t, wide.key("x"), wide.key("y"))
	require.Equal(t, wide.key("x"), wide.key("x"))
}

func TestMarkdown_Render(t *testing.T) {
	r, err := NewMarkdownRenderer("notty", 80, 0)
	require.NoError(t, err)

	node := NewMarkdown(r, "**bold** words").Render()[0]
	require.Equal(t, "div", node.Tag())
	require.Len(t, node.Children, 1)
	// notty keeps emphasis markers as literal text.
	require.Contains(t, stripANSI(node.Children[0].Text), "**bold** words")
}

func TestMarkdown_WithoutRendererShowsSource(t *testing.T) {
	node := NewMarkdown(nil, "# raw").Render()[0]
	require.Equal(t, `<div class="markdown"># raw</div>`, node.String())
}
