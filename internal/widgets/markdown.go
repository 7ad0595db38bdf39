package widgets

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/glamour"

	"github.com/zjrosen/arbor/internal/cachemanager"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/vnode"
)

// noMarginStyle is a JSON style that removes document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// renderKey identifies one rendering of a markdown source.
type renderKey string

// MarkdownRenderer renders markdown with glamour and caches the result by
// content hash, so render passes over unchanged panels skip glamour.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	style    string
	width    int
	ttl      time.Duration
	cache    cachemanager.CacheManager[renderKey, string]
	reads    *cachemanager.ReadThroughCache[renderKey, string, string]
}

// MarkdownOption configures a MarkdownRenderer.
type MarkdownOption func(*markdownOptions)

type markdownOptions struct {
	noCache bool
}

// WithoutCache renders every pass through glamour.
func WithoutCache(disabled bool) MarkdownOption {
	return func(o *markdownOptions) { o.noCache = disabled }
}

// NewMarkdownRenderer creates a renderer with the given style ("dark",
// "light" or "notty"), word wrap width and cache TTL.
// Named styles are used instead of WithAutoStyle, which queries the
// terminal and leaks the response into the input stream.
func NewMarkdownRenderer(style string, width int, ttl time.Duration, opts ...MarkdownOption) (*MarkdownRenderer, error) {
	var mo markdownOptions
	for _, opt := range opts {
		opt(&mo)
	}
	if style == "" {
		style = "dark"
	}
	if ttl <= 0 {
		ttl = cachemanager.DefaultExpiration
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	m := &MarkdownRenderer{
		renderer: r,
		style:    style,
		width:    width,
		ttl:      ttl,
		cache:    cachemanager.NewInMemoryCacheManager[renderKey, string]("markdown", ttl, cachemanager.DefaultCleanupInterval),
	}
	m.reads = cachemanager.NewReadThroughCache(m.cache, m.render,
		cachemanager.WithRefreshOnHit(),
		cachemanager.WithBypass(mo.noCache),
	)
	if mo.noCache {
		log.Debug(log.CatCache, "markdown cache disabled")
	}
	return m, nil
}

// Width returns the configured word wrap width.
func (m *MarkdownRenderer) Width() int {
	return m.width
}

// Cached returns the number of renderings held in the cache.
func (m *MarkdownRenderer) Cached() int {
	return m.cache.Len()
}

// Stats returns cache hits and misses since creation.
func (m *MarkdownRenderer) Stats() cachemanager.Stats {
	return m.reads.Stats()
}

// Render transforms markdown to styled terminal output.
func (m *MarkdownRenderer) Render(ctx context.Context, source string) (string, error) {
	return m.reads.Get(ctx, m.key(source), source, m.ttl)
}

func (m *MarkdownRenderer) render(_ context.Context, source string) (string, error) {
	out, err := m.renderer.Render(source)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

func (m *MarkdownRenderer) key(source string) renderKey {
	return renderKey(m.style + ":" + strconv.Itoa(m.width) + ":" + strconv.FormatUint(xxhash.Sum64String(source), 16))
}

// Markdown renders a markdown document. If rendering fails the raw source
// is shown instead.
type Markdown struct {
	Source   string
	renderer *MarkdownRenderer
}

// NewMarkdown creates a markdown widget rendered by r.
func NewMarkdown(r *MarkdownRenderer, source string) *Markdown {
	return &Markdown{Source: source, renderer: r}
}

// Render implements renderable.Renderer.
func (m *Markdown) Render() []*vnode.VNode {
	text := m.Source
	if m.renderer != nil {
		out, err := m.renderer.Render(context.Background(), m.Source)
		if err != nil {
			log.ErrorErr(log.CatScene, "markdown render failed", err)
		} else {
			text = out
		}
	}
	return []*vnode.VNode{vnode.H("div.markdown", vnode.Properties{}, vnode.Text(text))}
}
