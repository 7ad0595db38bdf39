package vnode

import (
	"html"
	"slices"
	"strings"
)

// String renders n as HTML-like markup. Classes, attributes and styles are
// emitted in sorted order so output is stable across passes.
func (n *VNode) String() string {
	var sb strings.Builder
	writeMarkup(&sb, n)
	return sb.String()
}

func writeMarkup(sb *strings.Builder, n *VNode) {
	if n == nil {
		return
	}
	if n.IsText() {
		sb.WriteString(html.EscapeString(n.Text))
		return
	}
	tag, id, classes := ParseSelector(n.Selector)
	sb.WriteString("<")
	sb.WriteString(tag)
	if id != "" {
		writeAttr(sb, "id", id)
	}
	if all := ClassList(classes, n.Properties.Classes); len(all) > 0 {
		writeAttr(sb, "class", strings.Join(all, " "))
	}
	for _, k := range sortedKeys(n.Properties.Attrs) {
		writeAttr(sb, k, n.Properties.Attrs[k])
	}
	if len(n.Properties.Styles) > 0 {
		parts := make([]string, 0, len(n.Properties.Styles))
		for _, k := range sortedKeys(n.Properties.Styles) {
			parts = append(parts, k+":"+n.Properties.Styles[k])
		}
		writeAttr(sb, "style", strings.Join(parts, ";"))
	}
	sb.WriteString(">")
	for _, c := range n.Children {
		writeMarkup(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(tag)
	sb.WriteString(">")
}

func writeAttr(sb *strings.Builder, k, v string) {
	sb.WriteString(" ")
	sb.WriteString(k)
	sb.WriteString(`="`)
	sb.WriteString(html.EscapeString(v))
	sb.WriteString(`"`)
}

// ClassList merges selector classes with enabled property classes, sorted
// and de-duplicated.
func ClassList(selectorClasses []string, toggles map[string]bool) []string {
	out := slices.Clone(selectorClasses)
	for c, on := range toggles {
		if on {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
