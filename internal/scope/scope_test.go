package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/renderable"
)

func TestNewWithDefault(t *testing.T) {
	c := NewWithDefault()

	s, err := c.Set(DefaultKey)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, []Key{DefaultKey}, c.Keys())
}

func TestContext_MissingKey(t *testing.T) {
	c := New()

	_, err := c.Set("sidebar")

	require.ErrorIs(t, err, faults.ErrContractViolation)
	require.Contains(t, err.Error(), `"sidebar"`)
}

func TestContext_ChildInheritsAndShadows(t *testing.T) {
	rootSet := renderable.NewSet()
	sidebar := renderable.NewSet()
	shadow := renderable.NewSet()

	root := New().Provide(DefaultKey, rootSet)
	child := root.Child().Provide("sidebar", sidebar)

	got, err := child.Set(DefaultKey)
	require.NoError(t, err)
	require.Same(t, rootSet, got)

	got, err = child.Set("sidebar")
	require.NoError(t, err)
	require.Same(t, sidebar, got)

	_, err = root.Set("sidebar")
	require.Error(t, err, "parent must not see child bindings")

	child.Provide(DefaultKey, shadow)
	got, err = child.Set(DefaultKey)
	require.NoError(t, err)
	require.Same(t, shadow, got)

	require.Same(t, root, child.Parent())
	require.Equal(t, []Key{"renderableSet", "sidebar"}, child.Keys())
}

func TestContext_ZeroValueProvide(t *testing.T) {
	var c Context
	s := renderable.NewSet()
	c.Provide("k", s)

	got, err := c.Set("k")
	require.NoError(t, err)
	require.Same(t, s, got)
}
