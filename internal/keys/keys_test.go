package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestHost_KeyAssignments(t *testing.T) {
	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"NextFocus uses tab", Host.NextFocus, []string{"tab"}},
		{"PrevFocus uses shift+tab", Host.PrevFocus, []string{"shift+tab"}},
		{"Reload uses ctrl+r", Host.Reload, []string{"ctrl+r"}},
		{"Quit uses ctrl+c and q", Host.Quit, []string{"ctrl+c", "q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
			require.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestHost_Reserved(t *testing.T) {
	require.True(t, Host.Reserved("q"))
	require.True(t, Host.Reserved("shift+tab"))
	require.False(t, Host.Reserved("+"))
	require.False(t, Host.Reserved("enter"))
}

func TestHost_ShortHelp(t *testing.T) {
	help := Host.ShortHelp()
	require.Len(t, help, 3)
	require.Equal(t, "q", help[2].Help().Key)
}
