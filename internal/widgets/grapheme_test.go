package widgets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/log"
)

func TestTruncateGraphemes(t *testing.T) {
	family := "👨‍👩‍👧‍👦"
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"short enough", "hello", 5, "hello"},
		{"cut ascii", "hello world", 5, "hell…"},
		{"disabled", "hello", 0, "hello"},
		{"one cluster", "hello", 1, "…"},
		{"keeps zwj sequence", family + family + "x", 3, family + family + "x"},
		{"never splits zwj sequence", family + family + family + "x", 3, family + family + "…"},
		{"combining mark", "ééé", 2, "é…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, truncateGraphemes(tt.input, tt.n))
		})
	}
}

func TestLogTail_TruncatesLongEntries(t *testing.T) {
	ch := make(chan log.LogEvent, 1)
	ch <- log.LogEvent{Payload: strings.Repeat("x", MaxLogLineLength+50) + "\n"}
	tail := NewLogTail(ch, 1)
	tail.Advance(lifecycle.TickInfo{Frame: 1})

	lines := tail.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, strings.Repeat("x", MaxLogLineLength-1)+"…", lines[0])
}
