package widgets

import (
	"fmt"
	"strings"

	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/vnode"
)

const (
	// DefaultLogLines is the number of entries a LogTail keeps when none is set.
	DefaultLogLines = 5
	// MaxLogLineLength bounds each entry in grapheme clusters.
	MaxLogLineLength = 200
)

// LogTail shows the most recent log entries. Entries are drained from the
// stream without blocking on every tick.
type LogTail struct {
	entries <-chan log.LogEvent
	max     int
	lines   []string
	lastSeq uint64
	dropped uint64
}

var _ lifecycle.Advancer = (*LogTail)(nil)

// NewLogTail tails entries, keeping the last n. A nil stream renders a
// placeholder (logging disabled).
func NewLogTail(entries <-chan log.LogEvent, n int) *LogTail {
	if n <= 0 {
		n = DefaultLogLines
	}
	return &LogTail{entries: entries, max: n}
}

// Advance implements lifecycle.Advancer.
func (l *LogTail) Advance(lifecycle.TickInfo) {
	for l.entries != nil {
		select {
		case ev, ok := <-l.entries:
			if !ok {
				l.entries = nil
				return
			}
			l.count(ev.Seq)
			l.push(truncateGraphemes(strings.TrimRight(ev.Payload, "\n"), MaxLogLineLength))
		default:
			return
		}
	}
}

// count records entries the stream skipped, seen as a gap in Seq.
func (l *LogTail) count(seq uint64) {
	if l.lastSeq != 0 && seq > l.lastSeq+1 {
		l.dropped += seq - l.lastSeq - 1
	}
	if seq != 0 {
		l.lastSeq = seq
	}
}

func (l *LogTail) push(line string) {
	l.lines = append(l.lines, line)
	if len(l.lines) > l.max {
		l.lines = l.lines[len(l.lines)-l.max:]
	}
}

// Lines returns the entries currently shown.
func (l *LogTail) Lines() []string {
	return append([]string(nil), l.lines...)
}

// Dropped returns how many entries the stream skipped because the tail
// fell behind.
func (l *LogTail) Dropped() uint64 {
	return l.dropped
}

// Render implements renderable.Renderer.
func (l *LogTail) Render() []*vnode.VNode {
	if len(l.lines) == 0 {
		return []*vnode.VNode{vnode.H("p.muted", vnode.Properties{}, vnode.Text("no log entries"))}
	}
	rows := make([]*vnode.VNode, 0, len(l.lines)+1)
	if l.dropped > 0 {
		rows = append(rows, vnode.H("li.muted", vnode.Properties{}, vnode.Text(fmt.Sprintf("%d dropped", l.dropped))))
	}
	for _, line := range l.lines {
		rows = append(rows, vnode.H("li.truncate", vnode.Properties{}, vnode.Text(line)))
	}
	return []*vnode.VNode{vnode.H("ul.log", vnode.Properties{}, rows...)}
}
