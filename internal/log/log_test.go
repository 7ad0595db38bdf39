package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var entryPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2} \[INFO\] \[scene\] loaded panels=3 path=a\.yaml\n$`)

func TestInitWithWriter_Format(t *testing.T) {
	var buf bytes.Buffer
	restore := InitWithWriter(&buf)
	defer restore()

	Info(CatScene, "loaded", "panels", 3, "path", "a.yaml")
	require.Regexp(t, entryPattern, buf.String())
}

func TestFields(t *testing.T) {
	tests := []struct {
		name     string
		log      func()
		expected string
	}{
		{"odd field count", func() { Warn(CatConfig, "x", "orphan") }, "[WARN] [config] x orphan=<missing>\n"},
		{"error value", func() { ErrorErr(CatEngine, "boom", errors.New("bad")) }, "[ERROR] [engine] boom error=bad\n"},
		{"nil error", func() { ErrorErr(CatEngine, "boom", nil) }, "[ERROR] [engine] boom error=<nil>\n"},
		{"quoted value", func() { Info(CatScene, "loaded", "title", "My Scene") }, `[INFO] [scene] loaded title="My Scene"` + "\n"},
		{"empty value", func() { Info(CatScene, "loaded", "title", "") }, `[INFO] [scene] loaded title=""` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			restore := InitWithWriter(&buf)
			defer restore()

			tt.log()
			require.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestLevelsAndToggle(t *testing.T) {
	var buf bytes.Buffer
	restore := InitWithWriter(&buf)
	defer restore()

	SetMinLevel(LevelWarn)
	Debug(CatSet, "hidden")
	Info(CatSet, "hidden")
	Error(CatSet, "shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	SetEnabled(false)
	Error(CatSet, "muted")
	require.Empty(t, buf.String())
}

func TestSubscribe(t *testing.T) {
	restore := InitWithWriter(&bytes.Buffer{})
	defer restore()

	ch := Subscribe(t.Context())
	require.NotNil(t, ch)

	Info(CatLifecycle, "host activated")
	select {
	case ev := <-ch:
		require.Contains(t, ev.Payload, "[lifecycle] host activated")
	case <-time.After(time.Second):
		t.Fatal("expected a log event")
	}
}

func TestSubscribe_Uninitialized(t *testing.T) {
	prev := std.Swap(nil)
	defer std.Store(prev)

	require.Nil(t, Subscribe(t.Context()))
	Info(CatSet, "dropped") // no logger, no panic
}

func TestInitWithTeaLog(t *testing.T) {
	prev := std.Load()
	defer std.Store(prev)

	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := InitWithTeaLog(path, "arbor")
	require.NoError(t, err)

	Info(CatConfig, "written")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] [config] written")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"", LevelDebug, false},
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", LevelDebug, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.EqualError(t, err, `unknown log level "`+tt.input+`"`)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, level)
		})
	}
}
