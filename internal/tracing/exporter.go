package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// FileOption configures a FileExporter.
type FileOption func(*FileExporter)

// WithMaxBytes rotates the file to <path>.1 once writing a batch would grow
// it past n bytes. Zero disables rotation.
func WithMaxBytes(n int64) FileOption {
	return func(e *FileExporter) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// FileExporter writes spans as JSON lines. Render passes run on every tick,
// so the file is rotated when it reaches its size limit and only one
// previous generation is kept.
type FileExporter struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	file     *os.File
	size     int64
}

var _ sdktrace.SpanExporter = (*FileExporter)(nil)

// NewFileExporter opens path for appending, creating it and its parent
// directories as needed.
func NewFileExporter(path string, opts ...FileOption) (*FileExporter, error) {
	e := &FileExporter{path: filepath.Clean(path)}
	for _, opt := range opts {
		opt(e)
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	if err := e.open(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *FileExporter) open() error {
	file, err := os.OpenFile(e.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- path is cleaned
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("stat trace file: %w", err)
	}
	e.file, e.size = file, info.Size()
	return nil
}

func (e *FileExporter) rotate() error {
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("close trace file: %w", err)
	}
	e.file = nil
	if err := os.Rename(e.path, e.path+".1"); err != nil {
		return fmt.Errorf("rotate trace file: %w", err)
	}
	return e.open()
}

// ExportSpans appends one line per span.
func (e *FileExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	var batch []byte
	for _, span := range spans {
		line, err := json.Marshal(recordOf(span))
		if err != nil {
			return fmt.Errorf("encode span: %w", err)
		}
		batch = append(append(batch, line...), '\n')
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return fmt.Errorf("trace file %s is closed", e.path)
	}
	if e.maxBytes > 0 && e.size > 0 && e.size+int64(len(batch)) > e.maxBytes {
		if err := e.rotate(); err != nil {
			return err
		}
	}
	n, err := e.file.Write(batch)
	e.size += int64(n)
	if err != nil {
		return fmt.Errorf("write spans: %w", err)
	}
	return nil
}

// Shutdown closes the file. Further exports fail.
func (e *FileExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return nil
	}
	err := e.file.Close()
	e.file = nil
	return err
}

// SpanRecord is the JSON line written for each span. The projector, frame
// and size attributes of render passes are lifted into their own fields so
// the file can be filtered without digging into Attributes.
type SpanRecord struct {
	TraceID    string         `json:"trace_id"`
	SpanID     string         `json:"span_id"`
	ParentID   string         `json:"parent_span_id,omitempty"`
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Start      time.Time      `json:"start_time"`
	DurationMs float64        `json:"duration_ms"`
	Status     string         `json:"status"`
	StatusMsg  string         `json:"status_message,omitempty"`
	Projector  string         `json:"projector,omitempty"`
	Frame      int64          `json:"frame,omitempty"`
	Members    int64          `json:"members,omitempty"`
	Nodes      int64          `json:"nodes,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Events     []EventRecord  `json:"events,omitempty"`
}

// EventRecord is a span event.
type EventRecord struct {
	Name       string         `json:"name"`
	Time       time.Time      `json:"timestamp"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func recordOf(span sdktrace.ReadOnlySpan) SpanRecord {
	sc := span.SpanContext()
	status := span.Status()
	rec := SpanRecord{
		TraceID:    sc.TraceID().String(),
		SpanID:     sc.SpanID().String(),
		Name:       span.Name(),
		Kind:       strings.ToUpper(span.SpanKind().String()),
		Start:      span.StartTime(),
		DurationMs: float64(span.EndTime().Sub(span.StartTime()).Microseconds()) / 1000.0,
		Status:     strings.ToUpper(status.Code.String()),
		StatusMsg:  status.Description,
	}
	if span.Parent().IsValid() {
		rec.ParentID = span.Parent().SpanID().String()
	}

	for _, kv := range span.Attributes() {
		switch string(kv.Key) {
		case AttrProjectorID:
			rec.Projector = kv.Value.AsString()
		case AttrFrame:
			rec.Frame = kv.Value.AsInt64()
		case AttrSetMembers:
			rec.Members = kv.Value.AsInt64()
		case AttrNodeCount:
			rec.Nodes = kv.Value.AsInt64()
		default:
			if rec.Attributes == nil {
				rec.Attributes = make(map[string]any)
			}
			rec.Attributes[string(kv.Key)] = kv.Value.AsInterface()
		}
	}

	for _, ev := range span.Events() {
		rec.Events = append(rec.Events, EventRecord{
			Name:       ev.Name,
			Time:       ev.Time,
			Attributes: attrMap(ev.Attributes),
		})
	}
	return rec
}

func attrMap(kvs []attribute.KeyValue) map[string]any {
	if len(kvs) == 0 {
		return nil
	}
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
