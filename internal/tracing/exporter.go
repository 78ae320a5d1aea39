package tracing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var errExporterClosed = errors.New("trace file exporter is closed")

// SpanRecord is one line of the trace file. The unit id and table are
// lifted out of the attributes so the file can be grepped per commit.
type SpanRecord struct {
	Trace      string         `json:"trace"`
	Span       string         `json:"span"`
	Parent     string         `json:"parent,omitempty"`
	Name       string         `json:"name"`
	Unit       string         `json:"unit,omitempty"`
	Table      string         `json:"table,omitempty"`
	StartMs    int64          `json:"start_ms"`
	DurationMs float64        `json:"duration_ms"`
	Failed     bool           `json:"failed,omitempty"`
	Error      string         `json:"error,omitempty"`
	Attributes map[string]any `json:"attrs,omitempty"`
	Events     []EventRecord  `json:"events,omitempty"`
}

// EventRecord is a span event, timed relative to the span start.
type EventRecord struct {
	Name       string         `json:"name"`
	OffsetMs   float64        `json:"offset_ms"`
	Attributes map[string]any `json:"attrs,omitempty"`
}

// FileExporter appends spans to a JSONL file.
type FileExporter struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewFileExporter opens path for appending, creating parent directories.
func NewFileExporter(path string) (*FileExporter, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- path comes from config
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &FileExporter{f: f, enc: json.NewEncoder(f)}, nil
}

// ExportSpans writes one record per span.
func (e *FileExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.f == nil {
		return errExporterClosed
	}
	for _, s := range spans {
		if err := e.enc.Encode(newSpanRecord(s)); err != nil {
			return fmt.Errorf("encode span %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Shutdown closes the file. Later calls do nothing.
func (e *FileExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.f == nil {
		return nil
	}
	err := e.f.Close()
	e.f, e.enc = nil, nil
	return err
}

func newSpanRecord(s sdktrace.ReadOnlySpan) SpanRecord {
	start := s.StartTime()
	rec := SpanRecord{
		Trace:      s.SpanContext().TraceID().String(),
		Span:       s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		StartMs:    start.UnixMilli(),
		DurationMs: float64(s.EndTime().Sub(start).Microseconds()) / 1000,
	}
	if p := s.Parent(); p.IsValid() {
		rec.Parent = p.SpanID().String()
	}
	if st := s.Status(); st.Code == codes.Error {
		rec.Failed = true
		rec.Error = st.Description
	}

	rec.Attributes = attrMap(s.Attributes())
	if v, ok := rec.Attributes[AttrUnitID].(string); ok {
		rec.Unit = v
		delete(rec.Attributes, AttrUnitID)
	}
	if v, ok := rec.Attributes[AttrTable].(string); ok {
		rec.Table = v
		delete(rec.Attributes, AttrTable)
	}
	if len(rec.Attributes) == 0 {
		rec.Attributes = nil
	}

	for _, ev := range s.Events() {
		rec.Events = append(rec.Events, EventRecord{
			Name:       ev.Name,
			OffsetMs:   float64(ev.Time.Sub(start).Microseconds()) / 1000,
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
