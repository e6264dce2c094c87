package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// TraceWriter writes one JSON line per round into a zstd-compressed file.
type TraceWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewTraceWriter creates path (and its directory) for writing.
func NewTraceWriter(path string) (*TraceWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &TraceWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

// Write appends v as one line.
func (t *TraceWriter) Write(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := t.w.Write(b); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

// WriteRound appends a snapshot of w.
func (t *TraceWriter) WriteRound(w *World) error {
	return t.Write(w.Snapshot())
}

// Close flushes and closes the file.
func (t *TraceWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var first error
	if t.w != nil {
		first = t.w.Flush()
		t.w = nil
	}
	if t.enc != nil {
		if err := t.enc.Close(); err != nil && first == nil {
			first = err
		}
		t.enc = nil
	}
	if t.f != nil {
		if err := t.f.Close(); err != nil && first == nil {
			first = err
		}
		t.f = nil
	}
	return first
}

// ReadTrace decodes every snapshot in a trace file.
func ReadTrace(path string) ([]Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Snapshot
	jd := json.NewDecoder(dec)
	for jd.More() {
		var s Snapshot
		if err := jd.Decode(&s); err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}
