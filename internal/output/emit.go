package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// EmitSink writes an additional structured stream, typically to stdout.
//
// Formats:
//   - json: writes the final Document on Close
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	writer io.Writer
	format string // "json" | "ndjson"
	mu     sync.Mutex
	doc    *Document
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := v.(*Document); ok {
		s.doc = d
		return nil
	}
	if s.format != "ndjson" {
		return nil
	}
	if err := encodeEvent(json.NewEncoder(s.writer), v); err != nil {
		return err
	}
	return flushIfPossible(s.writer)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "json" || s.doc == nil {
		return nil
	}
	encoder := json.NewEncoder(s.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.doc); err != nil {
		return err
	}
	return flushIfPossible(s.writer)
}
