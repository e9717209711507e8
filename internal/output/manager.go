package output

import (
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned when writing to a Manager after Close.
var ErrClosed = errors.New("output manager is closed")

// Sink receives the run's events in order: Event values and rules.Result
// values while the run streams, then at most one *Document.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans run output out to its sinks. It is safe for concurrent use;
// each value reaches every sink before the next one is delivered.
type Manager struct {
	mu       sync.Mutex
	sinks    []Sink
	document bool
	closed   bool
}

func NewManager() *Manager {
	return &Manager{}
}

// AddSink attaches s. Sinks added late only see values written afterwards,
// which is how file reports join a run after its streaming phase.
func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Write delivers v to every sink. A failing sink does not stop delivery to
// the others; all failures are joined into the returned error.
func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := v.(*Document); ok {
		if m.document {
			return errors.New("report document already written")
		}
		m.document = true
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes every sink once. Later calls are no-ops.
func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
