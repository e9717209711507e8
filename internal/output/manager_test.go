package output

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopolicy/internal/report"
	"repopolicy/internal/rules"
)

type recordingSink struct {
	name     string
	mu       sync.Mutex
	writes   []any
	closes   int
	writeErr error
	closeErr error
}

func (s *recordingSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, v)
	return s.writeErr
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return s.closeErr
}

func TestManager(t *testing.T) {
	t.Run("writes to all sinks in order", func(t *testing.T) {
		a, b := &recordingSink{}, &recordingSink{}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(a))
		require.NoError(t, mgr.AddSink(b))

		res := rules.PassResult("readme-required", "ok", nil)
		rep := report.New([]rules.Result{res})
		require.NoError(t, mgr.Write(Event{Type: EventRunStarted}))
		require.NoError(t, mgr.Write(res))
		require.NoError(t, mgr.Write(FinishedEvent(rep)))
		require.NoError(t, mgr.Close())

		for _, s := range []*recordingSink{a, b} {
			require.Len(t, s.writes, 3)
			assert.Equal(t, EventRunStarted, s.writes[0].(Event).Type)
			assert.Equal(t, "readme-required", s.writes[1].(rules.Result).RuleID)
			assert.Equal(t, EventRunFinished, s.writes[2].(Event).Type)
			assert.Equal(t, 1, s.closes)
		}
	})

	t.Run("late sinks only see later values", func(t *testing.T) {
		early, late := &recordingSink{}, &recordingSink{}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(early))
		require.NoError(t, mgr.Write(Event{Type: EventRunStarted}))
		require.NoError(t, mgr.AddSink(late))
		require.NoError(t, mgr.Write(&Document{Version: DocumentVersion}))

		assert.Len(t, early.writes, 2)
		require.Len(t, late.writes, 1)
		assert.IsType(t, &Document{}, late.writes[0])
	})

	t.Run("document is written once", func(t *testing.T) {
		s := &recordingSink{}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(s))
		require.NoError(t, mgr.Write(&Document{}))
		assert.ErrorContains(t, mgr.Write(&Document{}), "already written")
		assert.Len(t, s.writes, 1)
	})

	t.Run("rejects nil sink", func(t *testing.T) {
		assert.Error(t, NewManager().AddSink(nil))
	})

	t.Run("write and add after close fail", func(t *testing.T) {
		s := &recordingSink{}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(s))
		require.NoError(t, mgr.Close())
		require.NoError(t, mgr.Close())

		assert.ErrorIs(t, mgr.Write("v"), ErrClosed)
		assert.ErrorIs(t, mgr.AddSink(&recordingSink{}), ErrClosed)
		assert.Equal(t, 1, s.closes)
	})

	t.Run("write aggregates sink errors", func(t *testing.T) {
		a := &recordingSink{writeErr: errors.New("boom-a")}
		b := &recordingSink{writeErr: errors.New("boom-b")}
		c := &recordingSink{}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(a))
		require.NoError(t, mgr.AddSink(b))
		require.NoError(t, mgr.AddSink(c))

		err := mgr.Write("v")
		require.Error(t, err)
		for _, want := range []string{"errors writing to sinks", "boom-a", "boom-b", "recordingSink"} {
			assert.Contains(t, err.Error(), want)
		}
		assert.Len(t, c.writes, 1)
	})

	t.Run("close aggregates sink errors", func(t *testing.T) {
		a := &recordingSink{closeErr: errors.New("close-a")}
		b := &recordingSink{closeErr: errors.New("close-b")}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(a))
		require.NoError(t, mgr.AddSink(b))

		err := mgr.Close()
		require.Error(t, err)
		for _, want := range []string{"errors closing sinks", "close-a", "close-b"} {
			assert.Contains(t, err.Error(), want)
		}
	})

	t.Run("concurrent writes reach every sink", func(t *testing.T) {
		s := &recordingSink{}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(s))

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = mgr.Write(i)
			}()
		}
		wg.Wait()
		assert.Len(t, s.writes, 20)
	})
}
