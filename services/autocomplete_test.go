package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	mu        sync.Mutex
	completed []uuid.UUID
	fired     chan uuid.UUID
	overdue   []uuid.UUID
	pending   map[uuid.UUID]time.Time
	err       error
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{fired: make(chan uuid.UUID, 16), pending: map[uuid.UUID]time.Time{}}
}

func (f *fakeCompleter) AutoComplete(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, done := range f.completed {
		if done == id {
			return false, nil
		}
	}
	f.completed = append(f.completed, id)
	f.fired <- id
	return true, nil
}

func (f *fakeCompleter) OverdueInProgress(context.Context, time.Time) ([]uuid.UUID, error) {
	return f.overdue, nil
}

func (f *fakeCompleter) PendingAutoCompletions(context.Context) (map[uuid.UUID]time.Time, error) {
	return f.pending, nil
}

func TestAutoCompleterFiresWhenDue(t *testing.T) {
	completer := newFakeCompleter()
	ac := NewAutoCompleter(completer)
	defer ac.Stop()
	id := uuid.New()

	ac.Schedule(id, time.Now().Add(20*time.Millisecond))

	select {
	case got := <-completer.fired:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	assert.Eventually(t, func() bool { return ac.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestAutoCompleterCancel(t *testing.T) {
	completer := newFakeCompleter()
	ac := NewAutoCompleter(completer)
	id := uuid.New()

	ac.Schedule(id, time.Now().Add(50*time.Millisecond))
	assert.Equal(t, 1, ac.Pending())
	ac.Cancel(id)
	assert.Equal(t, 0, ac.Pending())

	select {
	case <-completer.fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestAutoCompleterRescheduleReplacesTimer(t *testing.T) {
	completer := newFakeCompleter()
	ac := NewAutoCompleter(completer)
	defer ac.Stop()
	id := uuid.New()

	ac.Schedule(id, time.Now().Add(time.Hour))
	ac.Schedule(id, time.Now().Add(10*time.Millisecond))
	assert.Equal(t, 1, ac.Pending())

	select {
	case <-completer.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement timer never fired")
	}
}

func TestAutoCompleterSweep(t *testing.T) {
	completer := newFakeCompleter()
	ac := NewAutoCompleter(completer)
	a, b := uuid.New(), uuid.New()
	completer.overdue = []uuid.UUID{a, b}
	ac.Schedule(a, time.Now().Add(time.Hour))

	n, err := ac.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, ac.Pending(), "sweep disarms timers it completes")

	n, err = ac.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	completer.err = errors.New("db down")
	_, err = ac.Sweep(context.Background())
	assert.Error(t, err)
}

func TestAutoCompleterRestore(t *testing.T) {
	completer := newFakeCompleter()
	ac := NewAutoCompleter(completer)
	defer ac.Stop()
	completer.pending[uuid.New()] = time.Now().Add(time.Hour)
	completer.pending[uuid.New()] = time.Now().Add(2 * time.Hour)

	require.NoError(t, ac.Restore(context.Background()))
	assert.Equal(t, 2, ac.Pending())

	ac.Stop()
	assert.Equal(t, 0, ac.Pending())
}

func TestAutoCompleterRegister(t *testing.T) {
	c := cron.New()
	ac := NewAutoCompleter(newFakeCompleter())

	require.NoError(t, ac.Register(c))
	assert.Len(t, c.Entries(), 1)
}
