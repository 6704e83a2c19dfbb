package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// AppointmentCompleter is the part of AppointmentService the auto-completer
// drives.
type AppointmentCompleter interface {
	AutoComplete(ctx context.Context, id uuid.UUID) (bool, error)
	OverdueInProgress(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	PendingAutoCompletions(ctx context.Context) (map[uuid.UUID]time.Time, error)
}

// AutoCompleter owns one timer per checked-in appointment. Timers are a fast
// path only; the persisted due time plus the periodic sweep cover restarts
// and missed fires.
type AutoCompleter struct {
	completer AppointmentCompleter
	timeout   time.Duration
	now       func() time.Time

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

func NewAutoCompleter(completer AppointmentCompleter) *AutoCompleter {
	return &AutoCompleter{
		completer: completer,
		timeout:   10 * time.Second,
		now:       time.Now,
		timers:    make(map[uuid.UUID]*time.Timer),
	}
}

// Schedule arms (or re-arms) the transition for id at due.
func (a *AutoCompleter) Schedule(id uuid.UUID, due time.Time) {
	delay := due.Sub(a.now())
	if delay < 0 {
		delay = 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.timers[id]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		a.mu.Lock()
		if a.timers[id] == timer {
			delete(a.timers, id)
		}
		a.mu.Unlock()
		a.fire(id)
	})
	a.timers[id] = timer
}

func (a *AutoCompleter) Cancel(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.timers[id]; ok {
		t.Stop()
		delete(a.timers, id)
	}
}

// Pending reports how many timers are armed.
func (a *AutoCompleter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}

func (a *AutoCompleter) fire(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	changed, err := a.completer.AutoComplete(ctx, id)
	if err != nil {
		slog.Error("auto-complete failed", "appointment", id, "error", err)
		return
	}
	if changed {
		slog.Info("appointment auto-completed", "appointment", id)
	}
}

// Sweep completes every in-progress appointment whose due time has passed.
func (a *AutoCompleter) Sweep(ctx context.Context) (int, error) {
	ids, err := a.completer.OverdueInProgress(ctx, a.now())
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, id := range ids {
		a.Cancel(id)
		changed, err := a.completer.AutoComplete(ctx, id)
		if err != nil {
			return completed, err
		}
		if changed {
			completed++
		}
	}
	if completed > 0 {
		slog.Info("auto-complete sweep", "completed", completed)
	}
	return completed, nil
}

// Restore re-arms timers for appointments checked in before a restart.
func (a *AutoCompleter) Restore(ctx context.Context) error {
	pending, err := a.completer.PendingAutoCompletions(ctx)
	if err != nil {
		return err
	}
	for id, due := range pending {
		a.Schedule(id, due)
	}
	slog.Info("auto-complete timers restored", "count", len(pending))
	return nil
}

// Register adds the periodic sweep to c.
func (a *AutoCompleter) Register(c *cron.Cron) error {
	_, err := c.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := a.Sweep(ctx); err != nil {
			slog.Error("auto-complete sweep failed", "error", err)
		}
	})
	return err
}

// Stop disarms every timer.
func (a *AutoCompleter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, t := range a.timers {
		t.Stop()
		delete(a.timers, id)
	}
}
