package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// DefaultDelay is the quiet period before scheduled values are saved.
const DefaultDelay = 2 * time.Second

// ErrClosed is returned by Flush and Schedule after Close.
var ErrClosed = errors.New("autosave: closed")

// SaveFunc persists one snapshot of values.
type SaveFunc func(ctx context.Context, values model.Values) error

// Option customises a Saver.
type Option func(*Saver)

// WithDelay sets the debounce delay.
func WithDelay(delay time.Duration) Option {
	return func(s *Saver) {
		if delay > 0 {
			s.delay = delay
		}
	}
}

// OnError registers a callback for saves triggered by the timer, whose
// errors have no caller to return to.
func OnError(fn func(error)) Option {
	return func(s *Saver) {
		s.onError = fn
	}
}

// OnSaved registers a callback run after a timer-triggered save succeeds.
// It runs outside the saver's locks.
func OnSaved(fn func()) Option {
	return func(s *Saver) {
		s.onSaved = fn
	}
}

// WithLogger sets the saver logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Saver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Saver debounces writes of a value store. Each Schedule replaces the
// pending snapshot and restarts the timer, so only the last snapshot of a
// burst is written.
type Saver struct {
	save    SaveFunc
	delay   time.Duration
	onError func(error)
	onSaved func()
	logger  *zap.Logger

	mu      sync.Mutex
	pending model.Values
	dirty   bool
	timer   *time.Timer
	closed  bool
	wg      sync.WaitGroup

	// saveMu serialises writes so a timer save and a Flush never overlap.
	saveMu sync.Mutex
}

// New constructs a Saver around save.
func New(save SaveFunc, options ...Option) *Saver {
	s := &Saver{
		save:   save,
		delay:  DefaultDelay,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Schedule records a snapshot and (re)starts the timer.
func (s *Saver) Schedule(values model.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.pending = values.Clone()
	s.dirty = true
	s.stopTimerLocked()

	s.wg.Add(1)
	s.timer = time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		if err := s.flush(context.Background()); err != nil {
			s.logger.Warn("autosave failed", zap.Error(err))
			if s.onError != nil {
				s.onError(err)
			}
			return
		}
		if s.onSaved != nil {
			s.onSaved()
		}
	})
	return nil
}

// Pending reports whether a snapshot is waiting to be written.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush cancels the timer and writes the pending snapshot now.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stopTimerLocked()
	s.mu.Unlock()

	return s.flush(ctx)
}

// Close flushes and stops the saver, waiting for any in-flight timer save.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()

	err := s.flush(ctx)
	s.wg.Wait()
	return err
}

// Stop discards the pending snapshot without saving and waits for any
// in-flight timer save. Use it when a newer value store is about to be
// written directly.
func (s *Saver) Stop() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.pending = nil
	s.dirty = false
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Saver) flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	values := s.pending
	s.pending = nil
	s.dirty = false
	s.mu.Unlock()

	if err := s.save(ctx, values); err != nil {
		s.mu.Lock()
		// Keep the failed snapshot unless a newer one arrived meanwhile.
		if !s.dirty {
			s.pending = values
			s.dirty = true
		}
		s.mu.Unlock()
		return err
	}
	s.logger.Debug("autosaved", zap.Int("fields", len(values)))
	return nil
}

// stopTimerLocked cancels the pending timer and releases its WaitGroup slot
// when the callback had not started. Callers hold s.mu.
func (s *Saver) stopTimerLocked() {
	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil
}
