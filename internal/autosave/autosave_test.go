package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/goliatone/go-reportgen/pkg/model"
)

type recorder struct {
	mu    sync.Mutex
	saves []model.Values
	err   error
	done  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 16)}
}

func (r *recorder) save(_ context.Context, values model.Values) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done <- struct{}{} }()
	if r.err != nil {
		return r.err
	}
	r.saves = append(r.saves, values)
	return nil
}

func (r *recorder) snapshot() []model.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Values(nil), r.saves...)
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for save")
	}
}

func TestSchedule_LastWriteWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	s := New(rec.save, WithDelay(30*time.Millisecond))

	require.NoError(t, s.Schedule(model.Values{"a": "1"}))
	require.NoError(t, s.Schedule(model.Values{"a": "2"}))
	require.NoError(t, s.Schedule(model.Values{"a": "3"}))
	assert.True(t, s.Pending())

	rec.wait(t)
	assert.Equal(t, []model.Values{{"a": "3"}}, rec.snapshot())
	assert.False(t, s.Pending())

	require.NoError(t, s.Close(context.Background()))
}

func TestSchedule_CopiesValues(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	s := New(rec.save, WithDelay(time.Hour))

	values := model.Values{"a": "1"}
	require.NoError(t, s.Schedule(values))
	values["a"] = "mutated"

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []model.Values{{"a": "1"}}, rec.snapshot())
	require.NoError(t, s.Close(context.Background()))
}

func TestFlush_NothingPending(t *testing.T) {
	rec := newRecorder()
	s := New(rec.save)
	require.NoError(t, s.Flush(context.Background()))
	assert.Empty(t, rec.snapshot())
	require.NoError(t, s.Close(context.Background()))
}

func TestClose_FlushesAndRejectsFurtherWork(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	s := New(rec.save, WithDelay(time.Hour))
	require.NoError(t, s.Schedule(model.Values{"b": "2"}))

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, []model.Values{{"b": "2"}}, rec.snapshot())

	assert.ErrorIs(t, s.Schedule(model.Values{}), ErrClosed)
	assert.ErrorIs(t, s.Flush(context.Background()), ErrClosed)
	assert.NoError(t, s.Close(context.Background()))
}

func TestTimerFailure_KeepsSnapshotAndReports(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	rec.err = errors.New("database locked")
	errs := make(chan error, 1)
	s := New(rec.save, WithDelay(10*time.Millisecond), OnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	}))

	require.NoError(t, s.Schedule(model.Values{"c": "3"}))
	select {
	case err := <-errs:
		assert.EqualError(t, err, "database locked")
	case <-time.After(5 * time.Second):
		t.Fatalf("expected error callback")
	}
	assert.True(t, s.Pending())

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, []model.Values{{"c": "3"}}, rec.snapshot())
}

func TestStop_DiscardsPendingSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	s := New(rec.save, WithDelay(20*time.Millisecond))
	require.NoError(t, s.Schedule(model.Values{"v": "old"}))

	s.Stop()
	assert.False(t, s.Pending())
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	assert.ErrorIs(t, s.Schedule(model.Values{"v": "later"}), ErrClosed)
	assert.NoError(t, s.Close(context.Background()))
}

func TestOnSaved_RunsAfterTimerSave(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	saved := make(chan struct{}, 1)
	s := New(rec.save, WithDelay(10*time.Millisecond), OnSaved(func() {
		saved <- struct{}{}
	}))

	require.NoError(t, s.Schedule(model.Values{"d": "4"}))
	select {
	case <-saved:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected saved callback")
	}
	assert.False(t, s.Pending())
	assert.Equal(t, []model.Values{{"d": "4"}}, rec.snapshot())
	require.NoError(t, s.Close(context.Background()))
}
