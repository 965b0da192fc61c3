package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medico/backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTracker returns statuses in order, repeating the last one
type scriptedTracker struct {
	mu       sync.Mutex
	statuses []order.Status
	err      error
	calls    atomic.Int32
}

func (s *scriptedTracker) Track(_ context.Context, id string) (*Order, error) {
	n := int(s.calls.Add(1))
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := n - 1
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	return &Order{TrackingID: id, Status: s.statuses[i]}, nil
}

func collect() (func(PollResult), func() []PollResult) {
	var mu sync.Mutex
	var results []PollResult
	return func(r PollResult) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}, func() []PollResult {
			mu.Lock()
			defer mu.Unlock()
			return append([]PollResult(nil), results...)
		}
}

func TestTrackingPoller_FiresImmediately(t *testing.T) {
	tracker := &scriptedTracker{statuses: []order.Status{order.StatusPending}}
	onResult, results := collect()
	p := NewTrackingPoller(tracker, "cs_1", onResult, WithInterval(time.Hour))

	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return len(results()) == 1 }, time.Second, 5*time.Millisecond)

	p.Stop()
	assert.Equal(t, int32(1), tracker.calls.Load())
	assert.Equal(t, "cs_1", results()[0].Order.TrackingID)
}

func TestTrackingPoller_PollsOnInterval(t *testing.T) {
	tracker := &scriptedTracker{statuses: []order.Status{order.StatusPending}}
	onResult, results := collect()
	p := NewTrackingPoller(tracker, "cs_1", onResult, WithInterval(10*time.Millisecond))

	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return len(results()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	after := tracker.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, tracker.calls.Load(), "no fetches after Stop")
}

func TestTrackingPoller_StopOnFinal(t *testing.T) {
	tracker := &scriptedTracker{statuses: []order.Status{order.StatusPending, order.StatusPending, order.StatusPaid}}
	onResult, results := collect()
	p := NewTrackingPoller(tracker, "cs_1", onResult, WithInterval(5*time.Millisecond), WithStopOnFinal())

	require.NoError(t, p.Start(context.Background()))
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on paid")
	}

	got := results()
	require.Len(t, got, 3)
	assert.Equal(t, order.StatusPaid, got[2].Order.Status)
	p.Stop()
}

func TestTrackingPoller_ContinuesOnError(t *testing.T) {
	tracker := &scriptedTracker{err: errors.New("connection refused")}
	onResult, results := collect()
	p := NewTrackingPoller(tracker, "cs_1", onResult, WithInterval(5*time.Millisecond), WithStopOnFinal())

	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return len(results()) >= 2 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	for _, r := range results() {
		assert.Nil(t, r.Order)
		assert.Error(t, r.Err)
	}
}

func TestTrackingPoller_ContextCancel(t *testing.T) {
	tracker := &scriptedTracker{statuses: []order.Status{order.StatusPending}}
	p := NewTrackingPoller(tracker, "cs_1", nil, WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	cancel()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller goroutine leaked after context cancel")
	}
	p.Stop()
}

func TestTrackingPoller_StartTwice(t *testing.T) {
	tracker := &scriptedTracker{statuses: []order.Status{order.StatusPending}}
	p := NewTrackingPoller(tracker, "cs_1", nil, WithInterval(time.Hour))

	require.NoError(t, p.Start(context.Background()))
	assert.ErrorIs(t, p.Start(context.Background()), ErrPollerStarted)
	p.Stop()
	assert.ErrorIs(t, p.Start(context.Background()), ErrPollerStarted)
}

func TestTrackingPoller_StopWithoutStart(t *testing.T) {
	p := NewTrackingPoller(&scriptedTracker{}, "cs_1", nil)
	p.Stop()
	p.Stop()
	assert.Equal(t, DefaultPollInterval, p.interval)
}
