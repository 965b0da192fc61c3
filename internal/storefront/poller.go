package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval matches the tracking page's refresh rate
const DefaultPollInterval = 5 * time.Second

// ErrPollerStarted is returned by a second call to Start
var ErrPollerStarted = errors.New("tracking poller already started")

// Tracker fetches the current state of an order
type Tracker interface {
	Track(ctx context.Context, trackingID string) (*Order, error)
}

// PollResult is delivered after every fetch. Exactly one of Order and Err is set.
type PollResult struct {
	Order *Order
	Err   error
}

// PollerOption configures a TrackingPoller
type PollerOption func(*TrackingPoller)

// WithInterval sets the delay between fetches
func WithInterval(d time.Duration) PollerOption {
	return func(p *TrackingPoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithStopOnFinal ends polling after an order reaches paid or expired
func WithStopOnFinal() PollerOption {
	return func(p *TrackingPoller) {
		p.stopOnFinal = true
	}
}

// WithPollerLogger sets the logger
func WithPollerLogger(logger *zap.Logger) PollerOption {
	return func(p *TrackingPoller) {
		p.logger = logger
	}
}

// TrackingPoller fetches an order on a fixed interval, starting immediately,
// until Stop is called or the Start context is cancelled.
type TrackingPoller struct {
	tracker     Tracker
	trackingID  string
	onResult    func(PollResult)
	interval    time.Duration
	stopOnFinal bool
	logger      *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewTrackingPoller creates a poller for trackingID. onResult runs on the
// poller's goroutine and must not call Stop.
func NewTrackingPoller(tracker Tracker, trackingID string, onResult func(PollResult), opts ...PollerOption) *TrackingPoller {
	p := &TrackingPoller{
		tracker:    tracker,
		trackingID: trackingID,
		onResult:   onResult,
		interval:   DefaultPollInterval,
		logger:     zap.NewNop(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the polling goroutine. A poller runs at most once.
func (p *TrackingPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrPollerStarted
	}
	p.started = true

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.run(ctx)

	p.logger.Debug("Tracking poller started",
		zap.String("tracking_id", p.trackingID),
		zap.Duration("interval", p.interval),
	)
	return nil
}

// Stop cancels polling and waits for the goroutine to exit. It is safe to
// call before Start and more than once.
func (p *TrackingPoller) Stop() {
	p.mu.Lock()
	started, cancel := p.started, p.cancel
	p.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-p.done
}

// Done is closed once the polling goroutine has exited
func (p *TrackingPoller) Done() <-chan struct{} {
	return p.done
}

func (p *TrackingPoller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if p.poll(ctx) {
			p.logger.Debug("Tracking poller reached a final status", zap.String("tracking_id", p.trackingID))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll fetches once and reports whether polling should end
func (p *TrackingPoller) poll(ctx context.Context) bool {
	o, err := p.tracker.Track(ctx, p.trackingID)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		p.logger.Debug("Tracking fetch failed", zap.String("tracking_id", p.trackingID), zap.Error(err))
		p.deliver(PollResult{Err: err})
		return false
	}
	p.deliver(PollResult{Order: o})
	return p.stopOnFinal && o.Status.IsFinal()
}

func (p *TrackingPoller) deliver(r PollResult) {
	if p.onResult != nil {
		p.onResult(r)
	}
}
