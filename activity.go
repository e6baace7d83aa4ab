package portal

import (
	"context"
	"sync"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegistered  ActivityEventType = "portal.user.registered"
	ActivityEventLogin       ActivityEventType = "portal.user.login"
	ActivityEventRoleChanged ActivityEventType = "portal.user.role.changed"
	ActivityEventSignOut     ActivityEventType = "portal.user.signout"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserID     string
	Username   string
	Avatar     string
	DiscordID  string
	Role       Role
	Status     AccountStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

// NoopActivitySink returns a sink that discards every event.
func NoopActivitySink() ActivitySink {
	return noopActivitySink{}
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// ActivityDispatcher decouples activity recording from the caller's control
// flow: Record enqueues without blocking and a background worker delivers to
// the wrapped sink. Delivery failures are logged, never propagated, so the
// sink can never be accidentally made blocking or failure-propagating.
type ActivityDispatcher struct {
	sink    ActivitySink
	queue   chan ActivityEvent
	logger  Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// ActivityDispatcherOption customizes dispatcher construction.
type ActivityDispatcherOption func(*ActivityDispatcher)

// WithDispatcherQueueSize sets the pending-event buffer (default 64).
func WithDispatcherQueueSize(size int) ActivityDispatcherOption {
	return func(d *ActivityDispatcher) {
		if size > 0 {
			d.queue = make(chan ActivityEvent, size)
		}
	}
}

// WithDispatcherLogger overrides the logger used for delivery failures.
func WithDispatcherLogger(l Logger) ActivityDispatcherOption {
	return func(d *ActivityDispatcher) {
		d.logger = normalizeLogger(l)
	}
}

// WithDispatcherTimeout bounds each delivery attempt (default 10s).
func WithDispatcherTimeout(timeout time.Duration) ActivityDispatcherOption {
	return func(d *ActivityDispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewActivityDispatcher starts the background worker. Callers should Close the
// dispatcher on shutdown to drain pending events.
func NewActivityDispatcher(sink ActivitySink, opts ...ActivityDispatcherOption) *ActivityDispatcher {
	d := &ActivityDispatcher{
		sink:    normalizeActivitySink(sink),
		queue:   make(chan ActivityEvent, 64),
		logger:  defLogger{},
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	go d.drain()

	return d
}

// Record implements ActivitySink. It never blocks and never fails the
// caller: a full queue or a closed dispatcher drops the event with a log
// line. At-most-once delivery is the contract.
func (d *ActivityDispatcher) Record(ctx context.Context, event ActivityEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.Debug("activity dispatcher closed, dropping event",
			"event_type", string(event.EventType),
			"user_id", event.UserID,
		)
		return nil
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Error("activity queue full, dropping event",
			"event_type", string(event.EventType),
			"user_id", event.UserID,
		)
	}

	return nil
}

// Close stops accepting events and drains what is already queued. The
// closed flag is flipped under the same mutex Record holds, so a Record
// racing Close lands either in the queue or on the drop path, never on a
// closed channel.
func (d *ActivityDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

func (d *ActivityDispatcher) drain() {
	defer close(d.done)

	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Record(ctx, event); err != nil {
			d.logger.Error("activity delivery failed",
				"event_type", string(event.EventType),
				"user_id", event.UserID,
				"error", err,
			)
		}
		cancel()
	}
}
