package feed

import (
	"context"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
)

type options struct {
	now func() time.Time
	log *logger.Logger
}

type Option func(*options)

// WithClock replaces time.Now for cool-downs, throttling and settle windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.MustNamed("feed")
	}
	return o
}

type handler func(ev Event) (changed bool, after []func())

// deferredEvent is an event waiting for its own due time. Due times are
// wall clock: they drive a real timer, whatever clock the feed reads.
type deferredEvent struct {
	due time.Time
	ev  Event
}

// machine serialises every event of a feed. Events dispatched while another
// one is being handled are queued and handled by the same goroutine, so a
// subscriber may dispatch from its callback. Subscribers run outside the
// lock, then the after hooks of the event run against the rendered view.
type machine struct {
	mu       sync.Mutex
	st       State
	queue    []Event
	draining bool
	closed   bool
	subs     map[int]func(State)
	nextSub  int
	timer    *time.Timer
	timerDue time.Time
	deferred []deferredEvent
	handle   handler

	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	now     func() time.Time
	log     *logger.Logger
}

func newMachine(o options, timeout time.Duration) *machine {
	ctx, cancel := context.WithCancel(context.Background())
	return &machine{
		subs:    map[int]func(State){},
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
		now:     o.now,
		log:     o.log,
	}
}

// begin rebinds the machine lifetime to ctx.
func (m *machine) begin(ctx context.Context) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancel()
	m.ctx, m.cancel = context.WithCancel(ctx)
	return m.ctx
}

// State returns a copy of the current state.
func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

// Subscribe registers fn for every state change. The returned func removes it.
func (m *machine) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *machine) Dispatch(ev Event) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, ev)
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	m.mu.Unlock()

	for {
		m.mu.Lock()
		if m.closed || len(m.queue) == 0 {
			m.draining = false
			m.queue = nil
			m.mu.Unlock()
			return
		}
		next := m.queue[0]
		m.queue = m.queue[1:]
		changed, after := m.handle(next)
		snapshot := m.st.clone()
		m.st.Scroll = ScrollNone
		subs := make([]func(State), 0, len(m.subs))
		for _, fn := range m.subs {
			subs = append(subs, fn)
		}
		m.mu.Unlock()

		if changed {
			for _, fn := range subs {
				fn(snapshot)
			}
		}
		for _, fn := range after {
			fn()
		}
	}
}

// Close detaches subscribers, stops the pending timer and cancels in-flight
// fetches. Results arriving afterwards are dropped.
func (m *machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.subs = map[int]func(State){}
	m.deferred = nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.cancel()
}

// later re-dispatches ev after d. Each event keeps its own due time and the
// single timer is armed for the earliest one. Must be called with mu held.
func (m *machine) later(d time.Duration, ev Event) {
	if _, ok := ev.(ScrollChanged); ok {
		for _, pending := range m.deferred {
			if _, dup := pending.ev.(ScrollChanged); dup {
				return
			}
		}
	}
	m.deferred = append(m.deferred, deferredEvent{due: time.Now().Add(d), ev: ev})
	m.arm()
}

// arm points the timer at the earliest deferred event. Must be called with
// mu held.
func (m *machine) arm() {
	if m.closed || len(m.deferred) == 0 {
		return
	}
	next := m.deferred[0].due
	for _, p := range m.deferred[1:] {
		if p.due.Before(next) {
			next = p.due
		}
	}
	if m.timer != nil {
		if !m.timerDue.After(next) {
			return
		}
		m.timer.Stop()
	}
	m.timerDue = next
	m.timer = time.AfterFunc(time.Until(next), m.fire)
}

// fire dispatches every deferred event that is due and re-arms for the rest.
func (m *machine) fire() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	now := time.Now()
	var due []Event
	rest := make([]deferredEvent, 0, len(m.deferred))
	for _, p := range m.deferred {
		if p.due.After(now) {
			rest = append(rest, p)
			continue
		}
		due = append(due, p.ev)
	}
	m.deferred = rest
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.arm()
	m.mu.Unlock()

	for _, ev := range due {
		m.Dispatch(ev)
	}
}

// fetch runs call on its own goroutine and dispatches the resulting event.
func (m *machine) fetch(call func(ctx context.Context) Event) {
	parent := m.ctx
	go func() {
		ctx, cancel := parent, context.CancelFunc(func() {})
		if m.timeout > 0 {
			ctx, cancel = context.WithTimeout(parent, m.timeout)
		}
		defer cancel()
		m.Dispatch(call(ctx))
	}()
}

// pump forwards live batches until the source closes the channel. A close
// the feed did not ask for is reported as LiveFailed.
func (m *machine) pump(batches <-chan models.LiveBatch) {
	ctx := m.ctx
	go func() {
		for b := range batches {
			m.Dispatch(LiveBatchArrived{Batch: b})
		}
		if ctx.Err() == nil {
			m.Dispatch(LiveFailed{Err: ErrLiveClosed})
		}
	}()
}

// throttled reports whether a scroll event arrived too soon after the last
// one; the event is then replayed once the gate opens.
func (m *machine) throttled(last *time.Time, gap time.Duration) bool {
	now := m.now()
	if elapsed := now.Sub(*last); !last.IsZero() && elapsed < gap {
		m.later(gap-elapsed, ScrollChanged{})
		return true
	}
	*last = now
	return false
}

func newestTime(msgs []models.Message) int64 {
	if len(msgs) == 0 {
		return 0
	}
	return msgs[len(msgs)-1].CreationTime
}
