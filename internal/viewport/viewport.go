// Package viewport delivers container resize notifications to chart viewers.
package viewport

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/ratechart/internal/modules/layout"
)

// Handler runs one update cycle for a new container size
type Handler func(ctx context.Context, size layout.Size)

// Throttle limits how often a subscription's handler runs. A zero Rate
// delivers every notification as soon as the previous cycle finishes.
type Throttle struct {
	Rate  float64 // cycles per second
	Burst int
}

// Hub tracks the live subscriptions
type Hub struct {
	mu       sync.Mutex
	subs     map[string]*Subscription
	throttle Throttle
	log      zerolog.Logger
}

// NewHub creates a hub applying throttle to every subscription
func NewHub(throttle Throttle, log zerolog.Logger) *Hub {
	if throttle.Burst < 1 {
		throttle.Burst = 1
	}
	return &Hub{
		subs:     make(map[string]*Subscription),
		throttle: throttle,
		log:      log.With().Str("component", "viewport").Logger(),
	}
}

// Subscribe registers handler for resize notifications. Notifications that
// arrive while a cycle is running or throttled are coalesced into the latest
// size. The subscription ends when ctx is done or Cancel is called.
func (h *Hub) Subscribe(ctx context.Context, handler Handler) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	s := &Subscription{
		id:      uuid.NewString(),
		handler: handler,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
		hub:     h,
	}
	if h.throttle.Rate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(h.throttle.Rate), h.throttle.Burst)
	}

	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()

	h.log.Debug().Str("viewer_id", s.id).Msg("Viewer subscribed")

	go s.run(ctx)
	return s
}

// Count returns the number of live subscriptions
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
	h.log.Debug().Str("viewer_id", id).Msg("Viewer unsubscribed")
}

// Subscription is one viewer's stream of container sizes. It also serves as
// the layout.Container for that viewer.
type Subscription struct {
	id      string
	handler Handler
	limiter *rate.Limiter
	signal  chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
	hub     *Hub

	mu      sync.Mutex
	latest  layout.Size
	pending bool
	current layout.Size
	stopped bool
	cycles  int
}

// ID is the subscription's unique viewer id
func (s *Subscription) ID() string {
	return s.id
}

// Notify records a new container size. It never blocks.
func (s *Subscription) Notify(size layout.Size) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.latest = size
	s.pending = true
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Size returns the size used by the most recent update cycle
func (s *Subscription) Size() layout.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Cycles returns how many update cycles have run
func (s *Subscription) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

// Cancel ends the subscription and waits for a running cycle to finish.
// It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has ended
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) take() (layout.Size, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return layout.Size{}, false
	}
	s.pending = false
	s.current = s.latest
	s.cycles++
	return s.current, true
}

func (s *Subscription) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		s.hub.remove(s.id)
		close(s.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.signal:
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
		}

		size, ok := s.take()
		if !ok {
			continue
		}
		s.handler(ctx, size)
	}
}
