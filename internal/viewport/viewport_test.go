package viewport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratechart/internal/modules/layout"
)

type recorder struct {
	mu    sync.Mutex
	sizes []layout.Size
	seen  chan layout.Size
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan layout.Size, 16)}
}

func (r *recorder) handle(ctx context.Context, size layout.Size) {
	r.mu.Lock()
	r.sizes = append(r.sizes, size)
	r.mu.Unlock()
	r.seen <- size
}

func (r *recorder) wait(t *testing.T) layout.Size {
	t.Helper()
	select {
	case s := <-r.seen:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update cycle")
		return layout.Size{}
	}
}

func TestSubscription_DeliversNotification(t *testing.T) {
	hub := NewHub(Throttle{}, zerolog.Nop())
	rec := newRecorder()

	sub := hub.Subscribe(context.Background(), rec.handle)
	defer sub.Cancel()

	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, 1, hub.Count())

	sub.Notify(layout.Size{Width: 960, Height: 500})
	assert.Equal(t, layout.Size{Width: 960, Height: 500}, rec.wait(t))
	assert.Equal(t, layout.Size{Width: 960, Height: 500}, sub.Size())
	assert.Equal(t, 1, sub.Cycles())
}

func TestSubscription_CoalescesWhileBusy(t *testing.T) {
	hub := NewHub(Throttle{}, zerolog.Nop())

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var got []layout.Size
	finished := make(chan struct{}, 4)

	sub := hub.Subscribe(context.Background(), func(ctx context.Context, size layout.Size) {
		mu.Lock()
		first := len(got) == 0
		got = append(got, size)
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		finished <- struct{}{}
	})
	defer sub.Cancel()

	sub.Notify(layout.Size{Width: 100, Height: 100})
	<-started

	sub.Notify(layout.Size{Width: 200, Height: 200})
	sub.Notify(layout.Size{Width: 300, Height: 300})
	sub.Notify(layout.Size{Width: 400, Height: 400})
	close(release)

	<-finished
	<-finished

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []layout.Size{{Width: 100, Height: 100}, {Width: 400, Height: 400}}, got)
}

func TestSubscription_Throttled(t *testing.T) {
	hub := NewHub(Throttle{Rate: 50, Burst: 1}, zerolog.Nop())
	rec := newRecorder()

	sub := hub.Subscribe(context.Background(), rec.handle)
	defer sub.Cancel()

	start := time.Now()
	sub.Notify(layout.Size{Width: 1, Height: 1})
	rec.wait(t)
	sub.Notify(layout.Size{Width: 2, Height: 2})
	assert.Equal(t, layout.Size{Width: 2, Height: 2}, rec.wait(t))

	// second cycle has to wait for a fresh token
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestSubscription_CancelStopsDelivery(t *testing.T) {
	hub := NewHub(Throttle{}, zerolog.Nop())
	rec := newRecorder()

	sub := hub.Subscribe(context.Background(), rec.handle)
	sub.Cancel()
	sub.Cancel()

	sub.Notify(layout.Size{Width: 5, Height: 5})

	select {
	case <-rec.seen:
		t.Fatal("handler ran after cancel")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, hub.Count())
}

func TestSubscription_EndsWithContext(t *testing.T) {
	hub := NewHub(Throttle{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	sub := hub.Subscribe(ctx, newRecorder().handle)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end")
	}
	require.Equal(t, 0, hub.Count())
}

func TestSubscription_ImplementsContainer(t *testing.T) {
	hub := NewHub(Throttle{}, zerolog.Nop())
	rec := newRecorder()
	sub := hub.Subscribe(context.Background(), rec.handle)
	defer sub.Cancel()

	var c layout.Container = sub
	sub.Notify(layout.Size{Width: 960, Height: 500})
	rec.wait(t)

	m := layout.Compute(c, layout.DefaultMargins)
	assert.Equal(t, 805, m.Width)
	assert.Equal(t, 430, m.Height)
}
