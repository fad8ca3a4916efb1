package events

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus() *Bus {
	return NewBus(zerolog.Nop())
}

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := newTestBus()

	var got []*Event
	cancel := bus.Subscribe(DatasetLoaded, func(e *Event) { got = append(got, e) })
	defer cancel()

	bus.Emit(DatasetLoaded, "charts", map[string]interface{}{"records": 3})
	bus.Emit(ViewerConnected, "charts", nil)

	require.Len(t, got, 1)
	assert.Equal(t, DatasetLoaded, got[0].Type)
	assert.Equal(t, "charts", got[0].Module)
	assert.Equal(t, 3, got[0].Data["records"])
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := newTestBus()

	calls := 0
	cancel := bus.Subscribe(ViewerResized, func(*Event) { calls++ })
	assert.Equal(t, 1, bus.SubscriberCount(ViewerResized))

	bus.Emit(ViewerResized, "viewport", nil)
	cancel()
	cancel()
	bus.Emit(ViewerResized, "viewport", nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.SubscriberCount(ViewerResized))
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := newTestBus()

	seen := map[EventType]int{}
	cancel := bus.SubscribeAll(func(e *Event) { seen[e.Type]++ })

	for _, et := range AllTypes {
		bus.Emit(et, "test", nil)
	}
	cancel()
	bus.Emit(DatasetLoaded, "test", nil)

	for _, et := range AllTypes {
		assert.Equal(t, 1, seen[et], et)
	}
}

func TestBus_HandlerPanicDoesNotStopOthers(t *testing.T) {
	bus := newTestBus()

	delivered := false
	bus.Subscribe(ErrorOccurred, func(*Event) { panic("boom") })
	bus.Subscribe(ErrorOccurred, func(*Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Emit(ErrorOccurred, "test", nil) })
	assert.True(t, delivered)
}

func TestBus_ConcurrentSubscribeEmit(t *testing.T) {
	bus := newTestBus()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cancel := bus.Subscribe(DatasetLoaded, func(*Event) {})
			cancel()
		}()
		go func() {
			defer wg.Done()
			bus.Emit(DatasetLoaded, "test", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, bus.SubscriberCount(DatasetLoaded))
}

func TestManager_EmitTyped(t *testing.T) {
	bus := newTestBus()
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(DatasetLoaded, func(e *Event) { got = e })

	manager.EmitTyped("charts", &DatasetLoadedData{
		Source:   "data/fredgraph.csv",
		Checksum: "abc",
		Records:  229,
		Series:   []string{"UNRATE", "MOUR", "CLMUR"},
	})

	require.NotNil(t, got)
	typed, ok := got.TypedData().(*DatasetLoadedData)
	require.True(t, ok)
	assert.Equal(t, "data/fredgraph.csv", typed.Source)
	assert.Equal(t, 229, typed.Records)
	assert.Equal(t, []string{"UNRATE", "MOUR", "CLMUR"}, typed.Series)
}

func TestManager_EmitError(t *testing.T) {
	bus := newTestBus()
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { got = e })

	manager.EmitError("scheduler", assert.AnError, map[string]interface{}{"job": "reload"})

	require.NotNil(t, got)
	typed, ok := got.TypedData().(*ErrorEventData)
	require.True(t, ok)
	assert.Equal(t, assert.AnError.Error(), typed.Error)
	assert.Equal(t, "reload", typed.Context["job"])
}

func TestEvent_TypedData(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  EventData
	}{
		{
			name:  "load failed",
			event: Event{Type: DatasetLoadFailed, Data: map[string]interface{}{"source": "x.csv", "stage": "fetch", "error": "nope"}},
			want:  &DatasetLoadFailedData{Source: "x.csv", Stage: "fetch", Error: "nope"},
		},
		{
			name:  "viewer resized",
			event: Event{Type: ViewerResized, Data: map[string]interface{}{"viewer_id": "v1", "width": 800, "height": 600}},
			want:  &ViewerResizedData{ViewerID: "v1", Width: 800, Height: 600},
		},
		{
			name:  "unknown type",
			event: Event{Type: "SOMETHING_ELSE", Data: map[string]interface{}{}},
			want:  nil,
		},
		{
			name:  "nil data",
			event: Event{Type: ViewerConnected},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.TypedData())
		})
	}
}
