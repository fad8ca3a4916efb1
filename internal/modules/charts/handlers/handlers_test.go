package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/ratechart/internal/events"
	"github.com/aristath/ratechart/internal/modules/charts"
	"github.com/aristath/ratechart/internal/modules/dataset"
	"github.com/aristath/ratechart/internal/modules/series"
	testingpkg "github.com/aristath/ratechart/internal/testing"
	"github.com/aristath/ratechart/internal/viewport"
)

const fixtureSource = "http://fixtures.local/fredgraph.csv"

func newTestService(t *testing.T, load bool) (*charts.Service, *testingpkg.MockFetcher) {
	t.Helper()

	fetcher := testingpkg.NewMockFetcher()
	fetcher.SetResource(fixtureSource, testingpkg.FixtureCSV)

	loader := dataset.NewLoader(zerolog.Nop(), dataset.WithHTTPFetcher(fetcher))
	service := charts.NewService(loader, fixtureSource, charts.DefaultOptions(), nil, nil, zerolog.Nop())
	if load {
		require.NoError(t, service.Load(context.Background()))
	}
	return service, fetcher
}

func newTestRouter(service *charts.Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(service, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleGetFrame(t *testing.T) {
	service, _ := newTestService(t, true)
	router := newTestRouter(service)

	tests := []struct {
		name        string
		target      string
		status      int
		contentType string
	}{
		{"default svg", "/charts/frame", http.StatusOK, "image/svg+xml"},
		{"explicit size", "/charts/frame?width=640&height=400&format=svg", http.StatusOK, "image/svg+xml"},
		{"png", "/charts/frame?format=png", http.StatusOK, "image/png"},
		{"bad width", "/charts/frame?width=wide", http.StatusBadRequest, ""},
		{"bad format", "/charts/frame?format=gif", http.StatusBadRequest, ""},
		{"empty container", "/charts/frame?width=0&height=0", http.StatusBadRequest, ""},
		{"oversized container", "/charts/frame?width=1073741824&height=1073741824&format=png", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
				assert.NotZero(t, w.Body.Len())
			}
		})
	}
}

func TestHandleGetFrame_NoSession(t *testing.T) {
	service, _ := newTestService(t, false)
	w := do(t, newTestRouter(service), http.MethodGet, "/charts/frame", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleGetSeries_JSON(t *testing.T) {
	service, _ := newTestService(t, true)
	w := do(t, newTestRouter(service), http.MethodGet, "/charts/series?series=UNRATE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "UNRATE", body[0]["id"])

	points := body[0]["points"].([]interface{})
	require.Len(t, points, 5)
	missing := points[2].(map[string]interface{})
	assert.Equal(t, "2010-01-01", missing["time"])
	assert.Nil(t, missing["value"])
}

func TestHandleGetSeries_Msgpack(t *testing.T) {
	service, _ := newTestService(t, true)
	header := http.Header{"Accept": []string{MsgpackContentType}}
	w := do(t, newTestRouter(service), http.MethodGet, "/charts/series", header)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MsgpackContentType, w.Header().Get("Content-Type"))

	var body []charts.SeriesData
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 3)
	assert.Equal(t, "Columbia, Missouri", body[2].Name)
	require.NotNil(t, body[2].Points[0].Value)
	assert.Equal(t, 1.9, *body[2].Points[0].Value)
}

func TestHandleGetLayout(t *testing.T) {
	service, _ := newTestService(t, false)
	w := do(t, newTestRouter(service), http.MethodGet, "/charts/layout?width=960&height=500", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body charts.LayoutInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 805, body.Metrics.Width)
	assert.Equal(t, 430, body.Metrics.Height)
	assert.Equal(t, 120, body.Metrics.Margins.Right)
	assert.Equal(t, [2]float64{430, 0}, body.Y.Range)
}

func TestHandleGetSummary(t *testing.T) {
	service, _ := newTestService(t, true)
	w := do(t, newTestRouter(service), http.MethodGet, "/charts/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body []series.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 3)
	assert.Equal(t, 4, body[0].Defined)
	require.NotNil(t, body[0].Latest)
	assert.Equal(t, 3.9, *body[0].Latest)
}

func TestHandleReload(t *testing.T) {
	service, fetcher := newTestService(t, false)
	router := newTestRouter(service)

	w := do(t, router, http.MethodPost, "/charts/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info charts.DatasetInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 5, info.Records)

	fetcher.SetResource(fixtureSource, "")
	w = do(t, router, http.MethodPost, "/charts/reload", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// previous session still serves frames
	w = do(t, router, http.MethodGet, "/charts/frame", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func newStreamServer(t *testing.T, bus *events.Bus) (*httptest.Server, *viewport.Hub) {
	t.Helper()
	service, _ := newTestService(t, true)
	hub := viewport.NewHub(viewport.Throttle{}, zerolog.Nop())

	var manager *events.Manager
	if bus != nil {
		manager = events.NewManager(bus, zerolog.Nop())
	}

	srv := httptest.NewServer(NewStreamHandler(service, hub, manager, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStream_JSON(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	connected := make(chan *events.Event, 1)
	bus.Subscribe(events.ViewerConnected, func(e *events.Event) { connected <- e })

	srv, _ := newStreamServer(t, bus)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var hello ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &hello))
	assert.Equal(t, MessageHello, hello.Type)
	assert.NotEmpty(t, hello.ViewerID)

	select {
	case e := <-connected:
		assert.Equal(t, hello.ViewerID, e.Data["viewer_id"])
	case <-ctx.Done():
		t.Fatal("no ViewerConnected event")
	}

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: MessageResize, Width: 960, Height: 500}))

	var frame ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	assert.Equal(t, MessageFrame, frame.Type)
	assert.Equal(t, 960, frame.Width)
	assert.Equal(t, 500, frame.Height)
	assert.Contains(t, frame.SVG, "<svg")

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: MessageResize, Width: 0, Height: 0}))
	var failed ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &failed))
	assert.Equal(t, MessageError, failed.Type)
	assert.Empty(t, failed.SVG)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "zoom"}))
	var unknown ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &unknown))
	assert.Equal(t, MessageError, unknown.Type)
}

func TestStream_Msgpack(t *testing.T) {
	srv, _ := newStreamServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), &websocket.DialOptions{
		Subprotocols: []string{SubprotocolMsgpack},
	})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")
	require.Equal(t, SubprotocolMsgpack, conn.Subprotocol())

	read := func() ServerMessage {
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, websocket.MessageBinary, typ)
		var msg ServerMessage
		require.NoError(t, msgpack.Unmarshal(data, &msg))
		return msg
	}

	assert.Equal(t, MessageHello, read().Type)

	payload, err := msgpack.Marshal(ClientMessage{Type: MessageResize, Width: 800, Height: 400})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, payload))

	frame := read()
	assert.Equal(t, MessageFrame, frame.Type)
	assert.Contains(t, frame.SVG, "<svg")
}

func TestStream_DisconnectEndsSubscription(t *testing.T) {
	srv, hub := newStreamServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)

	var hello ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &hello))
	assert.Equal(t, 1, hub.Count())

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
