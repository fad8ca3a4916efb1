package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratechart/internal/events"
	"github.com/aristath/ratechart/internal/utils"
)

// EventsStreamHandler streams bus events to the browser as Server-Sent Events.
type EventsStreamHandler struct {
	eventBus      *events.Bus
	logDir        string
	heartbeat     time.Duration
	watchInterval time.Duration
	log           zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(eventBus *events.Bus, logDir string, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus:      eventBus,
		logDir:        logDir,
		heartbeat:     30 * time.Second,
		watchInterval: 2 * time.Second,
		log:           log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream requests (SSE).
// ?types=A,B limits the stream to those event types; ?log_file=name adds
// LOG_FILE_CHANGED events for a file in the log directory.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	types := events.AllTypes
	if filter := utils.ParseCSV(r.URL.Query().Get("types")); filter != nil {
		types = make([]events.EventType, 0, len(filter))
		for _, t := range filter {
			types = append(types, events.EventType(strings.ToUpper(t)))
		}
	}
	logFile := r.URL.Query().Get("log_file")

	h.log.Info().
		Int("types", len(types)).
		Str("log_file", logFile).
		Msg("Client connected to event stream")

	eventChan := make(chan *events.Event, 100)
	push := func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	unsubscribe := h.eventBus.SubscribeTypes(types, push)
	defer unsubscribe()

	if logFile != "" {
		stop, err := h.watchLogFile(logFile, push)
		if err != nil {
			h.log.Warn().Err(err).Str("log_file", logFile).Msg("Not watching log file")
		} else {
			defer stop()
		}
	}

	h.write(w, flusher, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event stream",
	})

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Info().Msg("Client disconnected from event stream")
			return

		case event := <-eventChan:
			h.write(w, flusher, map[string]interface{}{
				"type":      string(event.Type),
				"module":    event.Module,
				"timestamp": event.Timestamp.Format(time.RFC3339),
				"data":      event.Data,
			})

		case <-heartbeat.C:
			h.write(w, flusher, map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			})
		}
	}
}

func (h *EventsStreamHandler) write(w http.ResponseWriter, flusher http.Flusher, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal event")
		data = []byte(`{"error":"failed to encode event"}`)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// watchLogFile polls a log file and pushes an event whenever it changes.
// The returned func stops the watcher.
func (h *EventsStreamHandler) watchLogFile(logFile string, push func(*events.Event)) (func(), error) {
	if strings.Contains(logFile, "..") || strings.ContainsAny(logFile, `/\`) {
		return nil, fmt.Errorf("invalid log file name %q", logFile)
	}

	path := filepath.Join(h.logDir, logFile)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	lastMod, lastSize := info.ModTime(), info.Size()
	ticker := time.NewTicker(h.watchInterval)
	stop := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if !info.ModTime().After(lastMod) && info.Size() == lastSize {
					continue
				}
				lastMod, lastSize = info.ModTime(), info.Size()
				push(&events.Event{
					Type:      events.LogFileChanged,
					Module:    "log_watcher",
					Timestamp: time.Now(),
					Data:      map[string]interface{}{"log_file": logFile},
				})
			}
		}
	}()

	return func() { close(stop) }, nil
}
