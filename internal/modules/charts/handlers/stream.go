package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/ratechart/internal/events"
	"github.com/aristath/ratechart/internal/modules/charts"
	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/render"
	"github.com/aristath/ratechart/internal/viewport"
)

// SubprotocolMsgpack switches a stream to binary MessagePack messages
const SubprotocolMsgpack = "msgpack"

// Message types
const (
	MessageHello  = "hello"
	MessageResize = "resize"
	MessageFrame  = "frame"
	MessageError  = "error"
)

const (
	writeTimeout = 10 * time.Second
	readLimit    = 4096
)

// ClientMessage is sent by the viewer whenever its container changes size
type ClientMessage struct {
	Type   string `json:"type" msgpack:"type"`
	Width  int    `json:"width" msgpack:"width"`
	Height int    `json:"height" msgpack:"height"`
}

// ServerMessage is sent to the viewer
type ServerMessage struct {
	Type     string `json:"type" msgpack:"type"`
	ViewerID string `json:"viewer_id,omitempty" msgpack:"viewer_id,omitempty"`
	Width    int    `json:"width,omitempty" msgpack:"width,omitempty"`
	Height   int    `json:"height,omitempty" msgpack:"height,omitempty"`
	SVG      string `json:"svg,omitempty" msgpack:"svg,omitempty"`
	Error    string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// StreamHandler serves the resize stream: every resize the viewer reports
// runs an update cycle and sends the rendered frame back.
type StreamHandler struct {
	service *charts.Service
	hub     *viewport.Hub
	events  *events.Manager
	log     zerolog.Logger
}

// NewStreamHandler creates a stream handler. eventManager may be nil.
func NewStreamHandler(service *charts.Service, hub *viewport.Hub, eventManager *events.Manager, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		service: service,
		hub:     hub,
		events:  eventManager,
		log:     log.With().Str("handler", "chart_stream").Logger(),
	}
}

type streamConn struct {
	conn   *websocket.Conn
	binary bool
}

func (c streamConn) send(ctx context.Context, msg ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if !c.binary {
		return wsjson.Write(ctx, c.conn, msg)
	}
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return c.conn.Write(ctx, websocket.MessageBinary, data)
}

func (c streamConn) decode(typ websocket.MessageType, data []byte) (ClientMessage, error) {
	var msg ClientMessage
	var err error
	if typ == websocket.MessageBinary {
		err = msgpack.Unmarshal(data, &msg)
	} else {
		err = json.Unmarshal(data, &msg)
	}
	return msg, err
}

// ServeHTTP handles GET /api/charts/stream
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{SubprotocolMsgpack},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to accept websocket")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")
	conn.SetReadLimit(readLimit)

	sc := streamConn{conn: conn, binary: conn.Subprotocol() == SubprotocolMsgpack}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.hub.Subscribe(ctx, func(ctx context.Context, size layout.Size) {
		msg := ServerMessage{Type: MessageFrame, Width: size.Width, Height: size.Height}

		frame, err := h.service.Frame(ctx, size, render.FormatSVG)
		if err != nil {
			msg.Type = MessageError
			msg.Error = err.Error()
		} else {
			msg.SVG = string(frame)
		}

		if err := sc.send(ctx, msg); err != nil {
			h.log.Debug().Err(err).Msg("Failed to send frame, closing stream")
			cancel()
		}
	})
	defer sub.Cancel()

	log := h.log.With().Str("viewer_id", sub.ID()).Logger()
	log.Info().Bool("binary", sc.binary).Str("remote", r.RemoteAddr).Msg("Viewer connected")

	if h.events != nil {
		h.events.EmitTyped("viewport", &events.ViewerConnectedData{
			ViewerID: sub.ID(),
			Remote:   r.RemoteAddr,
			Binary:   sc.binary,
		})
	}

	if err := sc.send(ctx, ServerMessage{Type: MessageHello, ViewerID: sub.ID()}); err != nil {
		log.Debug().Err(err).Msg("Failed to greet viewer")
		return
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				log.Info().Msg("Viewer disconnected")
				conn.Close(websocket.StatusNormalClosure, "")
			} else if ctx.Err() != nil {
				log.Debug().Msg("Stream cancelled")
			} else {
				log.Warn().Err(err).Msg("Websocket read failed")
			}
			return
		}

		msg, err := sc.decode(typ, data)
		if err != nil {
			_ = sc.send(ctx, ServerMessage{Type: MessageError, Error: "malformed message"})
			continue
		}

		switch msg.Type {
		case MessageResize:
			if h.events != nil {
				h.events.EmitTyped("viewport", &events.ViewerResizedData{
					ViewerID: sub.ID(),
					Width:    msg.Width,
					Height:   msg.Height,
				})
			}
			sub.Notify(layout.Size{Width: msg.Width, Height: msg.Height})
		default:
			_ = sc.send(ctx, ServerMessage{Type: MessageError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}
