package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fulfillment/internal/adapters/out/eventbus"
	"fulfillment/internal/core/application/realtime"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 4096
)

// Client message actions.
const (
	ActionJoin    = "join"
	ActionLeave   = "leave"
	ActionJoinAll = "joinAll"
)

// ClientMessage is what a WebSocket client sends to manage its groups.
type ClientMessage struct {
	Action     string `json:"action"`
	DeliveryID string `json:"deliveryId,omitempty"`
}

// Ack answers every client message.
type Ack struct {
	Type       string `json:"type"`
	Action     string `json:"action"`
	DeliveryID string `json:"deliveryId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RealtimeEndpoint upgrades GET /ws to a WebSocket attached to the hub.
type RealtimeEndpoint struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewRealtimeEndpoint(hub *realtime.Hub, logger *slog.Logger) *RealtimeEndpoint {
	return &RealtimeEndpoint{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.With("component", "RealtimeEndpoint"),
	}
}

func (e *RealtimeEndpoint) Handle(c echo.Context) error {
	ws, err := e.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered the client
		e.logger.Debug("websocket upgrade failed", "error", err)
		return nil
	}

	sub := &wsSubscriber{conn: ws}
	conn, err := e.hub.Attach(sub)
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(wsWriteWait))
		_ = ws.Close()
		return nil
	}

	stop := make(chan struct{})
	go sub.pingLoop(stop)
	e.readLoop(ws, sub, conn)
	close(stop)
	e.hub.Detach(conn)

	return nil
}

func (e *RealtimeEndpoint) readLoop(ws *websocket.Conn, sub *wsSubscriber, conn *realtime.Connection) {
	ws.SetReadLimit(wsMaxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg ClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				e.logger.Debug("websocket closed", "error", err)
			}
			return
		}

		ack := Ack{Type: "ack", Action: msg.Action, DeliveryID: msg.DeliveryID}
		if err := e.apply(conn, msg); err != nil {
			ack.Error = err.Error()
		}
		if err := sub.writeJSON(ack); err != nil {
			return
		}
	}
}

var errUnknownAction = errors.New("unknown action")

func (e *RealtimeEndpoint) apply(conn *realtime.Connection, msg ClientMessage) error {
	switch msg.Action {
	case ActionJoinAll:
		return e.hub.JoinAll(conn)
	case ActionJoin, ActionLeave:
		id, err := kernel.UUIDFromString(msg.DeliveryID)
		if err != nil {
			return err
		}
		if msg.Action == ActionJoin {
			return e.hub.Join(conn, id)
		}
		return e.hub.Leave(conn, id)
	default:
		return errUnknownAction
	}
}

// wsSubscriber writes hub messages to one WebSocket. gorilla allows a single
// concurrent writer, so every write goes through mu.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSubscriber) Send(ctx context.Context, msg realtime.Message) error {
	payload, err := json.Marshal(eventbus.NewEventMessage(msg.Event))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(wsWriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err = s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSubscriber) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (s *wsSubscriber) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// Close drops the underlying connection, which also ends the read loop.
func (s *wsSubscriber) Close() error {
	return s.conn.Close()
}
