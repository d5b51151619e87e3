package live

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeTimeout = 10 * time.Second
	pingTimeout  = 5 * time.Second
)

// WSSink writes JSON frames to a WebSocket connection.
type WSSink struct {
	ctx  context.Context
	conn *websocket.Conn
}

func NewWSSink(ctx context.Context, conn *websocket.Conn) *WSSink {
	return &WSSink{ctx: ctx, conn: conn}
}

func (s *WSSink) write(frame Frame) error {
	ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, s.conn, frame)
}

func (s *WSSink) Open(roomID, watermark uint) error {
	return s.write(Frame{Type: EventOpen, Data: OpenPayload{RoomID: roomID, AfterID: watermark}})
}

func (s *WSSink) Message(msg chat.MessageView) error {
	return s.write(Frame{Type: EventMessage, Data: msg})
}

func (s *WSSink) Error(message string) error {
	return s.write(Frame{Type: EventError, Data: ErrorPayload{Message: message}})
}

func (s *WSSink) Closed(reason string) error {
	_ = s.write(Frame{Type: EventClosed, Data: ErrorPayload{Message: reason}})
	return s.conn.Close(websocket.StatusGoingAway, reason)
}

func (s *WSSink) Heartbeat() error {
	ctx, cancel := context.WithTimeout(s.ctx, pingTimeout)
	defer cancel()
	return s.conn.Ping(ctx)
}
