package live

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/labstack/echo/v4"
)

// SSESink writes events in the text/event-stream format. The response is
// committed on the first event, so a stream that fails before opening can
// still answer with a regular error response.
type SSESink struct {
	res     *echo.Response
	started bool
}

func NewSSESink(c echo.Context) *SSESink {
	return &SSESink{res: c.Response()}
}

// Started reports whether any bytes were sent.
func (s *SSESink) Started() bool { return s.started }

func (s *SSESink) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.res.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.res.WriteHeader(http.StatusOK)
}

func (s *SSESink) event(name string, id uint, data interface{}) error {
	s.start()
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if id > 0 {
		if _, err := fmt.Fprintf(s.res, "id: %d\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.res, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}

func (s *SSESink) Open(roomID, watermark uint) error {
	return s.event(EventOpen, 0, OpenPayload{RoomID: roomID, AfterID: watermark})
}

func (s *SSESink) Message(msg chat.MessageView) error {
	return s.event(EventMessage, msg.ID, msg)
}

func (s *SSESink) Error(message string) error {
	return s.event(EventError, 0, ErrorPayload{Message: message})
}

func (s *SSESink) Closed(reason string) error {
	return s.event(EventClosed, 0, ErrorPayload{Message: reason})
}

func (s *SSESink) Heartbeat() error {
	s.start()
	if _, err := fmt.Fprint(s.res, ": ping\n\n"); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}
