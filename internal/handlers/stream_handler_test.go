package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/live"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type sseEvent struct {
	name string
	data string
}

// nextEvent reads lines until a complete named event, skipping comments.
func nextEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStreamUnknownRoom(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/rooms/42/stream", &alice, nil)
	requireError(t, rec, http.StatusNotFound, chat.KindNotFound)
}

func TestStreamDeliversNewMessages(t *testing.T) {
	s := newTestServer(t)
	room := s.createRoom(t, "general")
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/rooms/%d/stream?token=%s", srv.URL, room, token(t, bob)), nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	r := bufio.NewReader(res.Body)
	open := nextEvent(t, r)
	require.Equal(t, live.EventOpen, open.name)

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%d/messages", room), &alice, models.PostMessageRequest{Body: "live!"})
	require.Equal(t, http.StatusCreated, rec.Code)

	ev := nextEvent(t, r)
	require.Equal(t, live.EventMessage, ev.name)
	var msg chat.MessageView
	require.NoError(t, json.Unmarshal([]byte(ev.data), &msg))
	assert.Equal(t, "live!", msg.Body)
	assert.Equal(t, alice.Email, msg.UserEmail)
}

func TestWebSocketDeliversNewMessages(t *testing.T) {
	s := newTestServer(t)
	room := s.createRoom(t, "general")
	first := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%d/messages", room), &alice, models.PostMessageRequest{Body: "before"})
	require.Equal(t, http.StatusCreated, first.Code)
	var before chat.MessageView
	data(t, first, &before)

	srv := httptest.NewServer(s.e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := fmt.Sprintf("ws%s/api/v1/rooms/%d/ws?after_id=%d&token=%s",
		strings.TrimPrefix(srv.URL, "http"), room, before.ID-1, token(t, bob))
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var frame struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	require.Equal(t, live.EventOpen, frame.Type)

	// after_id replays the backlog before anything new.
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	require.Equal(t, live.EventMessage, frame.Type)
	var msg chat.MessageView
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.Equal(t, "before", msg.Body)

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%d/messages", room), &alice, models.PostMessageRequest{Body: "after"})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	require.Equal(t, live.EventMessage, frame.Type)
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.Equal(t, "after", msg.Body)
}

func TestWebSocketUnknownRoom(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := fmt.Sprintf("ws%s/api/v1/rooms/42/ws?token=%s", strings.TrimPrefix(srv.URL, "http"), token(t, bob))
	_, res, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
