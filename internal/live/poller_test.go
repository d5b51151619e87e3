package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 5 * time.Millisecond

var (
	viewer = models.Identity{Email: "viewer@example.com", Name: "Viewer"}
	author = models.Identity{Email: "author@example.com", Name: "Author"}
	admin  = models.Identity{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
)

type recordingSink struct {
	mu        sync.Mutex
	opened    bool
	watermark uint
	messages  []chat.MessageView
	errors    []string
	closed    string
}

func (s *recordingSink) Open(roomID, watermark uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = true
	s.watermark = watermark
	return nil
}

func (s *recordingSink) Message(msg chat.MessageView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSink) Error(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, message)
	return nil
}

func (s *recordingSink) Closed(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = reason
	return nil
}

func (s *recordingSink) Heartbeat() error { return nil }

func (s *recordingSink) ids() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, len(s.messages))
	for i, m := range s.messages {
		ids[i] = m.ID
	}
	return ids
}

func (s *recordingSink) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// countingSource counts store-bound calls made through it.
type countingSource struct {
	Source
	calls atomic.Int64
}

func (c *countingSource) MessagesSince(ctx context.Context, id models.Identity, roomID, afterID uint, limit int) ([]chat.MessageView, error) {
	c.calls.Add(1)
	return c.Source.MessagesSince(ctx, id, roomID, afterID, limit)
}

func newService(t *testing.T) (*chat.Service, uint) {
	t.Helper()
	store := memstore.New()
	svc := chat.NewService(chat.Stores{
		Rooms:          store.Rooms(),
		Messages:       store.Messages(),
		Reactions:      store.Reactions(),
		ReadMarkers:    store.ReadMarkers(),
		Notifications:  store.Notifications(),
		Users:          store.Users(),
		Conversations:  store.Conversations(),
		DirectMessages: store.DirectMessages(),
	})
	room, err := svc.CreateRoom(context.Background(), admin, "general", "")
	require.NoError(t, err)
	return svc, room.ID
}

func post(t *testing.T, svc *chat.Service, roomID uint, body string) uint {
	t.Helper()
	m, err := svc.PostMessage(context.Background(), author, roomID, body, nil)
	require.NoError(t, err)
	return m.ID
}

func start(p *Poller, roomID uint, afterID *uint, sink Sink) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, viewer, roomID, afterID, sink) }()
	return cancel, done
}

func TestRunDeliversNewMessagesInOrder(t *testing.T) {
	svc, room := newService(t)
	old := post(t, svc, room, "before the stream")

	sink := &recordingSink{}
	cancel, done := start(NewPoller(svc, tick), room, nil, sink)
	defer cancel()
	require.Eventually(t, sink.isOpen, time.Second, time.Millisecond)
	assert.Equal(t, old, sink.watermark)

	var want []uint
	for _, body := range []string{"one", "two", "three", "four"} {
		want = append(want, post(t, svc, room, body))
		time.Sleep(tick / 2)
	}

	require.Eventually(t, func() bool { return len(sink.ids()) == len(want) }, time.Second, tick)
	time.Sleep(5 * tick)
	assert.Equal(t, want, sink.ids(), "each id once, ascending, nothing from before the stream")

	cancel()
	require.NoError(t, <-done)
}

func TestRunResumesAfterClientCursor(t *testing.T) {
	svc, room := newService(t)
	first := post(t, svc, room, "a")
	second := post(t, svc, room, "b")
	third := post(t, svc, room, "c")

	sink := &recordingSink{}
	cancel, done := start(NewPoller(svc, tick), room, &first, sink)
	require.Eventually(t, func() bool { return len(sink.ids()) == 2 }, time.Second, tick)
	assert.Equal(t, []uint{second, third}, sink.ids())
	assert.Equal(t, first, sink.watermark)

	cancel()
	require.NoError(t, <-done)
}

func TestCancelStopsStoreQueries(t *testing.T) {
	svc, room := newService(t)
	src := &countingSource{Source: svc}

	sink := &recordingSink{}
	cancel, done := start(NewPoller(src, tick), room, nil, sink)
	require.Eventually(t, func() bool { return src.calls.Load() >= 3 }, time.Second, tick)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	after := src.calls.Load()
	time.Sleep(20 * tick)
	assert.Equal(t, after, src.calls.Load(), "no queries after disconnect")
}

// flakySource fails the first poll and returns an overlapping batch after.
type flakySource struct {
	polls atomic.Int64
}

func (f *flakySource) LatestMessageID(ctx context.Context, id models.Identity, roomID uint) (uint, error) {
	return 10, nil
}

func (f *flakySource) MessagesSince(ctx context.Context, id models.Identity, roomID, afterID uint, limit int) ([]chat.MessageView, error) {
	switch f.polls.Add(1) {
	case 1:
		return nil, errors.New("store timeout")
	case 2:
		return []chat.MessageView{{ID: 9}, {ID: 11}, {ID: 12}}, nil
	default:
		return []chat.MessageView{{ID: 12}, {ID: 13}}, nil
	}
}

func TestPollErrorIsNonFatal(t *testing.T) {
	sink := &recordingSink{}
	cancel, done := start(NewPoller(&flakySource{}, tick), 1, nil, sink)

	require.Eventually(t, func() bool { return len(sink.ids()) == 3 }, time.Second, tick)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []uint{11, 12, 13}, sink.ids())
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.errors, 1)
	assert.Empty(t, sink.closed)
}

func TestDeactivatedRoomClosesStream(t *testing.T) {
	svc, room := newService(t)
	sink := &recordingSink{}
	_, done := start(NewPoller(svc, tick), room, nil, sink)
	require.Eventually(t, sink.isOpen, time.Second, time.Millisecond)

	require.NoError(t, svc.DeactivateRoom(context.Background(), admin, room))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream stayed open for an inactive room")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.NotEmpty(t, sink.closed)
}

func TestMissingRoomFailsBeforeOpen(t *testing.T) {
	svc, _ := newService(t)
	sink := &recordingSink{}

	err := NewPoller(svc, tick).Run(context.Background(), viewer, 404, nil, sink)
	require.Error(t, err)
	assert.Equal(t, chat.KindNotFound, chat.KindOf(err))
	assert.False(t, sink.isOpen())
}

type heartbeatSink struct {
	recordingSink
	beats atomic.Int64
}

func (h *heartbeatSink) Heartbeat() error {
	h.beats.Add(1)
	return nil
}

func TestHeartbeatOnIdleStream(t *testing.T) {
	svc, room := newService(t)
	sink := &heartbeatSink{}
	cancel, done := start(NewPoller(svc, time.Hour, WithHeartbeat(tick)), room, nil, sink)

	require.Eventually(t, func() bool { return sink.beats.Load() >= 2 }, time.Second, tick)
	cancel()
	require.NoError(t, <-done)
}
