package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories/memstore"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *Service
	store *memstore.Store
	audit *memstore.ModerationLog
	clock *fakeClock
	ctx   context.Context
}

var (
	alice = models.Identity{Email: "alice@example.com", Name: "Alice", Role: models.RoleMember}
	bob   = models.Identity{Email: "bob@example.com", Name: "Bob", Role: models.RoleMember}
	carol = models.Identity{Email: "carol@example.com", Name: "Carol", Role: models.RoleMember}
	mod   = models.Identity{Email: "mod@example.com", Name: "Mod", Role: models.RoleModerator}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := memstore.New()
	store.SetClock(clock.Now)
	audit := memstore.NewModerationLog()

	for _, id := range []models.Identity{alice, bob, carol, mod} {
		store.AddUser(models.User{Name: id.Name, Email: id.Email, Role: id.Role, AvatarURL: "https://cdn.example.com/" + id.Name + ".png"})
	}

	svc := NewService(Stores{
		Rooms:          store.Rooms(),
		Messages:       store.Messages(),
		Reactions:      store.Reactions(),
		ReadMarkers:    store.ReadMarkers(),
		Notifications:  store.Notifications(),
		Users:          store.Users(),
		Conversations:  store.Conversations(),
		DirectMessages: store.DirectMessages(),
		Moderation:     audit,
	}, WithClock(clock.Now))

	return &fixture{svc: svc, store: store, audit: audit, clock: clock, ctx: context.Background()}
}

func (f *fixture) room(t *testing.T, name string) uint {
	t.Helper()
	room, err := f.svc.CreateRoom(f.ctx, mod, name, "")
	require.NoError(t, err)
	return room.ID
}

func (f *fixture) post(t *testing.T, who models.Identity, roomID uint, body string) *MessageView {
	t.Helper()
	f.clock.Advance(time.Second)
	msg, err := f.svc.PostMessage(f.ctx, who, roomID, body, nil)
	require.NoError(t, err)
	return msg
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}
