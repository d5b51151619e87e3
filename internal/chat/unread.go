package chat

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/models"
)

// MarkRoomRead records now as the caller's last-read time for the room.
func (s *Service) MarkRoomRead(ctx context.Context, id models.Identity, roomID uint) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return err
	}
	if err := s.markers.Upsert(ctx, id.Email, roomID, s.now()); err != nil {
		return internal(err, "mark room read")
	}
	return nil
}

// UnreadCountsByRoom maps every active room to the number of chat_mention
// notifications for the caller newer than the caller's read marker there.
func (s *Service) UnreadCountsByRoom(ctx context.Context, id models.Identity) (map[uint]int, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	roomIDs, err := s.rooms.ActiveIDs(ctx)
	if err != nil {
		return nil, internal(err, "list active rooms")
	}
	markers, err := s.markers.ListForUser(ctx, id.Email)
	if err != nil {
		return nil, internal(err, "list read markers")
	}
	mentions, err := s.notifications.ListByType(ctx, id.Email, models.NotificationChatMention)
	if err != nil {
		return nil, internal(err, "list mentions")
	}

	lastRead := make(map[uint]time.Time, len(markers))
	for _, m := range markers {
		lastRead[m.RoomID] = m.LastReadAt
	}
	return CountUnread(roomIDs, lastRead, mentions), nil
}

// CountUnread counts, per room, the notifications created strictly after the
// room's last-read time (all of them when the room has no marker). Every id
// in rooms is present in the result. Notifications that do not resolve to
// one of rooms are ignored.
func CountUnread(rooms []uint, lastRead map[uint]time.Time, notifications []models.Notification) map[uint]int {
	counts := make(map[uint]int, len(rooms))
	for _, id := range rooms {
		counts[id] = 0
	}
	for i := range notifications {
		roomID, ok := NotificationRoom(&notifications[i])
		if !ok {
			continue
		}
		if _, active := counts[roomID]; !active {
			continue
		}
		if marker, ok := lastRead[roomID]; ok && !notifications[i].CreatedAt.After(marker) {
			continue
		}
		counts[roomID]++
	}
	return counts
}

// NotificationRoom resolves the room a notification points at. The typed
// target wins; untyped rows fall back to the "room" query parameter of the
// link.
func NotificationRoom(n *models.Notification) (uint, bool) {
	if t := n.Target(); t.Kind != models.TargetNone {
		return t.RoomID()
	}
	return roomFromLink(n.Link)
}

func roomFromLink(link string) (uint, bool) {
	if link == "" {
		return 0, false
	}
	u, err := url.Parse(link)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(u.Query().Get("room"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
