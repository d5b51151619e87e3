// Package memstore is an in-process implementation of the repository
// interfaces. It backs DB_DRIVER=memory for local runs and serves as the
// store in tests. All state lives behind one mutex, so every call is atomic.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
)

type Store struct {
	mu    sync.Mutex
	clock func() time.Time
	fail  map[string]error

	rooms         map[uint]models.Room
	messages      map[uint]models.Message // without children
	attachments   map[uint]models.Attachment
	reactions     map[uint]models.Reaction
	markers       map[uint]models.ReadMarker
	notifications map[uint]models.Notification
	conversations map[string]models.Conversation
	participants  map[uint]models.Participant
	dms           map[uint]models.DirectMessage
	users         map[uint]models.User

	seq map[string]uint
}

func New() *Store {
	return &Store{
		clock:         time.Now,
		fail:          map[string]error{},
		rooms:         map[uint]models.Room{},
		messages:      map[uint]models.Message{},
		attachments:   map[uint]models.Attachment{},
		reactions:     map[uint]models.Reaction{},
		markers:       map[uint]models.ReadMarker{},
		notifications: map[uint]models.Notification{},
		conversations: map[string]models.Conversation{},
		participants:  map[uint]models.Participant{},
		dms:           map[uint]models.DirectMessage{},
		users:         map[uint]models.User{},
		seq:           map[string]uint{},
	}
}

// SetClock replaces the timestamp source used for created_at columns.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// FailNext makes the next call of op return err. Op names are
// "<table>.<method>", e.g. "attachments.create".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

// AddUser seeds a profile row.
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.next("users")
	}
	if u.Role == "" {
		u.Role = models.RoleMember
	}
	u.CreatedAt = s.clock()
	s.users[u.ID] = u
	return u
}

// Counts reports row counts per table, for assertions.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]int{
		"rooms":         len(s.rooms),
		"messages":      len(s.messages),
		"attachments":   len(s.attachments),
		"reactions":     len(s.reactions),
		"markers":       len(s.markers),
		"notifications": len(s.notifications),
		"conversations": len(s.conversations),
		"participants":  len(s.participants),
		"dms":           len(s.dms),
	}
}

func (s *Store) Rooms() repositories.RoomRepository                 { return roomRepo{s} }
func (s *Store) Messages() repositories.MessageRepository           { return messageRepo{s} }
func (s *Store) Reactions() repositories.ReactionRepository         { return reactionRepo{s} }
func (s *Store) ReadMarkers() repositories.ReadMarkerRepository     { return markerRepo{s} }
func (s *Store) Notifications() repositories.NotificationRepository { return notificationRepo{s} }
func (s *Store) Conversations() repositories.ConversationRepository { return conversationRepo{s} }
func (s *Store) DirectMessages() repositories.DirectMessageRepository {
	return directMessageRepo{s}
}
func (s *Store) Users() repositories.UserRepository { return userRepo{s} }

func (s *Store) next(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

// injected pops a pending failure for op. Caller holds s.mu.
func (s *Store) injected(op string) error {
	if err, ok := s.fail[op]; ok {
		delete(s.fail, op)
		return err
	}
	return nil
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
