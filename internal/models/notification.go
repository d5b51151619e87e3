package models

import (
	"strconv"
	"time"
)

const (
	NotificationChatMention = "chat_mention"
	NotificationDM          = "dm"
)

type TargetKind string

const (
	TargetNone         TargetKind = ""
	TargetRoom         TargetKind = "room"
	TargetConversation TargetKind = "conversation"
)

// NotificationTarget names what a notification is about.
type NotificationTarget struct {
	Kind TargetKind
	ID   string
}

func RoomTarget(roomID uint) NotificationTarget {
	return NotificationTarget{Kind: TargetRoom, ID: strconv.FormatUint(uint64(roomID), 10)}
}

func ConversationTarget(conversationID string) NotificationTarget {
	return NotificationTarget{Kind: TargetConversation, ID: conversationID}
}

// RoomID returns the room a target refers to, if it refers to one.
func (t NotificationTarget) RoomID() (uint, bool) {
	if t.Kind != TargetRoom {
		return 0, false
	}
	id, err := strconv.ParseUint(t.ID, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Notification represents a user notification. A nil RecipientEmail is a
// broadcast.
type Notification struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Type           string     `json:"type" gorm:"size:30;index"` // chat_mention, dm, ...
	Title          string     `json:"title" gorm:"size:200"`
	Description    string     `json:"description" gorm:"size:500"`
	Link           string     `json:"link" gorm:"size:500"`
	TargetType     TargetKind `json:"target_type" gorm:"size:20"`
	TargetID       string     `json:"target_id" gorm:"size:64"`
	ActorEmail     string     `json:"actor_email,omitempty" gorm:"size:190"`
	RecipientEmail *string    `json:"recipient_email,omitempty" gorm:"size:190;index"`
	IsRead         bool       `json:"is_read" gorm:"default:false;index"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
}

func (n *Notification) Target() NotificationTarget {
	return NotificationTarget{Kind: n.TargetType, ID: n.TargetID}
}

func (n *Notification) SetTarget(t NotificationTarget) {
	n.TargetType = t.Kind
	n.TargetID = t.ID
}
