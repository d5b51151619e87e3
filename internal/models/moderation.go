package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ModerationMessageDeleted = "message_deleted"

// ModerationEvent is an audit record of a moderation action (MongoDB)
type ModerationEvent struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Action      string             `json:"action" bson:"action"`
	RoomID      uint               `json:"room_id" bson:"room_id"`
	MessageID   uint               `json:"message_id" bson:"message_id"`
	ActorEmail  string             `json:"actor_email" bson:"actor_email"`
	AuthorEmail string             `json:"author_email" bson:"author_email"`
	Body        string             `json:"body" bson:"body"`
	Attachments int                `json:"attachments" bson:"attachments"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
