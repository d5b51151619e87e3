package models

import "time"

// Conversation is a private thread between exactly two users. PairKey is
// the order-independent key of the pair and is unique, so the store refuses
// a second conversation for the same two people.
type Conversation struct {
	ID           string        `json:"id" gorm:"primaryKey;size:36"`
	PairKey      string        `json:"-" gorm:"size:400;uniqueIndex;not null"`
	CreatedAt    time.Time     `json:"created_at"`
	Participants []Participant `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type Participant struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"size:36;index;uniqueIndex:idx_participant;not null"`
	UserEmail      string    `json:"user_email" gorm:"size:190;index;uniqueIndex:idx_participant;not null"`
	CreatedAt      time.Time `json:"created_at"`
}

type DirectMessage struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"size:36;index;not null"`
	SenderEmail    string    `json:"sender_email" gorm:"size:190;not null"`
	SenderName     string    `json:"sender_name" gorm:"size:120"`
	Body           string    `json:"body" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

// OpenConversationRequest defines the request body for looking up or
// creating a conversation
type OpenConversationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SendDirectMessageRequest defines the request body for a direct message
type SendDirectMessageRequest struct {
	Body string `json:"body" validate:"required"`
}
