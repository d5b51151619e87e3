package models

import "time"

// Reaction records that a user reacted to a message with an emoji. The
// (message, user, emoji) triple is unique.
type Reaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MessageID uint      `json:"message_id" gorm:"index;uniqueIndex:idx_reaction_triple;not null"`
	UserEmail string    `json:"user_email" gorm:"size:190;uniqueIndex:idx_reaction_triple;not null"`
	Emoji     string    `json:"emoji" gorm:"size:16;uniqueIndex:idx_reaction_triple;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleReactionRequest defines the request body for toggling a reaction
type ToggleReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,chat_emoji"`
}
