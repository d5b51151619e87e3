package models

import "time"

// Room is a named public channel. Deactivated rooms drop out of the
// directory but their messages stay addressable.
type Room struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Topic     string    `json:"topic,omitempty" gorm:"size:500"`
	Active    bool      `json:"active" gorm:"default:true;index"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRoomRequest defines the request body for creating a room
type CreateRoomRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Topic string `json:"topic" validate:"max=500"`
}
