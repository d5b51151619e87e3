package models

import "time"

// ReadMarker is the last time a user viewed a room. One row per pair.
type ReadMarker struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserEmail  string    `json:"user_email" gorm:"size:190;uniqueIndex:idx_marker_user_room;not null"`
	RoomID     uint      `json:"room_id" gorm:"uniqueIndex:idx_marker_user_room;not null"`
	LastReadAt time.Time `json:"last_read_at"`
}
