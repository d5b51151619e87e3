package models

import "time"

// Message is one entry of a room ledger. Username is captured at send time
// so renames never rewrite history.
type Message struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	RoomID      uint         `json:"room_id" gorm:"index;not null"`
	UserEmail   string       `json:"user_email" gorm:"size:190;index;not null"`
	Username    string       `json:"username" gorm:"size:120;not null"`
	Body        string       `json:"body" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at" gorm:"index"`
	Attachments []Attachment `json:"attachments" gorm:"constraint:OnDelete:CASCADE"`
	Reactions   []Reaction   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Attachment points at an uploaded file held by external object storage.
type Attachment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	MessageID uint   `json:"message_id" gorm:"index;not null"`
	FileURL   string `json:"file_url" gorm:"size:1024;not null"`
	Filename  string `json:"filename" gorm:"size:255;not null"`
	MimeType  string `json:"mime_type" gorm:"size:100"`
	Size      *int64 `json:"size,omitempty"`
}

// AttachmentInput is a file reference supplied when posting a message
type AttachmentInput struct {
	FileURL  string `json:"file_url" validate:"required,url,max=1024"`
	Filename string `json:"filename" validate:"required,max=255"`
	MimeType string `json:"mime_type" validate:"required,max=100"`
	Size     *int64 `json:"size,omitempty" validate:"omitempty,min=0"`
}

// PostMessageRequest defines the request body for posting to a room
type PostMessageRequest struct {
	Body  string            `json:"body"`
	Files []AttachmentInput `json:"files" validate:"max=10,dive"`
}
