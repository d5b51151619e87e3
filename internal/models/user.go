package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is the platform profile row. Chat only reads it: display fields are
// joined onto messages at read time and DM lookups resolve the other side.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:120"`
	Email       string    `json:"email" gorm:"size:190;uniqueIndex"` // Ensure email is unique across all users
	AvatarURL   string    `json:"avatar_url"`
	Role        string    `json:"role" gorm:"size:20;default:'member'"`
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"size:128;uniqueIndex"` // Link to Firebase User UID
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public projection of a user embedded in responses.
type UserCompact struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}

// Identity is the authenticated caller as handed over by the session layer.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsModerator reports whether the caller may moderate other users' content.
func (i Identity) IsModerator() bool {
	return i.Role == RoleModerator || i.Role == RoleAdmin
}

// IdentityFromUser builds the caller identity for a stored profile.
func IdentityFromUser(u *User) Identity {
	return Identity{Email: u.Email, Name: u.Name, Role: u.Role}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
