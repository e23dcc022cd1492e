package models

import "time"

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email,omitempty"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	PasswordHash string     `json:"-"`
	Credits      int64      `json:"credits"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ProfileUpdate carries the optional fields of a profile change. Nil means unchanged.
type ProfileUpdate struct {
	Username  *string
	Phone     *string
	Email     *string
	AvatarURL *string
}
