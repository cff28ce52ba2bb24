package models

import "time"

// User is the profile record owned by the auth collaborator.
type User struct {
	ID          int       `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Email       string    `db:"email" json:"email"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserSummary carries the display fields inlined into events.
type UserSummary struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}
