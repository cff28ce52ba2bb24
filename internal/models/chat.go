package models

import (
	"fmt"
	"time"
)

const (
	// MaxGroupMembers caps the size of a group chat.
	MaxGroupMembers = 100
	// MinGroupMembers is the floor enforced when members are removed or leave.
	MinGroupMembers = 3
)

// Chat is either a one-to-one conversation or a group.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	IsGroup   bool      `db:"is_group" json:"is_group"`
	Name      string    `db:"name" json:"name"`
	AvatarID  string    `db:"avatar_id" json:"-"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatorID int       `db:"creator_id" json:"creator_id,omitempty"`
	Members   []int     `db:"-" json:"members"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasMember reports whether userID belongs to the chat.
func (c Chat) HasMember(userID int) bool {
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// IsCreator reports whether userID created (or inherited) the group.
func (c Chat) IsCreator(userID int) bool {
	return c.IsGroup && c.CreatorID == userID
}

// Clone returns a copy that does not share the member slice.
func (c Chat) Clone() Chat {
	out := c
	out.Members = append([]int(nil), c.Members...)
	return out
}

// OtherMember returns the first member that is not userID.
func (c Chat) OtherMember(userID int) (int, bool) {
	for _, id := range c.Members {
		if id != userID {
			return id, true
		}
	}
	return 0, false
}

// PairKey is the order-independent key of a one-to-one chat.
func PairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ChatSummary is the per-user view of a chat used by chat lists and refetch events.
type ChatSummary struct {
	ID        int    `json:"id"`
	IsGroup   bool   `json:"is_group"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Members   []int  `json:"members"`
}
