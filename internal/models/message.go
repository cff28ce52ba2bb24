package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// MaxAttachments caps the number of files on one message.
const MaxAttachments = 5

// Attachment references an object held by the storage collaborator.
type Attachment struct {
	StorageID     string `json:"storage_id"`
	URL           string `json:"url"`
	FileType      string `json:"file_type"`
	FileTypeLabel string `json:"file_type_label"`
}

// Attachments is stored as a JSONB array.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("attachments: unsupported scan type")
	}
	return json.Unmarshal(raw, a)
}

// StorageIDs lists the storage ids of every attachment.
func (a Attachments) StorageIDs() []string {
	ids := make([]string, 0, len(a))
	for _, att := range a {
		ids = append(ids, att.StorageID)
	}
	return ids
}

// Message is a persisted chat message.
type Message struct {
	ID          int         `db:"id" json:"id"`
	ChatID      int         `db:"chat_id" json:"chat_id"`
	SenderID    int         `db:"sender_id" json:"sender_id"`
	Content     string      `db:"content" json:"content"`
	Attachments Attachments `db:"attachments" json:"attachments"`
	IsDeleted   bool        `db:"is_deleted" json:"is_deleted"`
	IsEdited    bool        `db:"is_edited" json:"is_edited"`
	IsLeft      bool        `db:"is_left" json:"is_left"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// MessageView is a message with the sender's display fields inlined, so
// recipients can render it without another lookup.
type MessageView struct {
	ID          int         `json:"id"`
	ChatID      int         `json:"chat_id"`
	Sender      UserSummary `json:"sender"`
	Content     string      `json:"content"`
	Attachments Attachments `json:"attachments"`
	IsDeleted   bool        `json:"is_deleted"`
	IsEdited    bool        `json:"is_edited"`
	IsLeft      bool        `json:"is_left"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewMessageView builds the projection of msg sent by sender.
func NewMessageView(msg Message, sender UserSummary) MessageView {
	attachments := msg.Attachments
	if attachments == nil {
		attachments = Attachments{}
	}
	return MessageView{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		Sender:      sender,
		Content:     msg.Content,
		Attachments: attachments,
		IsDeleted:   msg.IsDeleted,
		IsEdited:    msg.IsEdited,
		IsLeft:      msg.IsLeft,
		CreatedAt:   msg.CreatedAt,
		UpdatedAt:   msg.UpdatedAt,
	}
}
