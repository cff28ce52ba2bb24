package events

import (
	"encoding/json"

	"chat-realtime/internal/models"
)

// Event is implemented only by the payload types of this package.
type Event interface {
	Kind() Kind
	event()
}

type StartTyping struct {
	ChatID int                `json:"chat_id"`
	User   models.UserSummary `json:"user"`
}

type StopTyping struct {
	ChatID int                `json:"chat_id"`
	User   models.UserSummary `json:"user"`
}

// OnlineUsers is a full snapshot of the presence set. Receivers replace
// their local view with it.
type OnlineUsers struct {
	Users []int
}

func (o OnlineUsers) MarshalJSON() ([]byte, error) {
	users := o.Users
	if users == nil {
		users = []int{}
	}
	return json.Marshal(users)
}

type NewMessage struct {
	ChatID  int                `json:"chat_id"`
	Message models.MessageView `json:"message"`
}

type NewMessageAlert struct {
	ChatID int `json:"chat_id"`
}

type RefetchChats struct {
	Chat *models.ChatSummary `json:"chat,omitempty"`
}

type Alert struct {
	Message string `json:"message"`
}

type MemberAdded struct {
	ChatID    int   `json:"chat_id"`
	MemberIDs []int `json:"member_ids"`
}

type MemberAddedAlert struct {
	ChatID  int                  `json:"chat_id"`
	Alert   string               `json:"alert"`
	Members []models.UserSummary `json:"members"`
}

type MemberRemoved struct {
	ChatID int `json:"chat_id"`
	UserID int `json:"user_id"`
}

type MemberRemovedAlert struct {
	ChatID int    `json:"chat_id"`
	Alert  string `json:"alert"`
	UserID int    `json:"user_id"`
}

type MemberLeft struct {
	ChatID  int                `json:"chat_id"`
	UserID  int                `json:"user_id"`
	Message models.MessageView `json:"message"`
}

type MessageDeleted struct {
	ChatID  int                `json:"chat_id"`
	Message models.MessageView `json:"message"`
}

type MessageUpdated struct {
	ChatID  int                `json:"chat_id"`
	Message models.MessageView `json:"message"`
}

func (StartTyping) Kind() Kind        { return KindStartTyping }
func (StopTyping) Kind() Kind         { return KindStopTyping }
func (OnlineUsers) Kind() Kind        { return KindOnlineUsers }
func (NewMessage) Kind() Kind         { return KindNewMessage }
func (NewMessageAlert) Kind() Kind    { return KindNewMessageAlert }
func (RefetchChats) Kind() Kind       { return KindRefetchChats }
func (Alert) Kind() Kind              { return KindAlert }
func (MemberAdded) Kind() Kind        { return KindMemberAdded }
func (MemberAddedAlert) Kind() Kind   { return KindMemberAddedAlert }
func (MemberRemoved) Kind() Kind      { return KindMemberRemoved }
func (MemberRemovedAlert) Kind() Kind { return KindMemberRemovedAlert }
func (MemberLeft) Kind() Kind         { return KindMemberLeft }
func (MessageDeleted) Kind() Kind     { return KindMessageDeleted }
func (MessageUpdated) Kind() Kind     { return KindMessageUpdated }

func (StartTyping) event()        {}
func (StopTyping) event()         {}
func (OnlineUsers) event()        {}
func (NewMessage) event()         {}
func (NewMessageAlert) event()    {}
func (RefetchChats) event()       {}
func (Alert) event()              {}
func (MemberAdded) event()        {}
func (MemberAddedAlert) event()   {}
func (MemberRemoved) event()      {}
func (MemberRemovedAlert) event() {}
func (MemberLeft) event()         {}
func (MessageDeleted) event()     {}
func (MessageUpdated) event()     {}
