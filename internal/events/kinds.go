// Package events defines the closed set of real-time events and fans them
// out to the live endpoints of a recipient set.
package events

// Kind names an event on the socket wire.
type Kind string

const (
	// Client → server.
	KindStartTyping Kind = "start-typing"
	KindStopTyping  Kind = "stop-typing"
	KindChatJoined  Kind = "chat-joined"
	KindChatLeaved  Kind = "chat-leaved"

	// Server → members.
	KindOnlineUsers        Kind = "online-users"
	KindNewMessage         Kind = "new-message"
	KindNewMessageAlert    Kind = "new-message-alert"
	KindRefetchChats       Kind = "refetch-chats"
	KindAlert              Kind = "alert"
	KindMemberAdded        Kind = "member-added"
	KindMemberAddedAlert   Kind = "member-added-alert"
	KindMemberRemoved      Kind = "member-removed"
	KindMemberRemovedAlert Kind = "member-removed-alert"
	KindMemberLeft         Kind = "member-left"
	KindMessageDeleted     Kind = "message-deleted"
	KindMessageUpdated     Kind = "message-updated"
)

// Inbound lists the kinds a client may send.
var Inbound = []Kind{KindStartTyping, KindStopTyping, KindChatJoined, KindChatLeaved}
