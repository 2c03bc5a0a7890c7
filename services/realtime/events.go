package realtime

import "encoding/json"

// Inbound events.
const (
	EventRegisterUser = "register_user"
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
	EventSendMessage  = "send_message"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
	EventMarkRead     = "mark_read"
)

// Outbound events not owned by the chat package.
const (
	EventUserOnline  = "user_online"
	EventUserOffline = "user_offline"
	EventUserTyping  = "user_typing"
	EventError       = "error"
)

var inboundEvents = map[string]bool{
	EventRegisterUser: true,
	EventJoinRoom:     true,
	EventLeaveRoom:    true,
	EventSendMessage:  true,
	EventTypingStart:  true,
	EventTypingStop:   true,
	EventMarkRead:     true,
}

// Envelope is the frame exchanged in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type (
	UserStatus struct {
		UserID int64 `json:"userId"`
	}

	UserTyping struct {
		ConversationID string `json:"conversationId"`
		UserID         int64  `json:"userId"`
		IsTyping       bool   `json:"isTyping"`
	}

	ErrorPayload struct {
		Event   string `json:"event"`
		Message string `json:"message"`
	}

	roomPayload struct {
		ConversationID string `json:"conversationId"`
	}
)
