package chat

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
)

// Events emitted to clients.
const (
	EventReceiveMessage      = "receive_message"
	EventChatListUpdate      = "chat_list_update"
	EventMessagesRead        = "messages_read"
	EventNewConversation     = "new_conversation"
	EventNewGroup            = "new_group"
	EventConversationDeleted = "conversation_deleted"
)

// Room returns the name of the room a conversation's events are published to.
func Room(conversationID string) string {
	return "conversation_" + conversationID
}

type Conversation struct {
	ID           string        `json:"id" db:"id"`
	IsGroup      bool          `json:"isGroup" db:"is_group"`
	Name         null.String   `json:"name" db:"name"`
	Description  null.String   `json:"description" db:"description"`
	Image        null.String   `json:"image" db:"image"`
	CreatedByID  null.Int64    `json:"createdById" db:"created_by_id"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
	Participants []Participant `json:"participants" db:"-"`
}

func (c Conversation) HasParticipant(mumiID int64) bool {
	_, ok := c.Participant(mumiID)
	return ok
}

func (c Conversation) Participant(mumiID int64) (Participant, bool) {
	for _, p := range c.Participants {
		if p.MumiID == mumiID {
			return p, true
		}
	}
	return Participant{}, false
}

func (c Conversation) ParticipantIDs() []int64 {
	ids := make([]int64, len(c.Participants))
	for i, p := range c.Participants {
		ids[i] = p.MumiID
	}
	return ids
}

type Participant struct {
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	MumiID         int64     `json:"mumiId" db:"mumi_id"`
	Nama           string    `json:"nama" db:"nama"`
	JoinedAt       time.Time `json:"joinedAt" db:"joined_at"`
}

type Sender struct {
	ID   int64  `json:"id"`
	Nama string `json:"nama"`
}

type Attachment struct {
	ID        string `json:"id" db:"id"`
	MessageID string `json:"messageId" db:"message_id"`
	FileURL   string `json:"fileUrl" db:"file_url"`
	FileName  string `json:"fileName" db:"file_name"`
	FileType  string `json:"fileType" db:"file_type"`
	FileSize  int64  `json:"fileSize" db:"file_size"`
}

type Read struct {
	MessageID string    `json:"-" db:"message_id"`
	MumiID    int64     `json:"mumiId" db:"mumi_id"`
	ReadAt    time.Time `json:"readAt" db:"read_at"`
}

type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	SenderID       int64        `json:"senderId"`
	Sender         Sender       `json:"sender"`
	Content        null.String  `json:"content"`
	Attachments    []Attachment `json:"attachments"`
	Reads          []Read       `json:"reads"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// ChatListItem is a conversation as shown in a member's chat list.
type ChatListItem struct {
	Conversation
	Peer         *Participant `json:"peer"`
	LastMessage  *Message     `json:"lastMessage"`
	UnreadCount  int          `json:"unreadCount"`
	LastActivity time.Time    `json:"lastActivity"`
}

type NewAttachment struct {
	FileURL  string `json:"fileUrl" validate:"required,url"`
	FileName string `json:"fileName" validate:"required"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize" validate:"min=0"`
}

type NewMessage struct {
	ConversationID string          `json:"conversationId" validate:"required"`
	Content        string          `json:"content"`
	Attachments    []NewAttachment `json:"attachments" validate:"omitempty,dive"`
}

func (nm *NewMessage) Clean() {
	nm.ConversationID = core.CleanString(nm.ConversationID)
	nm.Content = core.CleanString(nm.Content)
}

type NewGroup struct {
	Name        string  `json:"name" validate:"required,notblank"`
	Description string  `json:"description"`
	Image       string  `json:"image" validate:"omitempty,url"`
	MemberIDs   []int64 `json:"memberIds"`
}

// UpdateGroup changes the set fields only.
type UpdateGroup struct {
	Name        *string `json:"name" validate:"omitempty,notblank"`
	Description *string `json:"description"`
	Image       *string `json:"image" validate:"omitempty,url"`
}

// Event payloads

type ChatListUpdate struct {
	ConversationID string    `json:"conversationId"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type MessagesRead struct {
	ConversationID string    `json:"conversationId"`
	UserID         int64     `json:"userId"`
	ReadAt         time.Time `json:"readAt"`
}

type ConversationDeleted struct {
	ConversationID string `json:"conversationId"`
}
