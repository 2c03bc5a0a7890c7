package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/chat"
)

type chatRepository struct {
	db *DB
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(db *DB) *chatRepository {
	return &chatRepository{db: db}
}

func (db *DB) withParticipants(c chat.Conversation) chat.Conversation {
	parts := db.participants[c.ID]
	c.Participants = make([]chat.Participant, 0, len(parts))
	for _, p := range parts {
		p.Nama = db.members[p.MumiID].Nama
		c.Participants = append(c.Participants, p)
	}
	sort.Slice(c.Participants, func(i, j int) bool {
		pi, pj := c.Participants[i], c.Participants[j]
		if pi.JoinedAt.Equal(pj.JoinedAt) {
			return pi.MumiID < pj.MumiID
		}
		return pi.JoinedAt.Before(pj.JoinedAt)
	})
	return c
}

func (db *DB) withSender(m chat.Message) chat.Message {
	m.Sender = chat.Sender{ID: m.SenderID, Nama: db.members[m.SenderID].Nama}
	m.Attachments = append([]chat.Attachment{}, m.Attachments...)
	m.Reads = append([]chat.Read{}, m.Reads...)
	return m
}

// removeChatMember drops everything a deleted member had in chats.
func (db *DB) removeChatMember(mumiID int64) {
	for cid, parts := range db.participants {
		delete(parts, mumiID)
		if c := db.conversations[cid]; c.CreatedByID.Valid && c.CreatedByID.Int64 == mumiID {
			c.CreatedByID = null.Int64{}
			db.conversations[cid] = c
		}
	}
	for id, m := range db.messages {
		if m.SenderID == mumiID {
			delete(db.messages, id)
			continue
		}
		reads := m.Reads[:0]
		for _, r := range m.Reads {
			if r.MumiID != mumiID {
				reads = append(reads, r)
			}
		}
		m.Reads = reads
		db.messages[id] = m
	}
}

func (repo *chatRepository) CreateConversation(_ context.Context, c chat.Conversation, participantIDs []int64, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.Participants = nil
	repo.db.conversations[c.ID] = c
	parts := make(map[int64]chat.Participant, len(participantIDs))
	for _, id := range participantIDs {
		parts[id] = chat.Participant{ConversationID: c.ID, MumiID: id, JoinedAt: c.CreatedAt}
	}
	repo.db.participants[c.ID] = parts
	return nil
}

func (repo *chatRepository) GetConversation(_ context.Context, id string, _ ...core.DBExecutor) (chat.Conversation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.conversations[id]; ok {
		return repo.db.withParticipants(c), nil
	}
	return chat.Conversation{}, chat.ErrConversationNotFound
}

func (repo *chatRepository) FindPrivateConversation(_ context.Context, a, b int64, _ ...core.DBExecutor) (chat.Conversation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for id, c := range repo.db.conversations {
		parts := repo.db.participants[id]
		if c.IsGroup || len(parts) != 2 {
			continue
		}
		_, hasA := parts[a]
		_, hasB := parts[b]
		if hasA && hasB {
			return repo.db.withParticipants(c), nil
		}
	}
	return chat.Conversation{}, chat.ErrConversationNotFound
}

func (repo *chatRepository) ConversationsOf(_ context.Context, mumiID int64, _ ...core.DBExecutor) ([]chat.Conversation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	convs := make([]chat.Conversation, 0)
	for id, c := range repo.db.conversations {
		if _, ok := repo.db.participants[id][mumiID]; ok {
			convs = append(convs, repo.db.withParticipants(c))
		}
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].UpdatedAt.After(convs[j].UpdatedAt) })
	return convs, nil
}

func (repo *chatRepository) UpdateConversation(_ context.Context, c chat.Conversation, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.conversations[c.ID]
	if !ok {
		return chat.ErrConversationNotFound
	}
	orig.Name = c.Name
	orig.Description = c.Description
	orig.Image = c.Image
	orig.UpdatedAt = c.UpdatedAt
	repo.db.conversations[c.ID] = orig
	return nil
}

func (repo *chatRepository) TouchConversation(_ context.Context, id string, at time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c, ok := repo.db.conversations[id]
	if !ok {
		return chat.ErrConversationNotFound
	}
	c.UpdatedAt = at
	repo.db.conversations[id] = c
	return nil
}

func (repo *chatRepository) DeleteConversation(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.conversations[id]; !ok {
		return chat.ErrConversationNotFound
	}
	delete(repo.db.conversations, id)
	delete(repo.db.participants, id)
	for mid, m := range repo.db.messages {
		if m.ConversationID == id {
			delete(repo.db.messages, mid)
		}
	}
	return nil
}

func (repo *chatRepository) IsParticipant(_ context.Context, conversationID string, mumiID int64, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.participants[conversationID][mumiID]
	return ok, nil
}

func (repo *chatRepository) AddParticipant(_ context.Context, conversationID string, mumiID int64, at time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	parts, ok := repo.db.participants[conversationID]
	if !ok {
		return chat.ErrConversationNotFound
	}
	if _, ok = parts[mumiID]; ok {
		return chat.ErrAlreadyParticipant
	}
	parts[mumiID] = chat.Participant{ConversationID: conversationID, MumiID: mumiID, JoinedAt: at}
	return nil
}

func (repo *chatRepository) RemoveParticipant(_ context.Context, conversationID string, mumiID int64, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	parts := repo.db.participants[conversationID]
	if _, ok := parts[mumiID]; !ok {
		return chat.ErrParticipantNotFound
	}
	delete(parts, mumiID)
	return nil
}

func (repo *chatRepository) CreateMessage(_ context.Context, m chat.Message, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.conversations[m.ConversationID]; !ok {
		return chat.ErrConversationNotFound
	}
	m.Attachments = append([]chat.Attachment{}, m.Attachments...)
	m.Reads = []chat.Read{}
	repo.db.messages[m.ID] = m
	return nil
}

// conversationMessages returns the messages of a conversation, oldest first.
func (db *DB) conversationMessages(conversationID string) []chat.Message {
	msgs := make([]chat.Message, 0)
	for _, m := range db.messages {
		if m.ConversationID == conversationID {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs
}

func (repo *chatRepository) Messages(_ context.Context, conversationID string, _ ...core.DBExecutor) ([]chat.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	msgs := repo.db.conversationMessages(conversationID)
	for i := range msgs {
		msgs[i] = repo.db.withSender(msgs[i])
	}
	return msgs, nil
}

func (repo *chatRepository) LastMessages(_ context.Context, conversationIDs []string, _ ...core.DBExecutor) (map[string]chat.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	last := make(map[string]chat.Message, len(conversationIDs))
	for _, id := range conversationIDs {
		if msgs := repo.db.conversationMessages(id); len(msgs) > 0 {
			last[id] = repo.db.withSender(msgs[len(msgs)-1])
		}
	}
	return last, nil
}

func hasRead(m chat.Message, mumiID int64) bool {
	for _, r := range m.Reads {
		if r.MumiID == mumiID {
			return true
		}
	}
	return false
}

func (repo *chatRepository) UnreadCounts(_ context.Context, mumiID int64, conversationIDs []string, _ ...core.DBExecutor) (map[string]int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	counts := make(map[string]int, len(conversationIDs))
	for _, id := range conversationIDs {
		for _, m := range repo.db.conversationMessages(id) {
			if m.SenderID != mumiID && !hasRead(m, mumiID) {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (repo *chatRepository) MarkRead(_ context.Context, conversationID string, mumiID int64, at time.Time, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var n int
	for id, m := range repo.db.messages {
		if m.ConversationID != conversationID || m.SenderID == mumiID || hasRead(m, mumiID) {
			continue
		}
		m.Reads = append(m.Reads, chat.Read{MessageID: m.ID, MumiID: mumiID, ReadAt: at})
		repo.db.messages[id] = m
		n++
	}
	return n, nil
}
