package chat

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/member"
)

var (
	ErrConversationNotFound = core.NewNotFoundError("conversation not found")
	ErrGroupNotFound        = core.NewNotFoundError("group not found")
	ErrNotParticipant       = core.NewPermissionError("not a participant of this conversation")
	ErrNotCreator           = core.NewPermissionError("only the group creator can do this")
	ErrParticipantNotFound  = core.NewNotFoundError("member is not a participant of this group")
	ErrAlreadyParticipant   = core.NewConflictError("member is already a participant of this group")
	ErrTargetNotFound       = core.NewNotFoundError("target user not found")

	errEmptyMessage   = "content or at least one attachment is required"
	errTargetRequired = "targetUserId is required"
	errTargetIsSelf   = "cannot start a conversation with yourself"
)

type (
	Repository interface {
		// CreateConversation stores c with participantIDs joined at c.CreatedAt.
		CreateConversation(ctx context.Context, c Conversation, participantIDs []int64, exec ...core.DBExecutor) error
		// GetConversation returns the conversation with its participants.
		GetConversation(ctx context.Context, id string, exec ...core.DBExecutor) (Conversation, error)
		// FindPrivateConversation returns the non-group conversation between exactly a and b.
		FindPrivateConversation(ctx context.Context, a, b int64, exec ...core.DBExecutor) (Conversation, error)
		// ConversationsOf returns every conversation mumiID takes part in, with participants.
		ConversationsOf(ctx context.Context, mumiID int64, exec ...core.DBExecutor) ([]Conversation, error)
		UpdateConversation(ctx context.Context, c Conversation, exec ...core.DBExecutor) error
		TouchConversation(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error
		// DeleteConversation also removes participants, messages, attachments and reads.
		DeleteConversation(ctx context.Context, id string, exec ...core.DBExecutor) error

		IsParticipant(ctx context.Context, conversationID string, mumiID int64, exec ...core.DBExecutor) (bool, error)
		AddParticipant(ctx context.Context, conversationID string, mumiID int64, at time.Time, exec ...core.DBExecutor) error
		RemoveParticipant(ctx context.Context, conversationID string, mumiID int64, exec ...core.DBExecutor) error

		// CreateMessage stores m and its attachments.
		CreateMessage(ctx context.Context, m Message, exec ...core.DBExecutor) error
		// Messages returns the messages of a conversation, oldest first, with sender, attachments and reads.
		Messages(ctx context.Context, conversationID string, exec ...core.DBExecutor) ([]Message, error)
		LastMessages(ctx context.Context, conversationIDs []string, exec ...core.DBExecutor) (map[string]Message, error)
		// UnreadCounts counts, per conversation, the messages of others mumiID has not read.
		UnreadCounts(ctx context.Context, mumiID int64, conversationIDs []string, exec ...core.DBExecutor) (map[string]int, error)
		// MarkRead records a read by mumiID on every message of others not read yet.
		MarkRead(ctx context.Context, conversationID string, mumiID int64, at time.Time, exec ...core.DBExecutor) (int, error)
	}

	// Notifier publishes events to connected clients.
	Notifier interface {
		EmitToConversation(conversationID, event string, data interface{})
		EmitToUser(userID int64, event string, data interface{})
	}

	Members interface {
		Exists(ctx context.Context, kind string, id int64) (bool, error)
		ExistingIDs(ctx context.Context, kind string, ids []int64) ([]int64, error)
	}

	Service struct {
		db       core.DB
		repo     Repository
		members  Members
		notifier Notifier
		validate *validator.Validate
		now      func() time.Time
	}
)

func NewService(db core.DB, repo Repository, members Members, notifier Notifier, validate *validator.Validate) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		members:  members,
		notifier: notifier,
		validate: validate,
		now:      time.Now,
	}
}

func (svc *Service) emitToUsers(ids []int64, event string, data interface{}) {
	for _, id := range ids {
		svc.notifier.EmitToUser(id, event, data)
	}
}

// participantConversation returns the conversation when userID takes part in it.
func (svc *Service) participantConversation(ctx context.Context, userID int64, id string) (Conversation, error) {
	ok, err := svc.repo.IsParticipant(ctx, id, userID)
	if err != nil {
		return Conversation{}, errors.Wrap(err, "checking participant")
	}
	if !ok {
		return Conversation{}, ErrNotParticipant
	}
	return svc.repo.GetConversation(ctx, id)
}

func (svc *Service) IsParticipant(ctx context.Context, conversationID string, userID int64) (bool, error) {
	return svc.repo.IsParticipant(ctx, conversationID, userID)
}

// Messages

func (svc *Service) SendMessage(ctx context.Context, senderID int64, nm NewMessage) (Message, error) {
	nm.Clean()
	if err := svc.validate.Struct(nm); err != nil {
		return Message{}, err
	}
	if nm.Content == "" && len(nm.Attachments) == 0 {
		return Message{}, core.NewFieldError("content", errEmptyMessage)
	}
	conv, err := svc.participantConversation(ctx, senderID, nm.ConversationID)
	if err != nil {
		return Message{}, err
	}

	now := svc.now().UTC()
	msg := Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        null.NewString(nm.Content, nm.Content != ""),
		Attachments:    make([]Attachment, 0, len(nm.Attachments)),
		Reads:          []Read{},
		CreatedAt:      now,
	}
	if p, ok := conv.Participant(senderID); ok {
		msg.Sender = Sender{ID: p.MumiID, Nama: p.Nama}
	}
	for _, a := range nm.Attachments {
		msg.Attachments = append(msg.Attachments, Attachment{
			ID:        uuid.New().String(),
			MessageID: msg.ID,
			FileURL:   a.FileURL,
			FileName:  a.FileName,
			FileType:  a.FileType,
			FileSize:  a.FileSize,
		})
	}

	err = core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if err := svc.repo.CreateMessage(ctx, msg, exec); err != nil {
			return err
		}
		return svc.repo.TouchConversation(ctx, conv.ID, now, exec)
	})
	if err != nil {
		return Message{}, err
	}

	svc.notifier.EmitToConversation(conv.ID, EventReceiveMessage, msg)
	svc.emitToUsers(conv.ParticipantIDs(), EventChatListUpdate, ChatListUpdate{ConversationID: conv.ID, UpdatedAt: now})
	return msg, nil
}

func (svc *Service) Messages(ctx context.Context, userID int64, conversationID string) ([]Message, error) {
	if _, err := svc.participantConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return svc.repo.Messages(ctx, conversationID)
}

// MarkRead marks every message of others in the conversation as read by userID.
func (svc *Service) MarkRead(ctx context.Context, userID int64, conversationID string) (MessagesRead, error) {
	conversationID = core.CleanString(conversationID)
	if conversationID == "" {
		return MessagesRead{}, core.NewFieldError("conversationId", "this field is required")
	}
	if _, err := svc.participantConversation(ctx, userID, conversationID); err != nil {
		return MessagesRead{}, err
	}

	now := svc.now().UTC()
	if _, err := svc.repo.MarkRead(ctx, conversationID, userID, now); err != nil {
		return MessagesRead{}, err
	}
	payload := MessagesRead{ConversationID: conversationID, UserID: userID, ReadAt: now}
	svc.notifier.EmitToConversation(conversationID, EventMessagesRead, payload)
	return payload, nil
}

// Conversations

// CreatePrivate returns the private conversation between userID and targetID, creating it
// when missing. created tells which one happened.
func (svc *Service) CreatePrivate(ctx context.Context, userID, targetID int64) (conv Conversation, created bool, err error) {
	if targetID == 0 {
		return Conversation{}, false, core.NewFieldError("targetUserId", errTargetRequired)
	}
	if targetID == userID {
		return Conversation{}, false, core.NewFieldError("targetUserId", errTargetIsSelf)
	}
	exists, err := svc.members.Exists(ctx, member.KindGenerus, targetID)
	if err != nil {
		return Conversation{}, false, errors.Wrap(err, "checking target user")
	}
	if !exists {
		return Conversation{}, false, ErrTargetNotFound
	}

	conv, err = svc.repo.FindPrivateConversation(ctx, userID, targetID)
	if err == nil {
		return conv, false, nil
	}
	if !core.IsNotFound(err) {
		return Conversation{}, false, errors.Wrap(err, "finding private conversation")
	}

	now := svc.now().UTC()
	conv = Conversation{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	err = core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		return svc.repo.CreateConversation(ctx, conv, []int64{userID, targetID}, exec)
	})
	if err != nil {
		return Conversation{}, false, err
	}
	if conv, err = svc.repo.GetConversation(ctx, conv.ID); err != nil {
		return Conversation{}, false, err
	}
	svc.notifier.EmitToUser(targetID, EventNewConversation, conv)
	return conv, true, nil
}

// CreateGroup creates a group made of the creator and the distinct memberIDs.
func (svc *Service) CreateGroup(ctx context.Context, userID int64, ng NewGroup) (Conversation, error) {
	ng.Name = core.CleanString(ng.Name)
	ng.Description = core.CleanString(ng.Description)
	ng.Image = core.CleanString(ng.Image)
	if err := svc.validate.Struct(ng); err != nil {
		return Conversation{}, err
	}

	ids := make([]int64, 0, len(ng.MemberIDs)+1)
	ids = append(ids, userID)
	ids = core.DedupInt64(append(ids, ng.MemberIDs...))
	if err := svc.checkMembers(ctx, ids[1:]); err != nil {
		return Conversation{}, err
	}

	now := svc.now().UTC()
	conv := Conversation{
		ID:          uuid.New().String(),
		IsGroup:     true,
		Name:        null.StringFrom(ng.Name),
		Description: null.NewString(ng.Description, ng.Description != ""),
		Image:       null.NewString(ng.Image, ng.Image != ""),
		CreatedByID: null.Int64From(userID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		return svc.repo.CreateConversation(ctx, conv, ids, exec)
	})
	if err != nil {
		return Conversation{}, err
	}
	if conv, err = svc.repo.GetConversation(ctx, conv.ID); err != nil {
		return Conversation{}, err
	}
	svc.emitToUsers(ids, EventNewGroup, conv)
	return conv, nil
}

// checkMembers resolves ids concurrently in chunks and fails on the first unknown one.
func (svc *Service) checkMembers(ctx context.Context, ids []int64) error {
	const chunk = 100
	found := make([][]int64, (len(ids)+chunk-1)/chunk)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i*chunk < len(ids); i++ {
		i := i
		end := (i + 1) * chunk
		if end > len(ids) {
			end = len(ids)
		}
		part := ids[i*chunk : end]
		g.Go(func() error {
			existing, err := svc.members.ExistingIDs(gctx, member.KindGenerus, part)
			found[i] = existing
			return errors.Wrap(err, "resolving members")
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	known := make(map[int64]bool, len(ids))
	for _, part := range found {
		for _, id := range part {
			known[id] = true
		}
	}
	for _, id := range ids {
		if !known[id] {
			return core.NewNotFoundError(errors.Errorf("generus %d not found", id).Error())
		}
	}
	return nil
}

func (svc *Service) Get(ctx context.Context, userID int64, id string) (Conversation, error) {
	return svc.participantConversation(ctx, userID, id)
}

// GroupDetail returns a group conversation, whoever asks.
func (svc *Service) GroupDetail(ctx context.Context, id string) (Conversation, error) {
	conv, err := svc.repo.GetConversation(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return Conversation{}, ErrGroupNotFound
		}
		return Conversation{}, err
	}
	if !conv.IsGroup {
		return Conversation{}, ErrGroupNotFound
	}
	return conv, nil
}

// participantGroup returns the group when userID takes part in it.
func (svc *Service) participantGroup(ctx context.Context, userID int64, id string) (Conversation, error) {
	conv, err := svc.GroupDetail(ctx, id)
	if err != nil {
		return Conversation{}, err
	}
	if !conv.HasParticipant(userID) {
		return Conversation{}, ErrNotParticipant
	}
	return conv, nil
}

func (svc *Service) UpdateGroup(ctx context.Context, userID int64, id string, ug UpdateGroup) (Conversation, error) {
	if err := svc.validate.Struct(ug); err != nil {
		return Conversation{}, err
	}
	conv, err := svc.participantGroup(ctx, userID, id)
	if err != nil {
		return Conversation{}, err
	}
	if ug.Name != nil {
		conv.Name = null.StringFrom(core.CleanString(*ug.Name))
	}
	if ug.Description != nil {
		desc := core.CleanString(*ug.Description)
		conv.Description = null.NewString(desc, desc != "")
	}
	if ug.Image != nil {
		img := core.CleanString(*ug.Image)
		conv.Image = null.NewString(img, img != "")
	}
	conv.UpdatedAt = svc.now().UTC()
	if err = svc.repo.UpdateConversation(ctx, conv); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// DeleteGroup is reserved to the group creator.
func (svc *Service) DeleteGroup(ctx context.Context, userID int64, id string) error {
	conv, err := svc.GroupDetail(ctx, id)
	if err != nil {
		return err
	}
	if !conv.CreatedByID.Valid || conv.CreatedByID.Int64 != userID {
		return ErrNotCreator
	}
	return svc.deleteConversation(ctx, conv)
}

func (svc *Service) LeaveGroup(ctx context.Context, userID int64, id string) error {
	conv, err := svc.participantGroup(ctx, userID, id)
	if err != nil {
		return err
	}
	if err = svc.repo.RemoveParticipant(ctx, conv.ID, userID); err != nil {
		return err
	}
	svc.emitToUsers(conv.ParticipantIDs(), EventChatListUpdate, ChatListUpdate{
		ConversationID: conv.ID,
		UpdatedAt:      svc.now().UTC(),
	})
	return nil
}

func (svc *Service) AddMember(ctx context.Context, userID int64, id string, mumiID int64) (Conversation, error) {
	conv, err := svc.participantGroup(ctx, userID, id)
	if err != nil {
		return Conversation{}, err
	}
	if mumiID == 0 {
		return Conversation{}, core.NewFieldError("mumiId", "this field is required")
	}
	if conv.HasParticipant(mumiID) {
		return Conversation{}, ErrAlreadyParticipant
	}
	exists, err := svc.members.Exists(ctx, member.KindGenerus, mumiID)
	if err != nil {
		return Conversation{}, errors.Wrap(err, "checking member")
	}
	if !exists {
		return Conversation{}, member.ErrGenerusNotFound
	}

	if err = svc.repo.AddParticipant(ctx, conv.ID, mumiID, svc.now().UTC()); err != nil {
		return Conversation{}, err
	}
	if conv, err = svc.repo.GetConversation(ctx, conv.ID); err != nil {
		return Conversation{}, err
	}
	svc.notifier.EmitToUser(mumiID, EventNewGroup, conv)
	return conv, nil
}

// RemoveMember is reserved to the group creator.
func (svc *Service) RemoveMember(ctx context.Context, userID int64, id string, mumiID int64) error {
	conv, err := svc.GroupDetail(ctx, id)
	if err != nil {
		return err
	}
	if !conv.CreatedByID.Valid || conv.CreatedByID.Int64 != userID {
		return ErrNotCreator
	}
	if !conv.HasParticipant(mumiID) {
		return ErrParticipantNotFound
	}
	if err = svc.repo.RemoveParticipant(ctx, conv.ID, mumiID); err != nil {
		return err
	}
	svc.notifier.EmitToUser(mumiID, EventConversationDeleted, ConversationDeleted{ConversationID: conv.ID})
	return nil
}

// DeleteConversation removes a conversation the user takes part in, with all its messages.
func (svc *Service) DeleteConversation(ctx context.Context, userID int64, id string) error {
	conv, err := svc.participantConversation(ctx, userID, id)
	if err != nil {
		return err
	}
	return svc.deleteConversation(ctx, conv)
}

func (svc *Service) deleteConversation(ctx context.Context, conv Conversation) error {
	err := core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		return svc.repo.DeleteConversation(ctx, conv.ID, exec)
	})
	if err != nil {
		return err
	}
	svc.emitToUsers(conv.ParticipantIDs(), EventConversationDeleted, ConversationDeleted{ConversationID: conv.ID})
	return nil
}

// ChatList returns the conversations of userID, most recently active first.
func (svc *Service) ChatList(ctx context.Context, userID int64) ([]ChatListItem, error) {
	convs, err := svc.repo.ConversationsOf(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying conversations")
	}
	items := make([]ChatListItem, 0, len(convs))
	if len(convs) == 0 {
		return items, nil
	}

	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	var (
		last   map[string]Message
		unread map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		last, err = svc.repo.LastMessages(gctx, ids)
		return errors.Wrap(err, "querying last messages")
	})
	g.Go(func() (err error) {
		unread, err = svc.repo.UnreadCounts(gctx, userID, ids)
		return errors.Wrap(err, "counting unread messages")
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	for _, c := range convs {
		item := ChatListItem{
			Conversation: c,
			UnreadCount:  unread[c.ID],
			LastActivity: c.UpdatedAt,
		}
		if msg, ok := last[c.ID]; ok {
			msg := msg
			item.LastMessage = &msg
			item.LastActivity = msg.CreatedAt
		}
		if !c.IsGroup {
			for _, p := range c.Participants {
				if p.MumiID != userID {
					p := p
					item.Peer = &p
					break
				}
			}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastActivity.After(items[j].LastActivity)
	})
	return items, nil
}
