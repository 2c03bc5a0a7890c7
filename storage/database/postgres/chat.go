package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/chat"
)

type chatRepository struct {
	repository
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(exec core.DBExecutor) *chatRepository {
	return &chatRepository{repository{exec: exec}}
}

var (
	conversationSelect = psql.Select(
		"c.id", "c.is_group", "c.name", "c.description", "c.image", "c.created_by_id", "c.created_at", "c.updated_at").
		From("conversation c")

	participantSelect = psql.Select("p.conversation_id", "p.mumi_id", "m.nama", "p.joined_at").
		From("conversation_participant p").
		Join("member m ON m.id = p.mumi_id").
		OrderBy("p.joined_at", "p.mumi_id")

	messageSelect = psql.Select(
		"msg.id", "msg.conversation_id", "msg.sender_id", "m.nama AS sender_nama", "msg.content", "msg.created_at").
		From("message msg").
		Join("member m ON m.id = msg.sender_id")
)

// marks every message of a conversation not sent by the member as read by the member
const markReadQuery = `
INSERT INTO message_read (message_id, mumi_id, read_at)
SELECT msg.id, $1, $2 FROM message msg
WHERE msg.conversation_id = $3 AND msg.sender_id <> $1
ON CONFLICT (message_id, mumi_id) DO NOTHING`

type messageRow struct {
	ID             string      `db:"id"`
	ConversationID string      `db:"conversation_id"`
	SenderID       int64       `db:"sender_id"`
	SenderNama     string      `db:"sender_nama"`
	Content        null.String `db:"content"`
	CreatedAt      time.Time   `db:"created_at"`
}

func (row messageRow) message() chat.Message {
	return chat.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		SenderID:       row.SenderID,
		Sender:         chat.Sender{ID: row.SenderID, Nama: row.SenderNama},
		Content:        row.Content,
		Attachments:    make([]chat.Attachment, 0),
		Reads:          make([]chat.Read, 0),
		CreatedAt:      row.CreatedAt,
	}
}

func (repo chatRepository) loadParticipants(ctx context.Context, exec core.DBExecutor, convs []chat.Conversation) error {
	if len(convs) == 0 {
		return nil
	}
	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}

	var parts []chat.Participant
	if err := selectAll(ctx, exec, &parts, participantSelect.Where(sq.Eq{"p.conversation_id": ids})); err != nil {
		return errors.Wrap(err, "selecting participants")
	}
	byConv := make(map[string][]chat.Participant, len(convs))
	for _, p := range parts {
		byConv[p.ConversationID] = append(byConv[p.ConversationID], p)
	}
	for i := range convs {
		if convs[i].Participants = byConv[convs[i].ID]; convs[i].Participants == nil {
			convs[i].Participants = make([]chat.Participant, 0)
		}
	}
	return nil
}

// loadMessages selects the messages matched by q along with their attachments and reads.
func (repo chatRepository) loadMessages(ctx context.Context, exec core.DBExecutor, q sq.SelectBuilder) ([]chat.Message, error) {
	var rows []messageRow
	if err := selectAll(ctx, exec, &rows, q); err != nil {
		if pqCode(err) == codeInvalidText {
			return make([]chat.Message, 0), nil
		}
		return nil, errors.Wrap(err, "selecting messages")
	}
	msgs := make([]chat.Message, len(rows))
	if len(rows) == 0 {
		return msgs, nil
	}

	ids := make([]string, len(rows))
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		msgs[i] = row.message()
		ids[i] = row.ID
		index[row.ID] = i
	}

	var attachments []chat.Attachment
	aq := psql.Select("id", "message_id", "file_url", "file_name", "file_type", "file_size").
		From("message_attachment").
		Where(sq.Eq{"message_id": ids})
	if err := selectAll(ctx, exec, &attachments, aq); err != nil {
		return nil, errors.Wrap(err, "selecting attachments")
	}
	for _, a := range attachments {
		i := index[a.MessageID]
		msgs[i].Attachments = append(msgs[i].Attachments, a)
	}

	var reads []chat.Read
	rq := psql.Select("message_id", "mumi_id", "read_at").
		From("message_read").
		Where(sq.Eq{"message_id": ids}).
		OrderBy("read_at")
	if err := selectAll(ctx, exec, &reads, rq); err != nil {
		return nil, errors.Wrap(err, "selecting reads")
	}
	for _, r := range reads {
		i := index[r.MessageID]
		msgs[i].Reads = append(msgs[i].Reads, r)
	}
	return msgs, nil
}

func (repo chatRepository) CreateConversation(ctx context.Context, c chat.Conversation, participantIDs []int64, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := psql.Insert("conversation").
		Columns("id", "is_group", "name", "description", "image", "created_by_id", "created_at", "updated_at").
		Values(c.ID, c.IsGroup, c.Name, c.Description, c.Image, c.CreatedByID, c.CreatedAt, c.UpdatedAt)
	if _, err := execAffected(ctx, ex, q); err != nil {
		return errors.Wrap(err, "inserting conversation")
	}
	if len(participantIDs) == 0 {
		return nil
	}

	partQ := psql.Insert("conversation_participant").Columns("conversation_id", "mumi_id", "joined_at")
	for _, id := range participantIDs {
		partQ = partQ.Values(c.ID, id, c.CreatedAt)
	}
	if _, err := execAffected(ctx, ex, partQ); err != nil {
		return errors.Wrap(err, "inserting participants")
	}
	return nil
}

func (repo chatRepository) GetConversation(ctx context.Context, id string, exec ...core.DBExecutor) (chat.Conversation, error) {
	ex := repo.getExec(exec)
	var c chat.Conversation
	if err := get(ctx, ex, &c, conversationSelect.Where(sq.Eq{"c.id": id})); err != nil {
		return chat.Conversation{}, trapNoRowsErr(err, chat.ErrConversationNotFound, "selecting conversation")
	}
	convs := []chat.Conversation{c}
	if err := repo.loadParticipants(ctx, ex, convs); err != nil {
		return chat.Conversation{}, err
	}
	return convs[0], nil
}

func (repo chatRepository) FindPrivateConversation(ctx context.Context, a, b int64, exec ...core.DBExecutor) (chat.Conversation, error) {
	q := psql.Select("c.id").
		From("conversation c").
		Where(sq.Eq{"c.is_group": false}).
		Where("EXISTS (SELECT 1 FROM conversation_participant p WHERE p.conversation_id = c.id AND p.mumi_id = ?)", a).
		Where("EXISTS (SELECT 1 FROM conversation_participant p WHERE p.conversation_id = c.id AND p.mumi_id = ?)", b).
		Where("(SELECT COUNT(*) FROM conversation_participant p WHERE p.conversation_id = c.id) = 2").
		OrderBy("c.created_at").
		Limit(1)

	ex := repo.getExec(exec)
	var id string
	if err := get(ctx, ex, &id, q); err != nil {
		return chat.Conversation{}, trapNoRowsErr(err, chat.ErrConversationNotFound, "finding private conversation")
	}
	return repo.GetConversation(ctx, id, ex)
}

func (repo chatRepository) ConversationsOf(ctx context.Context, mumiID int64, exec ...core.DBExecutor) ([]chat.Conversation, error) {
	ex := repo.getExec(exec)
	q := conversationSelect.
		Join("conversation_participant p ON p.conversation_id = c.id").
		Where(sq.Eq{"p.mumi_id": mumiID}).
		OrderBy("c.updated_at DESC")
	convs := make([]chat.Conversation, 0)
	if err := selectAll(ctx, ex, &convs, q); err != nil {
		return nil, errors.Wrap(err, "selecting conversations")
	}
	if err := repo.loadParticipants(ctx, ex, convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (repo chatRepository) UpdateConversation(ctx context.Context, c chat.Conversation, exec ...core.DBExecutor) error {
	q := psql.Update("conversation").
		Set("name", c.Name).
		Set("description", c.Description).
		Set("image", c.Image).
		Set("updated_at", c.UpdatedAt).
		Where(sq.Eq{"id": c.ID})
	return updateOne(ctx, repo.getExec(exec), q, chat.ErrConversationNotFound, nil, nil, "updating conversation")
}

func (repo chatRepository) TouchConversation(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	q := psql.Update("conversation").Set("updated_at", at).Where(sq.Eq{"id": id})
	return updateOne(ctx, repo.getExec(exec), q, chat.ErrConversationNotFound, nil, nil, "touching conversation")
}

func (repo chatRepository) DeleteConversation(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("conversation").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, chat.ErrConversationNotFound, nil, "deleting conversation")
}

func (repo chatRepository) IsParticipant(ctx context.Context, conversationID string, mumiID int64, exec ...core.DBExecutor) (bool, error) {
	q := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("conversation_participant").
		Where(sq.Eq{"conversation_id": conversationID, "mumi_id": mumiID}).
		Suffix(")")
	var ok bool
	if err := get(ctx, repo.getExec(exec), &ok, q); err != nil {
		if pqCode(err) == codeInvalidText {
			return false, nil
		}
		return false, errors.Wrap(err, "checking participant")
	}
	return ok, nil
}

func (repo chatRepository) AddParticipant(ctx context.Context, conversationID string, mumiID int64, at time.Time, exec ...core.DBExecutor) error {
	q := psql.Insert("conversation_participant").
		Columns("conversation_id", "mumi_id", "joined_at").
		Values(conversationID, mumiID, at)
	if _, err := execAffected(ctx, repo.getExec(exec), q); err != nil {
		switch pqCode(err) {
		case codeUniqueViolation:
			return chat.ErrAlreadyParticipant
		case codeForeignKeyViolation, codeInvalidText:
			return chat.ErrConversationNotFound
		}
		return errors.Wrap(err, "inserting participant")
	}
	return nil
}

func (repo chatRepository) RemoveParticipant(ctx context.Context, conversationID string, mumiID int64, exec ...core.DBExecutor) error {
	q := psql.Delete("conversation_participant").Where(sq.Eq{"conversation_id": conversationID, "mumi_id": mumiID})
	return deleteOne(ctx, repo.getExec(exec), q, chat.ErrParticipantNotFound, nil, "deleting participant")
}

func (repo chatRepository) CreateMessage(ctx context.Context, m chat.Message, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := psql.Insert("message").
		Columns("id", "conversation_id", "sender_id", "content", "created_at").
		Values(m.ID, m.ConversationID, m.SenderID, m.Content, m.CreatedAt)
	if _, err := execAffected(ctx, ex, q); err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return chat.ErrConversationNotFound
		}
		return errors.Wrap(err, "inserting message")
	}
	if len(m.Attachments) == 0 {
		return nil
	}

	aq := psql.Insert("message_attachment").Columns("id", "message_id", "file_url", "file_name", "file_type", "file_size")
	for _, a := range m.Attachments {
		aq = aq.Values(a.ID, m.ID, a.FileURL, a.FileName, a.FileType, a.FileSize)
	}
	if _, err := execAffected(ctx, ex, aq); err != nil {
		return errors.Wrap(err, "inserting attachments")
	}
	return nil
}

func (repo chatRepository) Messages(ctx context.Context, conversationID string, exec ...core.DBExecutor) ([]chat.Message, error) {
	q := messageSelect.Where(sq.Eq{"msg.conversation_id": conversationID}).OrderBy("msg.created_at")
	return repo.loadMessages(ctx, repo.getExec(exec), q)
}

func (repo chatRepository) LastMessages(ctx context.Context, conversationIDs []string, exec ...core.DBExecutor) (map[string]chat.Message, error) {
	last := make(map[string]chat.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return last, nil
	}
	q := messageSelect.
		Options("DISTINCT ON (msg.conversation_id)").
		Where(sq.Eq{"msg.conversation_id": conversationIDs}).
		OrderBy("msg.conversation_id", "msg.created_at DESC")
	msgs, err := repo.loadMessages(ctx, repo.getExec(exec), q)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		last[m.ConversationID] = m
	}
	return last, nil
}

func (repo chatRepository) UnreadCounts(ctx context.Context, mumiID int64, conversationIDs []string, exec ...core.DBExecutor) (map[string]int, error) {
	counts := make(map[string]int, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}
	q := psql.Select("msg.conversation_id", "COUNT(*) AS total").
		From("message msg").
		Where(sq.Eq{"msg.conversation_id": conversationIDs}).
		Where(sq.NotEq{"msg.sender_id": mumiID}).
		Where("NOT EXISTS (SELECT 1 FROM message_read r WHERE r.message_id = msg.id AND r.mumi_id = ?)", mumiID).
		GroupBy("msg.conversation_id")

	var rows []struct {
		ConversationID string `db:"conversation_id"`
		Total          int    `db:"total"`
	}
	if err := selectAll(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "counting unread messages")
	}
	for _, row := range rows {
		counts[row.ConversationID] = row.Total
	}
	return counts, nil
}

func (repo chatRepository) MarkRead(ctx context.Context, conversationID string, mumiID int64, at time.Time, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, markReadQuery, mumiID, at, conversationID)
	if err != nil {
		return 0, trapNoRowsErr(err, chat.ErrConversationNotFound, "marking messages read")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "marking messages read")
}
