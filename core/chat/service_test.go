package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/chat"
	"github.com/sigenerus/sigenerus/core/member"
	"github.com/sigenerus/sigenerus/tests"
)

type fixture struct {
	env   *testutil.Env
	ahmad member.Member
	budi  member.Member
	siti  member.Member
}

func newFixture(t *testing.T) fixture {
	env := testutil.NewEnv()
	r := env.CreateRegion(t, "Daerah", "Desa", "Kelompok")
	remaja := env.CreateJenjang(t, "Remaja")
	return fixture{
		env:   env,
		ahmad: env.CreateGenerus(t, "Ahmad", r, remaja.ID),
		budi:  env.CreateGenerus(t, "Budi", r, remaja.ID),
		siti:  env.CreateGenerus(t, "Siti", r, remaja.ID),
	}
}

func recipients(events []testutil.Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.UserID)
	}
	return ids
}

func TestService_CreatePrivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		target    int64
		wantField string
		wantErr   error
	}{
		{name: "missing target", target: 0, wantField: "targetUserId"},
		{name: "self", target: f.ahmad.ID, wantField: "targetUserId"},
		{name: "unknown target", target: 999, wantErr: chat.ErrTargetNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.env.Chat.CreatePrivate(ctx, f.ahmad.ID, tc.target)
			require.Error(t, err)
			if tc.wantField != "" {
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok)
				assert.Equal(t, tc.wantField, verr.Fields[0].Field)
			} else {
				assert.Equal(t, tc.wantErr, err)
			}
		})
	}

	conv, created, err := f.env.Chat.CreatePrivate(ctx, f.ahmad.ID, f.budi.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, conv.IsGroup)
	assert.ElementsMatch(t, []int64{f.ahmad.ID, f.budi.ID}, conv.ParticipantIDs())

	events := f.env.Notifier.Events(chat.EventNewConversation)
	require.Len(t, events, 1)
	assert.Equal(t, f.budi.ID, events[0].UserID)

	// either side finds the same conversation
	again, created, err := f.env.Chat.CreatePrivate(ctx, f.budi.ID, f.ahmad.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
	assert.Len(t, f.env.Notifier.Events(chat.EventNewConversation), 1)
}

func TestService_SendMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv, _, err := f.env.Chat.CreatePrivate(ctx, f.ahmad.ID, f.budi.ID)
	require.NoError(t, err)
	f.env.Notifier.Reset()

	t.Run("empty message", func(t *testing.T) {
		_, err := f.env.Chat.SendMessage(ctx, f.ahmad.ID, chat.NewMessage{ConversationID: conv.ID, Content: "  "})
		require.Error(t, err)
		verr, ok := err.(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, "content", verr.Fields[0].Field)
	})

	t.Run("invalid attachment", func(t *testing.T) {
		_, err := f.env.Chat.SendMessage(ctx, f.ahmad.ID, chat.NewMessage{
			ConversationID: conv.ID,
			Attachments:    []chat.NewAttachment{{FileURL: "not a url", FileName: "a.png"}},
		})
		assert.Error(t, err)
	})

	t.Run("outsider", func(t *testing.T) {
		_, err := f.env.Chat.SendMessage(ctx, f.siti.ID, chat.NewMessage{ConversationID: conv.ID, Content: "Halo"})
		assert.Equal(t, chat.ErrNotParticipant, err)
	})

	msg, err := f.env.Chat.SendMessage(ctx, f.ahmad.ID, chat.NewMessage{
		ConversationID: conv.ID,
		Content:        " Assalamualaikum ",
		Attachments: []chat.NewAttachment{{
			FileURL:  "https://cdn.example.com/jadwal.pdf",
			FileName: "jadwal.pdf",
			FileType: "application/pdf",
			FileSize: 2048,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Assalamualaikum", msg.Content.String)
	assert.Equal(t, chat.Sender{ID: f.ahmad.ID, Nama: "Ahmad"}, msg.Sender)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, msg.ID, msg.Attachments[0].MessageID)

	received := f.env.Notifier.Events(chat.EventReceiveMessage)
	require.Len(t, received, 1)
	assert.Equal(t, conv.ID, received[0].Conversation)
	assert.ElementsMatch(t, []int64{f.ahmad.ID, f.budi.ID}, recipients(f.env.Notifier.Events(chat.EventChatListUpdate)))

	msgs, err := f.env.Chat.Messages(ctx, f.budi.ID, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Ahmad", msgs[0].Sender.Nama)
	assert.Equal(t, "jadwal.pdf", msgs[0].Attachments[0].FileName)

	_, err = f.env.Chat.Messages(ctx, f.siti.ID, conv.ID)
	assert.Equal(t, chat.ErrNotParticipant, err)
}

func TestService_MarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv, _, err := f.env.Chat.CreatePrivate(ctx, f.ahmad.ID, f.budi.ID)
	require.NoError(t, err)

	for _, content := range []string{"Satu", "Dua"} {
		_, err = f.env.Chat.SendMessage(ctx, f.ahmad.ID, chat.NewMessage{ConversationID: conv.ID, Content: content})
		require.NoError(t, err)
	}
	_, err = f.env.Chat.SendMessage(ctx, f.budi.ID, chat.NewMessage{ConversationID: conv.ID, Content: "Tiga"})
	require.NoError(t, err)

	unread := func(userID int64) int {
		items, err := f.env.Chat.ChatList(ctx, userID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		return items[0].UnreadCount
	}
	assert.Equal(t, 2, unread(f.budi.ID))
	assert.Equal(t, 1, unread(f.ahmad.ID))

	_, err = f.env.Chat.MarkRead(ctx, f.budi.ID, " ")
	assert.Error(t, err)
	_, err = f.env.Chat.MarkRead(ctx, f.siti.ID, conv.ID)
	assert.Equal(t, chat.ErrNotParticipant, err)

	read, err := f.env.Chat.MarkRead(ctx, f.budi.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, f.budi.ID, read.UserID)
	assert.Equal(t, 0, unread(f.budi.ID))
	assert.Equal(t, 1, unread(f.ahmad.ID))

	events := f.env.Notifier.Events(chat.EventMessagesRead)
	require.Len(t, events, 1)
	assert.Equal(t, conv.ID, events[0].Conversation)

	msgs, err := f.env.Chat.Messages(ctx, f.ahmad.ID, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Len(t, msgs[0].Reads, 1)
	assert.Empty(t, msgs[2].Reads)
}

func TestService_Groups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.env.Chat.CreateGroup(ctx, f.ahmad.ID, chat.NewGroup{Name: "Muda-mudi", MemberIDs: []int64{f.budi.ID, 999}})
	assert.True(t, core.IsNotFound(err))

	group, err := f.env.Chat.CreateGroup(ctx, f.ahmad.ID, chat.NewGroup{
		Name:      " Muda-mudi ",
		MemberIDs: []int64{f.budi.ID, f.ahmad.ID, f.budi.ID},
	})
	require.NoError(t, err)
	assert.True(t, group.IsGroup)
	assert.Equal(t, "Muda-mudi", group.Name.String)
	assert.Equal(t, f.ahmad.ID, group.CreatedByID.Int64)
	assert.ElementsMatch(t, []int64{f.ahmad.ID, f.budi.ID}, group.ParticipantIDs())
	assert.ElementsMatch(t, []int64{f.ahmad.ID, f.budi.ID}, recipients(f.env.Notifier.Events(chat.EventNewGroup)))

	t.Run("update", func(t *testing.T) {
		desc := "Grup remaja desa"
		updated, err := f.env.Chat.UpdateGroup(ctx, f.budi.ID, group.ID, chat.UpdateGroup{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "Muda-mudi", updated.Name.String)
		assert.Equal(t, desc, updated.Description.String)

		_, err = f.env.Chat.UpdateGroup(ctx, f.siti.ID, group.ID, chat.UpdateGroup{Description: &desc})
		assert.Equal(t, chat.ErrNotParticipant, err)
	})

	t.Run("members", func(t *testing.T) {
		f.env.Notifier.Reset()
		_, err := f.env.Chat.AddMember(ctx, f.budi.ID, group.ID, f.ahmad.ID)
		assert.Equal(t, chat.ErrAlreadyParticipant, err)
		_, err = f.env.Chat.AddMember(ctx, f.budi.ID, group.ID, 999)
		assert.Equal(t, member.ErrGenerusNotFound, err)

		conv, err := f.env.Chat.AddMember(ctx, f.budi.ID, group.ID, f.siti.ID)
		require.NoError(t, err)
		assert.True(t, conv.HasParticipant(f.siti.ID))
		assert.Equal(t, []int64{f.siti.ID}, recipients(f.env.Notifier.Events(chat.EventNewGroup)))

		assert.Equal(t, chat.ErrNotCreator, f.env.Chat.RemoveMember(ctx, f.budi.ID, group.ID, f.siti.ID))
		require.NoError(t, f.env.Chat.RemoveMember(ctx, f.ahmad.ID, group.ID, f.siti.ID))
		assert.Equal(t, chat.ErrParticipantNotFound, f.env.Chat.RemoveMember(ctx, f.ahmad.ID, group.ID, f.siti.ID))
		assert.Equal(t, []int64{f.siti.ID}, recipients(f.env.Notifier.Events(chat.EventConversationDeleted)))
	})

	t.Run("leave", func(t *testing.T) {
		require.NoError(t, f.env.Chat.LeaveGroup(ctx, f.budi.ID, group.ID))
		assert.Equal(t, chat.ErrNotParticipant, f.env.Chat.LeaveGroup(ctx, f.budi.ID, group.ID))

		detail, err := f.env.Chat.GroupDetail(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{f.ahmad.ID}, detail.ParticipantIDs())
	})

	t.Run("private conversation is not a group", func(t *testing.T) {
		conv, _, err := f.env.Chat.CreatePrivate(ctx, f.ahmad.ID, f.siti.ID)
		require.NoError(t, err)
		_, err = f.env.Chat.GroupDetail(ctx, conv.ID)
		assert.Equal(t, chat.ErrGroupNotFound, err)
		assert.Equal(t, chat.ErrGroupNotFound, f.env.Chat.DeleteGroup(ctx, f.ahmad.ID, conv.ID))
	})

	t.Run("delete", func(t *testing.T) {
		_, err := f.env.Chat.AddMember(ctx, f.ahmad.ID, group.ID, f.budi.ID)
		require.NoError(t, err)
		f.env.Notifier.Reset()

		assert.Equal(t, chat.ErrNotCreator, f.env.Chat.DeleteGroup(ctx, f.budi.ID, group.ID))
		require.NoError(t, f.env.Chat.DeleteGroup(ctx, f.ahmad.ID, group.ID))
		assert.ElementsMatch(t, []int64{f.ahmad.ID, f.budi.ID}, recipients(f.env.Notifier.Events(chat.EventConversationDeleted)))

		_, err = f.env.Chat.GroupDetail(ctx, group.ID)
		assert.Equal(t, chat.ErrGroupNotFound, err)
	})
}

func TestService_ChatList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items, err := f.env.Chat.ChatList(ctx, f.ahmad.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	private, _, err := f.env.Chat.CreatePrivate(ctx, f.ahmad.ID, f.budi.ID)
	require.NoError(t, err)
	group, err := f.env.Chat.CreateGroup(ctx, f.siti.ID, chat.NewGroup{Name: "Panitia", MemberIDs: []int64{f.ahmad.ID}})
	require.NoError(t, err)
	_, err = f.env.Chat.SendMessage(ctx, f.budi.ID, chat.NewMessage{ConversationID: private.ID, Content: "Halo"})
	require.NoError(t, err)

	items, err = f.env.Chat.ChatList(ctx, f.ahmad.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, private.ID, items[0].ID)
	require.NotNil(t, items[0].Peer)
	assert.Equal(t, "Budi", items[0].Peer.Nama)
	require.NotNil(t, items[0].LastMessage)
	assert.Equal(t, "Halo", items[0].LastMessage.Content.String)
	assert.Equal(t, 1, items[0].UnreadCount)
	assert.Equal(t, items[0].LastMessage.CreatedAt, items[0].LastActivity)

	assert.Equal(t, group.ID, items[1].ID)
	assert.Nil(t, items[1].Peer)
	assert.Nil(t, items[1].LastMessage)
	assert.Zero(t, items[1].UnreadCount)

	t.Run("deleting a private conversation", func(t *testing.T) {
		assert.Equal(t, chat.ErrNotParticipant, f.env.Chat.DeleteConversation(ctx, f.siti.ID, private.ID))
		require.NoError(t, f.env.Chat.DeleteConversation(ctx, f.budi.ID, private.ID))

		items, err := f.env.Chat.ChatList(ctx, f.ahmad.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, group.ID, items[0].ID)
	})
}
