package messages_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/db/dbtest"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/service/dto"
	"github.com/oggyb/dating-app/internal/service/messages"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

func newService(t *testing.T) (*messages.Service, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	return messages.NewMessagesService(app.New(gdb, nil, dbtest.DiscardLogger(), nil, dbtest.Config())), gdb
}

func ids(msgs []dto.MessageDTO) []uint64 {
	out := make([]uint64, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func loadMessage(t *testing.T, gdb *gorm.DB, id uint64) (db.Message, bool) {
	t.Helper()
	var m db.Message
	err := gdb.First(&m, id).Error
	if err == gorm.ErrRecordNotFound {
		return m, false
	}
	require.NoError(t, err)
	return m, true
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	msg, err := svc.Create(ctx, "dave", messages.CreateMessage{RecipientUsername: "Erin", Content: "hey"})
	require.NoError(t, err)
	assert.Equal(t, "erin", msg.RecipientUsername)
	assert.Equal(t, uint64(5), msg.RecipientID)
	assert.Nil(t, msg.DateRead)

	_, err = svc.Create(ctx, "dave", messages.CreateMessage{RecipientUsername: "dave", Content: "me"})
	assert.ErrorIs(t, err, svcErr.ErrInvalid)

	_, err = svc.Create(ctx, "dave", messages.CreateMessage{RecipientUsername: "erin", Content: "  "})
	assert.ErrorIs(t, err, svcErr.ErrInvalid)

	_, err = svc.Create(ctx, "dave", messages.CreateMessage{RecipientUsername: "ghost", Content: "hi"})
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestForUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	inbox, err := svc.ForUser(ctx, "alice", "Inbox", pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 2}, ids(inbox.Items))
	assert.Equal(t, int64(2), inbox.TotalCount)

	_, err = svc.ForUser(ctx, "alice", "Spam", pagination.Params{})
	assert.ErrorIs(t, err, svcErr.ErrInvalid)
}

func TestThread_MarksIncomingRead(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()

	thread, err := svc.Thread(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids(thread))
	for i := 1; i < len(thread); i++ {
		assert.False(t, thread[i].MessageSent.Before(thread[i-1].MessageSent))
	}

	// message 2 (bob -> alice) is now read; 3 (alice -> bob) is still unread for bob
	m2, _ := loadMessage(t, gdb, 2)
	assert.NotNil(t, m2.DateRead)
	assert.NotNil(t, thread[1].DateRead)
	m3, _ := loadMessage(t, gdb, 3)
	assert.Nil(t, m3.DateRead)
}

func TestDelete_PerPartyThenPhysical(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "alice", 3))
	m, ok := loadMessage(t, gdb, 3)
	require.True(t, ok)
	assert.True(t, m.SenderDeleted)
	assert.False(t, m.RecipientDeleted)

	// alice no longer sees it, bob still does
	thread, err := svc.Thread(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.NotContains(t, ids(thread), uint64(3))
	thread, err = svc.Thread(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Contains(t, ids(thread), uint64(3))

	// deleting again from the same side changes nothing
	require.NoError(t, svc.Delete(ctx, "alice", 3))
	_, ok = loadMessage(t, gdb, 3)
	require.True(t, ok)

	require.NoError(t, svc.Delete(ctx, "bob", 3))
	_, ok = loadMessage(t, gdb, 3)
	assert.False(t, ok)
}

func TestThreadAndDelete_UsernamesIgnoreCase(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()

	thread, err := svc.Thread(ctx, "Alice", "BOB")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids(thread))
	m2, _ := loadMessage(t, gdb, 2)
	assert.NotNil(t, m2.DateRead)

	require.NoError(t, svc.Delete(ctx, "Alice", 4))
	m4, ok := loadMessage(t, gdb, 4)
	require.True(t, ok)
	assert.True(t, m4.RecipientDeleted)
	assert.False(t, m4.SenderDeleted)
}

func TestDelete_OnlyParticipants(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "carol", 1), svcErr.ErrForbidden)
	m, ok := loadMessage(t, gdb, 1)
	require.True(t, ok)
	assert.False(t, m.SenderDeleted)
	assert.False(t, m.RecipientDeleted)

	assert.ErrorIs(t, svc.Delete(ctx, "alice", 999), svcErr.ErrNotFound)
}
