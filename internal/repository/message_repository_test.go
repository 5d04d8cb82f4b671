package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/db/dbtest"
	"github.com/oggyb/dating-app/internal/repository"
)

func messageIDs(msgs []db.Message) []uint64 {
	out := make([]uint64, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestMessagesForUserContainers(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(dbtest.Open(t))

	inbox, total, err := repo.ForUser(ctx, "alice", repository.ContainerInbox, firstPage)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uint64{4, 2}, messageIDs(inbox))

	outbox, _, err := repo.ForUser(ctx, "alice", repository.ContainerOutbox, firstPage)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, messageIDs(outbox))

	unread, _, err := repo.ForUser(ctx, "bob", "", firstPage)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, messageIDs(unread))
}

func TestThreadBothDirectionsAscending(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(dbtest.Open(t))

	thread, err := repo.Thread(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, messageIDs(thread))

	// alice hides her own first message; bob still sees it
	m, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	m.SenderDeleted = true
	require.NoError(t, repo.SaveDeleteFlags(ctx, m))

	thread, err = repo.Thread(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, messageIDs(thread))

	thread, err = repo.Thread(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, messageIDs(thread))
}

func TestMarkReadAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(dbtest.Open(t))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkRead(ctx, []uint64{1, 2}, at))

	m1, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, m1.DateRead)
	assert.False(t, m1.DateRead.Equal(at), "already read messages keep their timestamp")

	m2, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, m2.DateRead)
	assert.True(t, m2.DateRead.Equal(at))

	require.NoError(t, repo.Delete(ctx, 2))
	_, err = repo.Get(ctx, 2)
	assert.Error(t, err)
}

func TestMatchesForUser(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(dbtest.Open(t))

	rows, err := repo.ForUser(ctx, 1, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "bob", rows[0].Username)
	assert.Equal(t, 0.9, rows[0].Score)
	require.NotNil(t, rows[0].PhotoURL)
	assert.Equal(t, "https://img.test/bob-1.jpg", *rows[0].PhotoURL)
	assert.Nil(t, rows[2].PhotoURL, "carol has no main photo")

	rows, err = repo.ForUser(ctx, 1, "male", "paris")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "dave", rows[0].Username)

	rows, err = repo.ForUser(ctx, 5, "", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUnitOfWorkRollsBack(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	uow := repository.NewUnitOfWork(gdb)

	boom := errors.New("boom")
	err := uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		if _, err := tx.Likes.Add(ctx, 4, 5); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := uow.Likes.Exists(ctx, 4, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		_, err := tx.Likes.Add(ctx, 4, 5)
		return err
	}))
	ok, err = uow.Likes.Exists(ctx, 4, 5)
	require.NoError(t, err)
	assert.True(t, ok)
}
