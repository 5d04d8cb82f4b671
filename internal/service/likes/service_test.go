package likes_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/db/dbtest"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/service/dto"
	"github.com/oggyb/dating-app/internal/service/likes"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

func newService(t *testing.T) (*likes.Service, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	gdb := dbtest.Open(t)
	rc, mr := dbtest.Redis(t)
	appCtx := app.New(gdb, rc, dbtest.DiscardLogger(), nil, dbtest.Config())
	return likes.NewLikesService(appCtx), gdb, mr
}

func likeRows(t *testing.T, gdb *gorm.DB, source, target uint64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&db.Like{}).
		Where("source_user_id = ? AND target_user_id = ?", source, target).
		Count(&n).Error)
	return n
}

func TestToggleLike_RoundTrip(t *testing.T) {
	svc, gdb, _ := newService(t)
	ctx := context.Background()

	// dave (4) has no like for erin (5)
	liked, err := svc.ToggleLike(ctx, 4, 5)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), likeRows(t, gdb, 4, 5))

	liked, err = svc.ToggleLike(ctx, 4, 5)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, likeRows(t, gdb, 4, 5))

	liked, err = svc.ToggleLike(ctx, 4, 5)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), likeRows(t, gdb, 4, 5))
}

func TestToggleLike_TwiceRestoresExistingLike(t *testing.T) {
	svc, gdb, _ := newService(t)
	ctx := context.Background()

	// bob (2) already likes alice (1)
	_, err := svc.ToggleLike(ctx, 2, 1)
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), likeRows(t, gdb, 2, 1))
}

func TestToggleLike_SelfLikeNeverMutates(t *testing.T) {
	svc, gdb, _ := newService(t)

	var before int64
	require.NoError(t, gdb.Model(&db.Like{}).Count(&before).Error)

	for _, id := range []uint64{1, 2, 3} {
		_, err := svc.ToggleLike(context.Background(), id, id)
		assert.ErrorIs(t, err, svcErr.ErrInvalid)
	}

	var after int64
	require.NoError(t, gdb.Model(&db.Like{}).Count(&after).Error)
	assert.Equal(t, before, after)
}

func TestToggleLike_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.ToggleLike(ctx, 0, 2)
	assert.ErrorIs(t, err, svcErr.ErrInvalid)

	_, err = svc.ToggleLike(ctx, 1, 99)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestToggleLike_AdjustsCachedCount(t *testing.T) {
	svc, _, mr := newService(t)
	ctx := context.Background()

	// fill the cache for alice (liked by bob and carol)
	n, err := svc.CountLikedBy(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.ToggleLike(ctx, 4, 1)
	require.NoError(t, err)
	got, err := mr.Get("likes:count:1")
	require.NoError(t, err)
	assert.Equal(t, "3", got)

	_, err = svc.ToggleLike(ctx, 4, 1)
	require.NoError(t, err)
	got, err = mr.Get("likes:count:1")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	// an uncached target stays uncached
	_, err = svc.ToggleLike(ctx, 4, 5)
	require.NoError(t, err)
	assert.False(t, mr.Exists("likes:count:5"))
}

func TestToggleLike_LostRaceLeavesCachedCount(t *testing.T) {
	svc, gdb, mr := newService(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("likes:count:5", "2"))
	mr.SetTTL("likes:count:5", time.Minute)

	// another request inserts the same like between the existence check and
	// this call's insert
	require.NoError(t, gdb.Callback().Create().Before("gorm:create").
		Register("test:concurrent_like", func(tx *gorm.DB) {
			if tx.Statement.Table != "likes" {
				return
			}
			tx.Session(&gorm.Session{NewDB: true}).Exec(
				"INSERT INTO likes (source_user_id, target_user_id, created_at) VALUES (?, ?, ?)",
				4, 5, time.Now().UTC())
		}))

	liked, err := svc.ToggleLike(ctx, 4, 5)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), likeRows(t, gdb, 4, 5))

	got, err := mr.Get("likes:count:5")
	require.NoError(t, err)
	assert.Equal(t, "2", got, "counter adjusted once, by the call that inserted")
}

func TestCountLikedBy_CacheFirst(t *testing.T) {
	svc, _, mr := newService(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("likes:count:3", "7"))
	mr.SetTTL("likes:count:3", time.Minute)

	n, err := svc.CountLikedBy(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n, "cached value wins over the DB")
	assert.Equal(t, time.Hour, mr.TTL("likes:count:3"), "TTL refreshed on read")

	mr.Del("likes:count:3")
	n, err = svc.CountLikedBy(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, err := mr.Get("likes:count:3")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestCountLikedBy_WithoutRedis(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := likes.NewLikesService(app.New(gdb, nil, dbtest.DiscardLogger(), nil, dbtest.Config()))

	n, err := svc.CountLikedBy(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestGetLikesByPredicate(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	page := pagination.Params{}

	usernames := func(l pagination.PagedList[dto.MemberDTO]) []string {
		out := []string{}
		for _, m := range l.Items {
			out = append(out, m.Username)
		}
		return out
	}

	liked, err := svc.GetLikes(ctx, 1, "liked", page)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, usernames(liked))

	likedBy, err := svc.GetLikes(ctx, 1, "likedBy", page)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, usernames(likedBy))
	assert.Equal(t, 10, likedBy.PageSize)

	mutual, err := svc.GetLikes(ctx, 1, "mutual", page)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, usernames(mutual))

	_, err = svc.GetLikes(ctx, 1, "everyone", page)
	assert.ErrorIs(t, err, svcErr.ErrInvalid)

	ids, err := svc.LikedIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ids)
}
