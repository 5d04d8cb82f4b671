package admin_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/db/dbtest"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/service/admin"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newService(t *testing.T) (*admin.Service, *gorm.DB, *mockStore) {
	t.Helper()
	gdb := dbtest.Open(t)
	store := &mockStore{}
	return admin.NewAdminService(app.New(gdb, nil, dbtest.DiscardLogger(), store, dbtest.Config())), gdb, store
}

func loadPhoto(t *testing.T, gdb *gorm.DB, id uint64) (db.Photo, bool) {
	t.Helper()
	var p db.Photo
	err := gdb.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, false
	}
	require.NoError(t, err)
	return p, true
}

func TestEditRoles(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	roles, err := svc.EditRoles(ctx, "bob", "member, admin,Admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin", "Member"}, roles)

	_, err = svc.EditRoles(ctx, "bob", " , ")
	assert.ErrorIs(t, err, svcErr.ErrInvalid)

	_, err = svc.EditRoles(ctx, "bob", "Member,Superuser")
	assert.ErrorIs(t, err, svcErr.ErrInvalid)

	_, err = svc.EditRoles(ctx, "ghost", "Member")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	users, err := svc.UsersWithRoles(ctx)
	require.NoError(t, err)
	require.Len(t, users, 5)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, []string{"Admin", "Member"}, users[1].Roles)
}

func TestApprovePhoto_PromotesFirstApprovedToMain(t *testing.T) {
	svc, gdb, _ := newService(t)
	ctx := context.Background()

	// carol has no main photo; her only photo is pending
	require.NoError(t, svc.ApprovePhoto(ctx, 5))
	p, _ := loadPhoto(t, gdb, 5)
	assert.True(t, p.IsApproved)
	assert.True(t, p.IsMain)

	// alice already has a main photo, so approving 3 leaves it alone
	require.NoError(t, svc.ApprovePhoto(ctx, 3))
	p, _ = loadPhoto(t, gdb, 3)
	assert.True(t, p.IsApproved)
	assert.False(t, p.IsMain)

	assert.ErrorIs(t, svc.ApprovePhoto(ctx, 404), svcErr.ErrNotFound)

	pending, err := svc.PhotosForModeration(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRejectPhoto(t *testing.T) {
	svc, gdb, store := newService(t)
	ctx := context.Background()

	store.On("Delete", mock.Anything, "photos/carol/1.jpg").Return(nil).Once()
	require.NoError(t, svc.RejectPhoto(ctx, 5))
	store.AssertExpectations(t)
	_, ok := loadPhoto(t, gdb, 5)
	assert.False(t, ok)

	store.On("Delete", mock.Anything, "photos/alice/3.jpg").Return(errors.New("host down")).Once()
	assert.ErrorIs(t, svc.RejectPhoto(ctx, 3), svcErr.ErrInternal)
	_, ok = loadPhoto(t, gdb, 3)
	assert.True(t, ok, "row stays when the host delete fails")
}

func TestTagCatalogue(t *testing.T) {
	svc, gdb, _ := newService(t)
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, "  pets ")
	require.NoError(t, err)
	assert.Equal(t, "pets", tag.Name)

	_, err = svc.CreateTag(ctx, "Travel")
	assert.ErrorIs(t, err, svcErr.ErrConflict)
	_, err = svc.CreateTag(ctx, "")
	assert.ErrorIs(t, err, svcErr.ErrInvalid)

	require.NoError(t, svc.AddTagToPhoto(ctx, 2, tag.ID))
	require.NoError(t, svc.AddTagToPhoto(ctx, 2, tag.ID), "assigning twice is a no-op")
	assert.ErrorIs(t, svc.AddTagToPhoto(ctx, 2, 99), svcErr.ErrNotFound)
	assert.ErrorIs(t, svc.AddTagToPhoto(ctx, 99, tag.ID), svcErr.ErrNotFound)

	require.NoError(t, svc.RemoveTagFromPhoto(ctx, 2, tag.ID))
	assert.ErrorIs(t, svc.RemoveTagFromPhoto(ctx, 2, tag.ID), svcErr.ErrNotFound)

	require.NoError(t, svc.DeleteTag(ctx, 1))
	assert.ErrorIs(t, svc.DeleteTag(ctx, 1), svcErr.ErrNotFound)

	var joins int64
	require.NoError(t, gdb.Model(&db.PhotoTag{}).Where("tag_id = ?", 1).Count(&joins).Error)
	assert.Zero(t, joins)

	tags, err := svc.Tags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestReports(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	names, err := svc.UsersWithoutMainPhoto(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "erin"}, names)

	stats, err := svc.PhotoApprovalStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 5)
	assert.Equal(t, "alice", stats[0].Username)
	assert.Equal(t, 2, stats[0].ApprovedPhotos)
	assert.Equal(t, 1, stats[0].UnapprovedPhotos)
	assert.Zero(t, stats[4].ApprovedPhotos+stats[4].UnapprovedPhotos)
}
