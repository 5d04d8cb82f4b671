package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

// Member list orderings.
const (
	OrderByLastActive = "lastActive"
	OrderByCreated    = "created"
)

// MemberFilter narrows the member search.
//
// MinDob and MaxDob are inclusive UTC dates.
type MemberFilter struct {
	CurrentUsername string
	Gender          string
	MinDob          time.Time
	MaxDob          time.Time
	OrderBy         string
	Page            pagination.Params
}

// ApprovalStats counts a user's photos by moderation state.
type ApprovalStats struct {
	Username         string `json:"username"`
	ApprovedPhotos   int    `json:"approvedPhotos"`
	UnapprovedPhotos int    `json:"unapprovedPhotos"`
}

// UserRepository provides data access for users and their roles.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID returns gorm.ErrRecordNotFound when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername loads the user with all photos, their tags and roles.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Preload("Photos", func(tx *gorm.DB) *gorm.DB { return tx.Order("photos.id") }).
		Preload("Photos.Tags").
		Preload("Roles").
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with id exists.
func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// GetMembers returns one page of members matching f and the total match count.
//
// Behavior:
//   - Excludes f.CurrentUsername.
//   - Filters by gender when set, and by date of birth in [MinDob, MaxDob].
//   - Orders by created_at DESC for "created", last_active DESC otherwise.
//   - Only approved photos are loaded.
//
// Example:
//
//	repo.GetMembers(ctx, repository.MemberFilter{CurrentUsername: "alice", Gender: "male", ...})
func (r *UserRepository) GetMembers(ctx context.Context, f MemberFilter) ([]db.User, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("username <> ?", f.CurrentUsername).
		Where("date_of_birth >= ? AND date_of_birth <= ?",
			datatypes.Date(f.MinDob), datatypes.Date(f.MaxDob))
	if f.Gender != "" {
		query = query.Where("gender = ?", f.Gender)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "last_active DESC"
	if f.OrderBy == OrderByCreated {
		order = "created_at DESC"
	}

	var users []db.User
	err := query.
		Preload("Photos", "is_approved = ?", true).
		Order(order).
		Order("id").
		Offset(f.Page.Offset()).
		Limit(f.Page.PageSize).
		Find(&users).Error
	return users, total, err
}

// GetMember loads one profile. Unapproved photos are only included when
// includeUnapproved is set, i.e. for the profile owner.
func (r *UserRepository) GetMember(ctx context.Context, username string, includeUnapproved bool) (*db.User, error) {
	photos := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Order("photos.id")
		if !includeUnapproved {
			tx = tx.Where("is_approved = ?", true)
		}
		return tx
	}

	var u db.User
	err := r.db.WithContext(ctx).
		Preload("Photos", photos).
		Preload("Photos.Tags").
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile writes the editable profile fields of u.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).
		Model(&db.User{ID: u.ID}).
		Select("known_as", "introduction", "interests", "looking_for", "city", "country").
		Updates(u).Error
}

// TouchLastActive stamps the user's last activity without bumping updated_at.
func (r *UserRepository) TouchLastActive(ctx context.Context, userID uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_active", at).Error
}

// UsersWithRoles lists every user with roles loaded, ordered by username.
func (r *UserRepository) UsersWithRoles(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Preload("Roles", func(tx *gorm.DB) *gorm.DB { return tx.Order("role") }).
		Order("username").
		Find(&users).Error
	return users, err
}

// Roles returns the role names of userID, sorted.
func (r *UserRepository) Roles(ctx context.Context, userID uint64) ([]string, error) {
	roles := []string{}
	err := r.db.WithContext(ctx).
		Model(&db.UserRole{}).
		Where("user_id = ?", userID).
		Order("role").
		Pluck("role", &roles).Error
	return roles, err
}

// AddRoles grants roles; already granted roles are skipped.
func (r *UserRepository) AddRoles(ctx context.Context, userID uint64, roles ...string) error {
	if len(roles) == 0 {
		return nil
	}
	rows := make([]db.UserRole, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, db.UserRole{UserID: userID, Role: role})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// RemoveRoles revokes roles.
func (r *UserRepository) RemoveRoles(ctx context.Context, userID uint64, roles ...string) error {
	if len(roles) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role IN ?", userID, roles).
		Delete(&db.UserRole{}).Error
}

// UsernamesWithoutMainPhoto lists users that have no main photo.
func (r *UserRepository) UsernamesWithoutMainPhoto(ctx context.Context) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("NOT EXISTS (SELECT 1 FROM photos p WHERE p.user_id = users.id AND p.is_main = ?)", true).
		Order("username").
		Pluck("username", &names).Error
	return names, err
}

// PhotoApprovalStats counts approved and unapproved photos per user.
// Users without photos report zero for both.
func (r *UserRepository) PhotoApprovalStats(ctx context.Context) ([]ApprovalStats, error) {
	stats := []ApprovalStats{}
	err := r.db.WithContext(ctx).
		Table("users u").
		Select(`u.username AS username,
			COALESCE(SUM(CASE WHEN p.is_approved = ? THEN 1 ELSE 0 END), 0) AS approved_photos,
			COALESCE(SUM(CASE WHEN p.is_approved = ? THEN 1 ELSE 0 END), 0) AS unapproved_photos`, true, false).
		Joins("LEFT JOIN photos p ON p.user_id = u.id").
		Group("u.id, u.username").
		Order("u.username").
		Scan(&stats).Error
	return stats, err
}
