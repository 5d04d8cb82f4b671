package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

// Like list predicates.
const (
	PredicateLiked   = "liked"
	PredicateLikedBy = "likedBy"
	PredicateMutual  = "mutual"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to likes between users.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Exists checks whether source has liked target.
//
// Example:
//
//	repo.Exists(ctx, 1, 2) // -> true if user 1 liked user 2
func (r *LikeRepository) Exists(ctx context.Context, sourceID, targetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("source_user_id = ? AND target_user_id = ?", sourceID, targetID).
		Count(&count).Error
	return count > 0, err
}

// Add inserts the (source, target) like.
//
// Behavior:
//   - The composite PK makes a second insert for the same pair a no-op.
//   - Returns whether a row was actually inserted.
func (r *LikeRepository) Add(ctx context.Context, sourceID, targetID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Like{SourceUserID: sourceID, TargetUserID: targetID})
	return res.RowsAffected > 0, res.Error
}

// Delete removes the (source, target) like. Returns whether a row was removed.
func (r *LikeRepository) Delete(ctx context.Context, sourceID, targetID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("source_user_id = ? AND target_user_id = ?", sourceID, targetID).
		Delete(&db.Like{})
	return res.RowsAffected > 0, res.Error
}

// LikedIDs returns the ids of every user that userID likes.
func (r *LikeRepository) LikedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("source_user_id = ?", userID).
		Order("target_user_id").
		Pluck("target_user_id", &ids).Error
	return ids, err
}

// Members returns one page of users related to userID by predicate.
//
// Behavior:
//   - liked: users userID likes.
//   - likedBy: users who like userID.
//   - mutual: both directions.
//   - Ordered by username; only approved photos are loaded.
//
// Example:
//
//	repo.Members(ctx, 42, repository.PredicateMutual, pagination.Params{PageNumber: 1, PageSize: 10})
func (r *LikeRepository) Members(
	ctx context.Context,
	userID uint64,
	predicate string,
	page pagination.Params,
) ([]db.User, int64, error) {
	likedSub := r.db.Model(&db.Like{}).Select("target_user_id").Where("source_user_id = ?", userID)
	likedBySub := r.db.Model(&db.Like{}).Select("source_user_id").Where("target_user_id = ?", userID)

	query := r.db.WithContext(ctx).Model(&db.User{})
	switch predicate {
	case PredicateLiked:
		query = query.Where("id IN (?)", likedSub)
	case PredicateLikedBy:
		query = query.Where("id IN (?)", likedBySub)
	case PredicateMutual:
		query = query.Where("id IN (?) AND id IN (?)", likedSub, likedBySub)
	default:
		return nil, 0, fmt.Errorf("unknown like predicate %q", predicate)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []db.User
	err := query.
		Preload("Photos", "is_approved = ?", true).
		Order("username").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&users).Error
	return users, total, err
}

// CountLikedBy returns how many users like userID.
// Used in conjunction with Redis cache (DB is fallback).
func (r *LikeRepository) CountLikedBy(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("target_user_id = ?", userID).
		Count(&count).Error
	return count, err
}
