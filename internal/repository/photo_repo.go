package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/dating-app/internal/db"
)

// PhotoForModeration is a pending photo with its owner's username.
type PhotoForModeration struct {
	ID         uint64 `json:"id"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	IsApproved bool   `json:"isApproved"`
}

// PhotoRepository provides data access for photos and their tags.
type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(database *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: database}
}

// GetByID loads a photo with its tags.
func (r *PhotoRepository) GetByID(ctx context.Context, id uint64) (*db.Photo, error) {
	var p db.Photo
	if err := r.db.WithContext(ctx).Preload("Tags").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Add inserts p. Tags are attached separately with AddTags.
func (r *PhotoRepository) Add(ctx context.Context, p *db.Photo) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// Remove deletes the photo and its tag assignments.
func (r *PhotoRepository) Remove(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Where("photo_id = ?", id).Delete(&db.PhotoTag{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&db.Photo{}, id).Error
}

// Unapproved lists photos waiting for moderation, oldest first.
func (r *PhotoRepository) Unapproved(ctx context.Context) ([]PhotoForModeration, error) {
	photos := []PhotoForModeration{}
	err := r.db.WithContext(ctx).
		Table("photos p").
		Select("p.id, p.url, u.username, p.is_approved").
		Joins("JOIN users u ON u.id = p.user_id").
		Where("p.is_approved = ?", false).
		Order("p.id").
		Scan(&photos).Error
	return photos, err
}

// Approved lists every approved photo with tags.
func (r *PhotoRepository) Approved(ctx context.Context) ([]db.Photo, error) {
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("is_approved = ?", true).
		Order("id").
		Find(&photos).Error
	return photos, err
}

// ByTag lists approved photos carrying tagID.
func (r *PhotoRepository) ByTag(ctx context.Context, tagID uint64) ([]db.Photo, error) {
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("is_approved = ?", true).
		Where("id IN (?)", r.db.Model(&db.PhotoTag{}).Select("photo_id").Where("tag_id = ?", tagID)).
		Order("id").
		Find(&photos).Error
	return photos, err
}

// SetMain makes photoID the only main photo of userID.
//
// Behavior:
//   - Clears is_main on every other photo of the user, then sets it on photoID.
//   - Run inside a UnitOfWork transaction so readers never see two main photos.
func (r *PhotoRepository) SetMain(ctx context.Context, userID, photoID uint64) error {
	err := r.db.WithContext(ctx).
		Model(&db.Photo{}).
		Where("user_id = ? AND id <> ? AND is_main = ?", userID, photoID, true).
		Update("is_main", false).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&db.Photo{}).
		Where("id = ? AND user_id = ?", photoID, userID).
		Update("is_main", true).Error
}

// HasMain reports whether userID has a main photo.
func (r *PhotoRepository) HasMain(ctx context.Context, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Photo{}).
		Where("user_id = ? AND is_main = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}

// Approve marks the photo approved.
func (r *PhotoRepository) Approve(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Photo{}).
		Where("id = ?", id).
		Update("is_approved", true).Error
}

// TagIDs returns the ids of tags assigned to photoID.
func (r *PhotoRepository) TagIDs(ctx context.Context, photoID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Model(&db.PhotoTag{}).
		Where("photo_id = ?", photoID).
		Order("tag_id").
		Pluck("tag_id", &ids).Error
	return ids, err
}

// AddTags assigns tagIDs to photoID.
func (r *PhotoRepository) AddTags(ctx context.Context, photoID uint64, tagIDs ...uint64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]db.PhotoTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, db.PhotoTag{PhotoID: photoID, TagID: id})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// RemoveTag unassigns tagID from photoID. Returns whether a row was removed.
func (r *PhotoRepository) RemoveTag(ctx context.Context, photoID, tagID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("photo_id = ? AND tag_id = ?", photoID, tagID).
		Delete(&db.PhotoTag{})
	return res.RowsAffected > 0, res.Error
}
