package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/dating-app/internal/db"
)

// TagRepository provides data access for tags.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(database *gorm.DB) *TagRepository {
	return &TagRepository{db: database}
}

// All lists tags by name.
func (r *TagRepository) All(ctx context.Context) ([]db.Tag, error) {
	tags := []db.Tag{}
	err := r.db.WithContext(ctx).Order("name").Find(&tags).Error
	return tags, err
}

func (r *TagRepository) GetByID(ctx context.Context, id uint64) (*db.Tag, error) {
	var t db.Tag
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ExistsByName matches case-insensitively.
func (r *TagRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Tag{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error
	return count > 0, err
}

// ExistingIDs returns the subset of ids that exist.
func (r *TagRepository) ExistingIDs(ctx context.Context, ids []uint64) ([]uint64, error) {
	found := []uint64{}
	if len(ids) == 0 {
		return found, nil
	}
	err := r.db.WithContext(ctx).
		Model(&db.Tag{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	return found, err
}

// Add inserts t. A duplicate name surfaces as gorm.ErrDuplicatedKey.
func (r *TagRepository) Add(ctx context.Context, t *db.Tag) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// Remove deletes the tag and every photo assignment of it.
// Returns whether the tag existed.
func (r *TagRepository) Remove(ctx context.Context, id uint64) (bool, error) {
	if err := r.db.WithContext(ctx).Where("tag_id = ?", id).Delete(&db.PhotoTag{}).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Delete(&db.Tag{}, id)
	return res.RowsAffected > 0, res.Error
}
