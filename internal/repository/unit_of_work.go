package repository

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork groups the repositories over one session and commits them
// together.
type UnitOfWork struct {
	db *gorm.DB

	Users    *UserRepository
	Photos   *PhotoRepository
	Tags     *TagRepository
	Likes    *LikeRepository
	Messages *MessageRepository
	Matches  *MatchRepository
}

// NewUnitOfWork binds every repository to database.
func NewUnitOfWork(database *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:       database,
		Users:    NewUserRepository(database),
		Photos:   NewPhotoRepository(database),
		Tags:     NewTagRepository(database),
		Likes:    NewLikeRepository(database),
		Messages: NewMessageRepository(database),
		Matches:  NewMatchRepository(database),
	}
}

// Do runs fn inside one transaction. fn receives a UnitOfWork whose
// repositories all use that transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
//
// Example:
//
//	err := uow.Do(ctx, func(tx *repository.UnitOfWork) error {
//		if _, err := tx.Likes.Add(ctx, 1, 2); err != nil {
//			return err
//		}
//		return nil
//	})
func (u *UnitOfWork) Do(ctx context.Context, fn func(tx *UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnitOfWork(tx))
	})
}
