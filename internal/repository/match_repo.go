package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MatchRow is a precomputed match joined to the target's profile.
type MatchRow struct {
	UserID      uint64
	Username    string
	KnownAs     string
	Gender      string
	City        string
	DateOfBirth datatypes.Date
	Score       float64
	PhotoURL    *string
}

// MatchRepository reads precomputed match scores. Rows are produced
// upstream; nothing here writes them.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// ForUser returns userID's matches, best score first.
//
// Behavior:
//   - gender and city filter on the target user when non-empty; city is
//     compared case-insensitively.
//   - PhotoURL is the target's main photo, nil when there is none.
//   - No matches is an empty slice, not an error.
//
// Example:
//
//	repo.ForUser(ctx, 1, "male", "London")
func (r *MatchRepository) ForUser(ctx context.Context, userID uint64, gender, city string) ([]MatchRow, error) {
	query := r.db.WithContext(ctx).
		Table("matches m").
		Select(`u.id AS user_id, u.username, u.known_as, u.gender, u.city,
			u.date_of_birth, m.score, p.url AS photo_url`).
		Joins("JOIN users u ON u.id = m.target_user_id").
		Joins("LEFT JOIN photos p ON p.user_id = u.id AND p.is_main = ?", true).
		Where("m.source_user_id = ?", userID)

	if gender != "" {
		query = query.Where("u.gender = ?", gender)
	}
	if city != "" {
		query = query.Where("LOWER(u.city) = LOWER(?)", city)
	}

	rows := []MatchRow{}
	err := query.Order("m.score DESC").Order("u.username").Scan(&rows).Error
	return rows, err
}
