package db

import (
	"time"

	"gorm.io/datatypes"
)

// Role names stored in user_roles.
const (
	RoleMember    = "Member"
	RoleModerator = "Moderator"
	RoleAdmin     = "Admin"
)

// User is a member profile. Photos and roles are owned and removed with the user.
//
// Indexes:
//   - uniq username: lookups by the token's unique_name claim.
//   - idx_users_gender_dob(gender, date_of_birth): member search filters.
type User struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement"`
	Username     string         `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string         `gorm:"size:255;not null"`
	KnownAs      string         `gorm:"size:64"`
	Gender       string         `gorm:"size:16;not null;index:idx_users_gender_dob,priority:1"`
	DateOfBirth  datatypes.Date `gorm:"not null;index:idx_users_gender_dob,priority:2"`
	City         string         `gorm:"size:100"`
	Country      string         `gorm:"size:100"`
	Introduction string         `gorm:"type:text"`
	Interests    string         `gorm:"type:text"`
	LookingFor   string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	LastActive   time.Time      `gorm:"index"`

	Photos []Photo    `gorm:"constraint:OnDelete:CASCADE"`
	Roles  []UserRole `gorm:"constraint:OnDelete:CASCADE"`
}

// Age returns whole years between the date of birth and now.
func (u *User) Age(now time.Time) int {
	dob := time.Time(u.DateOfBirth)
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// MainPhoto returns the user's main photo, if loaded and present.
func (u *User) MainPhoto() *Photo {
	for i := range u.Photos {
		if u.Photos[i].IsMain {
			return &u.Photos[i]
		}
	}
	return nil
}

// UserRole grants a role to a user. Composite PK: (UserID, Role).
type UserRole struct {
	UserID uint64 `gorm:"primaryKey"`
	Role   string `gorm:"primaryKey;size:32"`
}

// Photo belongs to exactly one user.
//
// IsMain is true for at most one photo per user and only for approved photos.
// PublicID is the object key in the image store.
type Photo struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	URL        string    `gorm:"size:512;not null"`
	PublicID   string    `gorm:"size:255"`
	IsMain     bool      `gorm:"not null"`
	IsApproved bool      `gorm:"not null;index"`
	UserID     uint64    `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	Tags []Tag `gorm:"many2many:photo_tags;constraint:OnDelete:CASCADE"`
}

// Tag is a moderator-managed label attachable to many photos.
type Tag struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;size:50;not null"`
}

// PhotoTag is the photo_tags join row. Composite PK: (PhotoID, TagID).
type PhotoTag struct {
	PhotoID uint64 `gorm:"primaryKey"`
	TagID   uint64 `gorm:"primaryKey;index"`
}

func (PhotoTag) TableName() string { return "photo_tags" }

// Like is a directed "source liked target" edge.
//
// Composite PK: (SourceUserID, TargetUserID)
//   - At most one row per ordered pair, so concurrent toggles cannot duplicate it.
//
// Indexes:
//   - idx_likes_target(target_user_id): "liked by" lists and counts.
type Like struct {
	SourceUserID uint64    `gorm:"primaryKey"`
	TargetUserID uint64    `gorm:"primaryKey;index:idx_likes_target"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// Match is a precomputed compatibility score between two users.
// The application only reads these rows.
type Match struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	SourceUserID uint64  `gorm:"not null;index:idx_matches_source_score,priority:1"`
	TargetUserID uint64  `gorm:"not null;index"`
	Score        float64 `gorm:"not null;index:idx_matches_source_score,priority:2,sort:desc"`
}

// Message is a direct message. Each party hides it independently; the row
// is removed once both have.
type Message struct {
	ID                uint64 `gorm:"primaryKey;autoIncrement"`
	SenderID          uint64 `gorm:"not null;index"`
	SenderUsername    string `gorm:"size:64;not null;index:idx_messages_pair,priority:1"`
	RecipientID       uint64 `gorm:"not null;index"`
	RecipientUsername string `gorm:"size:64;not null;index:idx_messages_pair,priority:2"`
	Content           string `gorm:"type:text;not null"`
	DateRead          *time.Time
	MessageSent       time.Time `gorm:"not null;index"`
	SenderDeleted     bool      `gorm:"not null"`
	RecipientDeleted  bool      `gorm:"not null"`
}
