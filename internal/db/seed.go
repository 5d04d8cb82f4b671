package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedTables lists tables in child-to-parent order so deletes never trip FKs.
var seedTables = []string{"messages", "matches", "likes", "photo_tags", "tags", "photos", "user_roles", "users"}

func clearTables(db *gorm.DB) error {
	for _, table := range seedTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range seedTables {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, table := range seedTables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}
	return nil
}

// DateOfBirthForAge returns a UTC date making someone exactly age years old
// today, with their birthday daysAgo days in the past.
func DateOfBirthForAge(now time.Time, age, daysAgo int) datatypes.Date {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return datatypes.Date(today.AddDate(-age, 0, -daysAgo))
}

var (
	seedCities  = []string{"London", "Paris", "Berlin", "Lisbon", "Dublin"}
	seedCountry = map[string]string{
		"London": "United Kingdom",
		"Paris":  "France",
		"Berlin": "Germany",
		"Lisbon": "Portugal",
		"Dublin": "Ireland",
	}
)

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 users (10 male, 10 female) aged 18-60 with hashed passwords.
//     user1 is Admin, user2 is Moderator, everybody is Member.
//  3. Gives each user an approved main photo and an unapproved extra photo.
//  4. Creates ~120 likes, a few messages, and a match row for every
//     opposite-gender pair with a random score.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()

	if err := clearTables(db); err != nil {
		return err
	}
	log.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("Pa$$w0rd"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tags := []Tag{{Name: "outdoors"}, {Name: "travel"}, {Name: "pets"}, {Name: "food"}}
	if err := db.Create(&tags).Error; err != nil {
		return fmt.Errorf("failed to seed tags: %w", err)
	}

	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := "male"
		if i > 10 {
			gender = "female"
		}
		city := seedCities[r.Intn(len(seedCities))]
		username := fmt.Sprintf("user%d", i)

		roles := []UserRole{{Role: RoleMember}}
		switch i {
		case 1:
			roles = append(roles, UserRole{Role: RoleAdmin})
		case 2:
			roles = append(roles, UserRole{Role: RoleModerator})
		}

		users = append(users, User{
			Username:     username,
			PasswordHash: string(hash),
			KnownAs:      fmt.Sprintf("User %d", i),
			Gender:       gender,
			DateOfBirth:  DateOfBirthForAge(now, 18+r.Intn(43), r.Intn(365)),
			City:         city,
			Country:      seedCountry[city],
			Introduction: "Hi, I am " + username,
			Interests:    "music, hiking",
			LookingFor:   "someone fun",
			LastActive:   now.Add(-time.Duration(r.Intn(500)) * time.Hour),
			Roles:        roles,
			Photos: []Photo{
				{
					URL:        fmt.Sprintf("https://randomuser.me/api/portraits/%s/%d.jpg", portraitDir(gender), i),
					IsMain:     true,
					IsApproved: true,
					Tags:       []Tag{tags[r.Intn(len(tags))]},
				},
				{
					URL: fmt.Sprintf("https://randomuser.me/api/portraits/%s/%d.jpg", portraitDir(gender), i+50),
				},
			},
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Info("seeded users", "count", len(users))

	likes := 0
	for _, source := range users {
		for j := 0; j < 6; j++ {
			target := users[r.Intn(len(users))]
			if target.ID == source.ID {
				continue
			}
			res := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&Like{SourceUserID: source.ID, TargetUserID: target.ID})
			if res.Error != nil {
				return fmt.Errorf("failed to seed like: %w", res.Error)
			}
			likes += int(res.RowsAffected)
		}
	}
	log.Info("seeded likes", "count", likes)

	var matches []Match
	for _, a := range users {
		for _, b := range users {
			if a.ID == b.ID || a.Gender == b.Gender {
				continue
			}
			matches = append(matches, Match{
				SourceUserID: a.ID,
				TargetUserID: b.ID,
				Score:        float64(r.Intn(1000)) / 1000,
			})
		}
	}
	if err := db.CreateInBatches(&matches, 100).Error; err != nil {
		return fmt.Errorf("failed to seed matches: %w", err)
	}
	log.Info("seeded matches", "count", len(matches))

	for i := 0; i < 10; i++ {
		sender, recipient := users[i], users[19-i]
		msg := Message{
			SenderID:          sender.ID,
			SenderUsername:    sender.Username,
			RecipientID:       recipient.ID,
			RecipientUsername: recipient.Username,
			Content:           fmt.Sprintf("Hello %s!", recipient.KnownAs),
			MessageSent:       now.Add(-time.Duration(10-i) * time.Hour),
		}
		if err := db.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to seed message: %w", err)
		}
	}
	log.Info("seeded messages", "count", 10)

	return nil
}

func portraitDir(gender string) string {
	if gender == "female" {
		return "women"
	}
	return "men"
}

// SeedMinimalTestData wipes the DB and inserts a small deterministic dataset.
//
// Users (ages relative to today):
//   - 1 alice  female 27 London  Member, Admin
//   - 2 bob    male   28 London  Member, Moderator
//   - 3 carol  female 31 Paris   Member
//   - 4 dave   male   25 Paris   Member
//   - 5 erin   female 40 London  Member
//
// Photos: alice 1 (main, approved, tag outdoors), 2 (approved), 3 (unapproved);
// bob 4 (main, approved); carol 5 (unapproved); dave 6 (main, approved).
// Tags: 1 outdoors, 2 travel.
// Likes: bob→alice, alice→carol, carol→alice.
// Matches: alice→bob 0.9, alice→dave 0.7, alice→carol 0.5, bob→alice 0.9.
// Messages: 1 alice→bob (read), 2 bob→alice, 3 alice→bob, 4 carol→alice.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := clearTables(db); err != nil {
		return err
	}
	now := time.Now().UTC()

	users := []User{
		{ID: 1, Username: "alice", PasswordHash: "x", KnownAs: "Alice", Gender: "female", City: "London", Country: "United Kingdom",
			DateOfBirth: DateOfBirthForAge(now, 27, 10), LastActive: now.Add(-1 * time.Hour), CreatedAt: now.Add(-50 * time.Hour)},
		{ID: 2, Username: "bob", PasswordHash: "x", KnownAs: "Bob", Gender: "male", City: "London", Country: "United Kingdom",
			DateOfBirth: DateOfBirthForAge(now, 28, 10), LastActive: now.Add(-2 * time.Hour), CreatedAt: now.Add(-40 * time.Hour)},
		{ID: 3, Username: "carol", PasswordHash: "x", KnownAs: "Carol", Gender: "female", City: "Paris", Country: "France",
			DateOfBirth: DateOfBirthForAge(now, 31, 10), LastActive: now.Add(-3 * time.Hour), CreatedAt: now.Add(-30 * time.Hour)},
		{ID: 4, Username: "dave", PasswordHash: "x", KnownAs: "Dave", Gender: "male", City: "Paris", Country: "France",
			DateOfBirth: DateOfBirthForAge(now, 25, 10), LastActive: now.Add(-4 * time.Hour), CreatedAt: now.Add(-20 * time.Hour)},
		{ID: 5, Username: "erin", PasswordHash: "x", KnownAs: "Erin", Gender: "female", City: "London", Country: "United Kingdom",
			DateOfBirth: DateOfBirthForAge(now, 40, 10), LastActive: now.Add(-5 * time.Hour), CreatedAt: now.Add(-10 * time.Hour)},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	roles := []UserRole{
		{UserID: 1, Role: RoleMember}, {UserID: 1, Role: RoleAdmin},
		{UserID: 2, Role: RoleMember}, {UserID: 2, Role: RoleModerator},
		{UserID: 3, Role: RoleMember}, {UserID: 4, Role: RoleMember}, {UserID: 5, Role: RoleMember},
	}
	if err := db.Create(&roles).Error; err != nil {
		return err
	}

	tags := []Tag{{ID: 1, Name: "outdoors"}, {ID: 2, Name: "travel"}}
	if err := db.Create(&tags).Error; err != nil {
		return err
	}

	photos := []Photo{
		{ID: 1, URL: "https://img.test/alice-1.jpg", PublicID: "photos/alice/1.jpg", IsMain: true, IsApproved: true, UserID: 1},
		{ID: 2, URL: "https://img.test/alice-2.jpg", PublicID: "photos/alice/2.jpg", IsApproved: true, UserID: 1},
		{ID: 3, URL: "https://img.test/alice-3.jpg", PublicID: "photos/alice/3.jpg", UserID: 1},
		{ID: 4, URL: "https://img.test/bob-1.jpg", PublicID: "photos/bob/1.jpg", IsMain: true, IsApproved: true, UserID: 2},
		{ID: 5, URL: "https://img.test/carol-1.jpg", PublicID: "photos/carol/1.jpg", UserID: 3},
		{ID: 6, URL: "https://img.test/dave-1.jpg", PublicID: "photos/dave/1.jpg", IsMain: true, IsApproved: true, UserID: 4},
	}
	if err := db.Omit("Tags").Create(&photos).Error; err != nil {
		return err
	}
	if err := db.Create(&PhotoTag{PhotoID: 1, TagID: 1}).Error; err != nil {
		return err
	}

	likes := []Like{
		{SourceUserID: 2, TargetUserID: 1},
		{SourceUserID: 1, TargetUserID: 3},
		{SourceUserID: 3, TargetUserID: 1},
	}
	if err := db.Create(&likes).Error; err != nil {
		return err
	}

	matches := []Match{
		{SourceUserID: 1, TargetUserID: 2, Score: 0.9},
		{SourceUserID: 1, TargetUserID: 4, Score: 0.7},
		{SourceUserID: 1, TargetUserID: 3, Score: 0.5},
		{SourceUserID: 2, TargetUserID: 1, Score: 0.9},
	}
	if err := db.Create(&matches).Error; err != nil {
		return err
	}

	base := now.Add(-time.Hour).Truncate(time.Millisecond)
	read := base.Add(30 * time.Second)
	messages := []Message{
		{ID: 1, SenderID: 1, SenderUsername: "alice", RecipientID: 2, RecipientUsername: "bob", Content: "hi bob", MessageSent: base, DateRead: &read},
		{ID: 2, SenderID: 2, SenderUsername: "bob", RecipientID: 1, RecipientUsername: "alice", Content: "hi alice", MessageSent: base.Add(time.Minute)},
		{ID: 3, SenderID: 1, SenderUsername: "alice", RecipientID: 2, RecipientUsername: "bob", Content: "how are you?", MessageSent: base.Add(2 * time.Minute)},
		{ID: 4, SenderID: 3, SenderUsername: "carol", RecipientID: 1, RecipientUsername: "alice", Content: "hello", MessageSent: base.Add(3 * time.Minute)},
	}
	return db.Create(&messages).Error
}
