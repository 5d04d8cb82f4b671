// Package dto holds the JSON shapes returned by the services.
package dto

import (
	"time"

	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/repository"
)

type TagDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type PhotoDTO struct {
	ID         uint64   `json:"id"`
	URL        string   `json:"url"`
	IsMain     bool     `json:"isMain"`
	IsApproved bool     `json:"isApproved"`
	Tags       []TagDTO `json:"tags"`
}

type MemberDTO struct {
	ID           uint64     `json:"id"`
	Username     string     `json:"username"`
	Age          int        `json:"age"`
	PhotoURL     string     `json:"photoUrl,omitempty"`
	KnownAs      string     `json:"knownAs"`
	Created      time.Time  `json:"created"`
	LastActive   time.Time  `json:"lastActive"`
	Gender       string     `json:"gender"`
	Introduction string     `json:"introduction,omitempty"`
	Interests    string     `json:"interests,omitempty"`
	LookingFor   string     `json:"lookingFor,omitempty"`
	City         string     `json:"city"`
	Country      string     `json:"country"`
	Photos       []PhotoDTO `json:"photos"`
}

type MessageDTO struct {
	ID                uint64     `json:"id"`
	SenderID          uint64     `json:"senderId"`
	SenderUsername    string     `json:"senderUsername"`
	RecipientID       uint64     `json:"recipientId"`
	RecipientUsername string     `json:"recipientUsername"`
	Content           string     `json:"content"`
	DateRead          *time.Time `json:"dateRead,omitempty"`
	MessageSent       time.Time  `json:"messageSent"`
}

type MatchDTO struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
	PhotoURL string  `json:"photoUrl,omitempty"`
	Age      int     `json:"age"`
	KnownAs  string  `json:"knownAs"`
	City     string  `json:"city"`
}

type UserRolesDTO struct {
	ID       uint64   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func Tag(t db.Tag) TagDTO {
	return TagDTO{ID: t.ID, Name: t.Name}
}

func Tags(tags []db.Tag) []TagDTO {
	out := make([]TagDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, Tag(t))
	}
	return out
}

func Photo(p db.Photo) PhotoDTO {
	return PhotoDTO{
		ID:         p.ID,
		URL:        p.URL,
		IsMain:     p.IsMain,
		IsApproved: p.IsApproved,
		Tags:       Tags(p.Tags),
	}
}

func Photos(photos []db.Photo) []PhotoDTO {
	out := make([]PhotoDTO, 0, len(photos))
	for _, p := range photos {
		out = append(out, Photo(p))
	}
	return out
}

// Member maps a user with its loaded photos. now fixes the age reference.
func Member(u db.User, now time.Time) MemberDTO {
	m := MemberDTO{
		ID:           u.ID,
		Username:     u.Username,
		Age:          u.Age(now),
		KnownAs:      u.KnownAs,
		Created:      u.CreatedAt,
		LastActive:   u.LastActive,
		Gender:       u.Gender,
		Introduction: u.Introduction,
		Interests:    u.Interests,
		LookingFor:   u.LookingFor,
		City:         u.City,
		Country:      u.Country,
		Photos:       Photos(u.Photos),
	}
	if main := u.MainPhoto(); main != nil {
		m.PhotoURL = main.URL
	}
	return m
}

func Message(m db.Message) MessageDTO {
	return MessageDTO{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientUsername,
		Content:           m.Content,
		DateRead:          m.DateRead,
		MessageSent:       m.MessageSent,
	}
}

func Match(r repository.MatchRow, now time.Time) MatchDTO {
	u := db.User{DateOfBirth: r.DateOfBirth}
	m := MatchDTO{
		Username: r.Username,
		Score:    r.Score,
		Age:      u.Age(now),
		KnownAs:  r.KnownAs,
		City:     r.City,
	}
	if r.PhotoURL != nil {
		m.PhotoURL = *r.PhotoURL
	}
	return m
}

func UserRoles(u db.User) UserRolesDTO {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Role)
	}
	return UserRolesDTO{ID: u.ID, Username: u.Username, Roles: roles}
}
