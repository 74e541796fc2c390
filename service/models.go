package service

import (
	"strings"
	"time"
)

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	PasswordHash      string    `json:"passwordHash"`
	Verified          bool      `json:"verified"`
	VerificationToken string    `json:"verificationToken,omitempty"`
	Favorites         []string  `json:"favorites"`
	CreatedAt         time.Time `json:"createdAt"`
}

// PublicUser is User without credentials.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Verified  bool      `json:"verified"`
	Favorites []string  `json:"favorites"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Public() PublicUser {
	favs := u.Favorites
	if favs == nil {
		favs = []string{}
	}
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Verified:  u.Verified,
		Favorites: favs,
		CreatedAt: u.CreatedAt,
	}
}

// emailIndex maps a normalized email to its user. Creating it is what
// enforces email uniqueness.
type emailIndex struct {
	UserID string `json:"userId"`
}

type Reply struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Replies    []Reply   `json:"replies"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type EventType string

const (
	EventSearch    EventType = "search"
	EventSignView  EventType = "sign_view"
	EventPageView  EventType = "page_view"
	EventTranslate EventType = "translate"
)

func (t EventType) Valid() bool {
	switch t {
	case EventSearch, EventSignView, EventPageView, EventTranslate:
		return true
	}
	return false
}

type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Path      string    `json:"path,omitempty"`
	Query     string    `json:"query,omitempty"`
	SubjectID string    `json:"subjectId,omitempty"`
	At        time.Time `json:"at"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
