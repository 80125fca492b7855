package domain

import "time"

type User struct {
	ID         string
	ProviderID string // Google subject
	Email      string
	Name       string
	AvatarURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Identity is the profile handed back by the identity provider after a
// successful code exchange.
type Identity struct {
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
