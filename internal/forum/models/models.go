package models

import (
	"time"

	"ghostpost/pkg/domain"
)

// User is a forum account. Accounts only gate enrollment; posts are never
// linked to them.
type User struct {
	ID           domain.UserID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Post is an anonymous forum post authorized by a ticket from an accepted
// continuation.
type Post struct {
	ID        domain.PostID
	Content   string
	Ticket    domain.Ticket
	CreatedAt time.Time
}
