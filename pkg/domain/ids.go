package domain

import (
	"github.com/google/uuid"

	dErrors "ghostpost/pkg/domain-errors"
)

// Typed identifiers prevent a user ID from being passed where a post ID is
// expected. All of them share the same parsing rules.
type (
	UserID uuid.UUID
	PostID uuid.UUID
)

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id PostID) String() string { return uuid.UUID(id).String() }
func (id PostID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseUserID parses a user identifier at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParsePostID parses a post identifier at a trust boundary.
func ParsePostID(s string) (PostID, error) {
	u, err := parseUUID(s, "post_id")
	return PostID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}
