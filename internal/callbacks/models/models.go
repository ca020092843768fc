package models

import (
	"time"

	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
)

// Action is what the board asks holders of a ticket to apply to themselves.
type Action string

const (
	ActionBan Action = "ban"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionBan:
		return ActionBan, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported callback action: "+s)
	}
}

// Callback is one entry on the public board.
type Callback struct {
	Ticket    domain.Ticket
	Action    Action
	CreatedAt time.Time
}
