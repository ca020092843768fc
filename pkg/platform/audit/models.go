package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers moderation and account lifecycle.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers rejected proofs and replays.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine protocol traffic.
	CategoryOperations EventCategory = "operations"
)

type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventIdentityEnrolled   EventType = "identity_enrolled"
	EventProofAccepted      EventType = "proof_accepted"
	EventProofRejected      EventType = "proof_rejected"
	EventReplayRejected     EventType = "replay_rejected"
	EventCallbackRegistered EventType = "callback_registered"
	EventPostCreated        EventType = "post_created"
	EventPostModerated      EventType = "post_moderated"
)

var eventCategories = map[EventType]EventCategory{
	EventUserRegistered:     CategoryCompliance,
	EventPostModerated:      CategoryCompliance,
	EventCallbackRegistered: CategoryCompliance,

	EventProofRejected:  CategorySecurity,
	EventReplayRejected: CategorySecurity,

	EventIdentityEnrolled: CategoryOperations,
	EventProofAccepted:    CategoryOperations,
	EventPostCreated:      CategoryOperations,
}

// Category returns the EventCategory for this event type.
// Unknown types default to CategoryOperations.
func (e EventType) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from services to capture key actions. It never carries
// private protocol state: only values that are already public (commitments,
// revealed tickets, replay nonces) appear in Subject or Ticket.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Actor is the forum user or "moderator"; empty for anonymous proof traffic.
	Actor     string `json:"actor,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Ticket    string `json:"ticket,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Category is shorthand for e.Type.Category().
func (e Event) Category() EventCategory {
	return e.Type.Category()
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListAll(ctx context.Context) ([]Event, error)
}

// Sink forwards events to an external system after they are stored.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
