package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventCategory(t *testing.T) {
	assert.Equal(t, CategorySecurity, EventReplayRejected.Category())
	assert.Equal(t, CategorySecurity, EventProofRejected.Category())
	assert.Equal(t, CategoryCompliance, EventPostModerated.Category())
	assert.Equal(t, CategoryOperations, EventProofAccepted.Category())
	assert.Equal(t, CategoryOperations, EventType("unknown").Category())
	assert.Equal(t, CategoryCompliance, Event{Type: EventUserRegistered}.Category())
}
