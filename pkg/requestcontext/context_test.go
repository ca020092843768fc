package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "ghostpost/pkg/domain"
)

func TestAccessorsDefaultWhenUnset(t *testing.T) {
	ctx := context.Background()
	assert.True(t, UserID(ctx).IsNil())
	assert.Empty(t, Username(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsRoundTrip(t *testing.T) {
	userID := id.UserID(uuid.New())
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ctx := WithUserID(context.Background(), userID)
	ctx = WithUsername(ctx, "alice")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, userID, UserID(ctx))
	assert.Equal(t, "alice", Username(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
