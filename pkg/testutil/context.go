package testutil

import (
	"net/http"

	id "ghostpost/pkg/domain"
	"ghostpost/pkg/requestcontext"
)

// WithUser adds an authenticated forum user to the request context, as the
// auth middleware would.
func WithUser(req *http.Request, userID id.UserID, username string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithUsername(ctx, username)
	return req.WithContext(ctx)
}
