package models

import "time"

// Class groups endpoints that share a request budget.
type Class string

const (
	// ClassForum covers the forum routes, login and registration included.
	ClassForum Class = "forum"
	// ClassProof covers enrollment and receipt submission.
	ClassProof Class = "proof"
)

// Policy is the budget of one class: Limit requests per Window for each
// client address. A zero Limit leaves the class unthrottled.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one Allow check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the budget resets, never
// less than one.
func (r *Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Seconds() + 0.999)
	if secs < 1 {
		return 1
	}
	return secs
}
