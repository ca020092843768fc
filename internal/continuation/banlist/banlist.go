// Package banlist decides whether an identity is revoked by the callback board.
package banlist

import "ghostpost/pkg/domain"

// Evaluate reports whether existing and callbacks share at least one ticket.
// Both sides are treated as sets; order and duplicates do not matter. The
// smaller side is hashed and the larger one probed. Which ticket matched is
// deliberately not reported.
func Evaluate(existing, callbacks []domain.Ticket) bool {
	small, large := existing, callbacks
	if len(small) > len(large) {
		small, large = large, small
	}
	if len(small) == 0 {
		return false
	}
	set := make(map[domain.Ticket]struct{}, len(small))
	for _, t := range small {
		set[t] = struct{}{}
	}
	for _, t := range large {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
