package domain

import "time"

type EventWaitlist struct {
	ID        uint       `json:"id"`
	EventID   uint       `json:"event_id"`
	UserID    uint       `json:"user_id"`
	UserName  string     `json:"user_name"`
	UserEmail string     `json:"user_email"`
	Position  int        `json:"position"`
	Notified  bool       `json:"notified"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Eligible reports whether the entry may still be offered a slot: it has not
// been notified yet and any previous offer window has not lapsed.
func (w EventWaitlist) Eligible(now time.Time) bool {
	if w.Notified {
		return false
	}
	return w.ExpiresAt == nil || w.ExpiresAt.After(now)
}

// NextEligible returns the first entry, in position order, that can be offered
// a freed slot. Entries must already be sorted by position ascending, which is
// how the repository lists them. Returns nil when nobody is waiting.
func NextEligible(entries []EventWaitlist, now time.Time) *EventWaitlist {
	for i := range entries {
		if entries[i].Eligible(now) {
			return &entries[i]
		}
	}

	return nil
}
