package domain

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID               uint        `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Location         string      `json:"location"`
	Capacity         int         `json:"capacity"`
	CurrentAttendees int         `json:"current_attendees"`
	Status           EventStatus `json:"status"`
	OrganizerID      uint        `json:"organizer_id"`
	StartDate        time.Time   `json:"start_date"`
	EndDate          time.Time   `json:"end_date"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// IsOpenForRegistration reports whether the event accepts new registrations.
// Only published events do; draft, ongoing, completed and cancelled events
// reject registration attempts.
func (e Event) IsOpenForRegistration() bool {
	return e.Status == EventStatusPublished
}
