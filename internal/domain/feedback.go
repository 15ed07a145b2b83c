package domain

import "time"

type EventFeedback struct {
	ID                 uint      `json:"id"`
	EventID            uint      `json:"event_id"`
	UserID             uint      `json:"user_id"`
	UserName           string    `json:"user_name"`
	OverallRating      int       `json:"overall_rating"`
	SpeakerRating      int       `json:"speaker_rating,omitempty"`
	VenueRating        int       `json:"venue_rating,omitempty"`
	OrganizationRating int       `json:"organization_rating,omitempty"`
	Comments           string    `json:"comments,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// FeedbackPolicy decides which registrations make their holder eligible to
// leave feedback for an event.
type FeedbackPolicy string

const (
	// FeedbackPolicyAnyRegistration allows feedback from anyone holding a
	// registration record of any status, matching the historical behavior.
	FeedbackPolicyAnyRegistration FeedbackPolicy = "any"

	// FeedbackPolicyAttended restricts feedback to attendees who checked in.
	FeedbackPolicyAttended FeedbackPolicy = "attended"
)

// Allows reports whether a registration satisfies the policy.
func (p FeedbackPolicy) Allows(reg EventRegistration) bool {
	if p == FeedbackPolicyAttended {
		return reg.Status == RegistrationStatusCheckedIn || reg.Status == RegistrationStatusCheckedOut
	}

	return true
}
