package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWaitlist_Eligible(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name  string
		entry EventWaitlist
		want  bool
	}{
		{
			name:  "fresh entry",
			entry: EventWaitlist{Position: 1},
			want:  true,
		},
		{
			name:  "already notified",
			entry: EventWaitlist{Position: 1, Notified: true, ExpiresAt: &future},
			want:  false,
		},
		{
			name:  "offer window still open",
			entry: EventWaitlist{Position: 1, ExpiresAt: &future},
			want:  true,
		},
		{
			name:  "offer window lapsed",
			entry: EventWaitlist{Position: 1, ExpiresAt: &past},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Eligible(now))
		})
	}
}

func TestNextEligible(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	t.Run("empty waitlist", func(t *testing.T) {
		assert.Nil(t, NextEligible(nil, now))
	})

	t.Run("skips notified entries", func(t *testing.T) {
		entries := []EventWaitlist{
			{ID: 1, UserID: 10, Position: 1, Notified: true, ExpiresAt: &future},
			{ID: 2, UserID: 20, Position: 2},
			{ID: 3, UserID: 30, Position: 3},
		}

		next := NextEligible(entries, now)
		require.NotNil(t, next)
		assert.Equal(t, uint(20), next.UserID)
	})

	t.Run("everyone already notified", func(t *testing.T) {
		entries := []EventWaitlist{
			{ID: 1, Position: 1, Notified: true},
			{ID: 2, Position: 2, Notified: true},
		}

		assert.Nil(t, NextEligible(entries, now))
	})
}

func TestEventRegistration_CanCancel(t *testing.T) {
	tests := []struct {
		status RegistrationStatus
		want   bool
	}{
		{RegistrationStatusRegistered, true},
		{RegistrationStatusCheckedIn, true},
		{RegistrationStatusCheckedOut, false},
		{RegistrationStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			reg := EventRegistration{Status: tt.status}
			assert.Equal(t, tt.want, reg.CanCancel())
		})
	}
}

func TestFeedbackPolicy_Allows(t *testing.T) {
	registered := EventRegistration{Status: RegistrationStatusRegistered}
	checkedIn := EventRegistration{Status: RegistrationStatusCheckedIn}
	checkedOut := EventRegistration{Status: RegistrationStatusCheckedOut}

	assert.True(t, FeedbackPolicyAnyRegistration.Allows(registered))
	assert.True(t, FeedbackPolicyAnyRegistration.Allows(checkedIn))

	assert.False(t, FeedbackPolicyAttended.Allows(registered))
	assert.True(t, FeedbackPolicyAttended.Allows(checkedIn))
	assert.True(t, FeedbackPolicyAttended.Allows(checkedOut))
}
