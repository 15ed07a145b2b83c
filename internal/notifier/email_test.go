package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicvault/events-api/internal/domain"
)

func TestEmailNotifier(t *testing.T) {
	n := NewEmailNotifier("events@example.com")

	event := domain.Event{Title: "Community Budget Townhall", Location: "City Hall"}
	user := domain.User{Name: "ana", Email: "ana@example.com"}
	reg := domain.EventRegistration{
		UserName:           "ana",
		UserEmail:          "ana@example.com",
		RegistrationNumber: "EVT5-LX3K9A-7QWD",
	}

	require.NoError(t, n.SendRegistrationConfirmation(context.Background(), user, event, reg))

	entry := domain.EventWaitlist{UserName: "ben", UserEmail: "ben@example.com"}
	require.NoError(t, n.SendWaitlistOffer(context.Background(), entry, event, time.Now().Add(24*time.Hour)))

	require.NoError(t, n.SendCheckoutThankYou(context.Background(), reg, event))
}

func TestRenderTemplates(t *testing.T) {
	data := templateData{
		UserName:           "ana",
		EventTitle:         "Townhall",
		Location:           "City Hall",
		RegistrationNumber: "EVT5-LX3K9A-7QWD",
		ExpiresAt:          "Mon, 01 Sep 2026 12:00:00 UTC",
	}

	subject, err := render(registrationSubject, data)
	require.NoError(t, err)
	assert.Contains(t, subject, "Townhall")

	body, err := render(registrationBody, data)
	require.NoError(t, err)
	assert.Contains(t, body, "EVT5-LX3K9A-7QWD")

	offer, err := render(waitlistBody, data)
	require.NoError(t, err)
	assert.Contains(t, offer, "Mon, 01 Sep 2026")
}
