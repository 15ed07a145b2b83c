// Package notifier delivers attendee notifications. The outbound channel is
// the platform's mail relay, which is mocked here: messages are rendered from
// the same templates production would use and handed to the log instead of an
// SMTP connection.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/civicvault/events-api/internal/domain"
)

var (
	registrationSubject = template.Must(template.New("registration_subject").
				Parse(`Registration Confirmed - {{.EventTitle}}`))
	registrationBody = template.Must(template.New("registration_body").
				Parse(`Hi {{.UserName}}, you are registered for {{.EventTitle}} at {{.Location}}. Your registration number is {{.RegistrationNumber}}. Present it (or your QR code) at the check-in desk.`))

	waitlistSubject = template.Must(template.New("waitlist_subject").
			Parse(`A spot opened up for {{.EventTitle}}`))
	waitlistBody = template.Must(template.New("waitlist_body").
			Parse(`Hi {{.UserName}}, a spot for {{.EventTitle}} is now available. Register before {{.ExpiresAt}} to claim it; after that the offer lapses.`))

	thankYouSubject = template.Must(template.New("thank_you_subject").
			Parse(`Thanks for attending {{.EventTitle}}`))
	thankYouBody = template.Must(template.New("thank_you_body").
			Parse(`Hi {{.UserName}}, thank you for attending {{.EventTitle}}. We would love to hear your feedback.`))
)

type templateData struct {
	UserName           string
	EventTitle         string
	Location           string
	RegistrationNumber string
	ExpiresAt          string
}

// EmailNotifier satisfies service.NotificationSender.
type EmailNotifier struct {
	from string
}

func NewEmailNotifier(from string) *EmailNotifier {
	return &EmailNotifier{
		from: from,
	}
}

func (n *EmailNotifier) SendRegistrationConfirmation(ctx context.Context, user domain.User, event domain.Event, reg domain.EventRegistration) error {
	return n.send(ctx, user.Email, registrationSubject, registrationBody, templateData{
		UserName:           user.Name,
		EventTitle:         event.Title,
		Location:           event.Location,
		RegistrationNumber: reg.RegistrationNumber,
	})
}

func (n *EmailNotifier) SendWaitlistOffer(ctx context.Context, entry domain.EventWaitlist, event domain.Event, expiresAt time.Time) error {
	return n.send(ctx, entry.UserEmail, waitlistSubject, waitlistBody, templateData{
		UserName:   entry.UserName,
		EventTitle: event.Title,
		Location:   event.Location,
		ExpiresAt:  expiresAt.Format(time.RFC1123),
	})
}

func (n *EmailNotifier) SendCheckoutThankYou(ctx context.Context, reg domain.EventRegistration, event domain.Event) error {
	return n.send(ctx, reg.UserEmail, thankYouSubject, thankYouBody, templateData{
		UserName:   reg.UserName,
		EventTitle: event.Title,
	})
}

func (n *EmailNotifier) send(_ context.Context, to string, subject, body *template.Template, data templateData) error {
	renderedSubject, err := render(subject, data)
	if err != nil {
		return fmt.Errorf("render subject -> %w", err)
	}

	renderedBody, err := render(body, data)
	if err != nil {
		return fmt.Errorf("render body -> %w", err)
	}

	zap.L().Info("sending email",
		zap.String("from", n.from),
		zap.String("to", to),
		zap.String("subject", renderedSubject),
		zap.String("body", renderedBody))

	return nil
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
