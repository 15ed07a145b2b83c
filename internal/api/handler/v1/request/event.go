package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	errMissingCheckInCode = errors.New("registration number or QR data required")
	errInvalidDateRange   = errors.New("start date must precede end date")
)

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status"`
	StartDate   string `json:"start_date" format:"RFC3339"`
	EndDate     string `json:"end_date" format:"RFC3339"`

	start time.Time
	end   time.Time
}

func (req *CreateEventRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Location, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&req.Status, validation.In("draft", "published")),
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
	)
	if err != nil {
		return err
	}

	req.start, err = time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return err
	}
	req.end, err = time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return err
	}

	if !req.start.Before(req.end) {
		return errInvalidDateRange
	}

	return nil
}

// Dates returns the parsed date range. Only meaningful after Validate has
// succeeded.
func (req *CreateEventRequest) Dates() (start, end time.Time) {
	return req.start, req.end
}

// CheckInRequest carries either a typed-in registration number or the raw
// payload of a scanned QR code.
type CheckInRequest struct {
	RegistrationNumber string `json:"registration_number"`
	QRData             string `json:"qr_data"`
}

func (req *CheckInRequest) Validate() error {
	if req.RegistrationNumber == "" && req.QRData == "" {
		return errMissingCheckInCode
	}

	return nil
}

// Code returns the input to resolve the registration with. The QR payload
// wins when both are present, matching what a scanner-driven desk sends.
func (req *CheckInRequest) Code() string {
	if req.QRData != "" {
		return req.QRData
	}

	return req.RegistrationNumber
}

type SubmitFeedbackRequest struct {
	OverallRating      int    `json:"overall_rating"`
	SpeakerRating      int    `json:"speaker_rating"`
	VenueRating        int    `json:"venue_rating"`
	OrganizationRating int    `json:"organization_rating"`
	Comments           string `json:"comments"`
}

func (req *SubmitFeedbackRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.OverallRating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&req.SpeakerRating, validation.Min(0), validation.Max(5)),
		validation.Field(&req.VenueRating, validation.Min(0), validation.Max(5)),
		validation.Field(&req.OrganizationRating, validation.Min(0), validation.Max(5)),
		validation.Field(&req.Comments, validation.Length(0, 2000)),
	)
}
