package services

import (
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/yeremiapane/restaurant-floor/apperrors"
	"github.com/yeremiapane/restaurant-floor/models"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()/-]{4,24}$`)

// ozzo-validation v3 reports a failed Required rule with this message.
const blankMessage = "cannot be blank"

type WalkInRequest struct {
	GuestName   string  `json:"guest_name"`
	Phone       string  `json:"phone,omitempty"`
	PartySize   int     `json:"party_size"`
	AreaID      *string `json:"area_id,omitempty"`
	TableNumber *string `json:"table_number,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Date        string  `json:"date,omitempty"`
	Time        string  `json:"time,omitempty"`
}

func (r WalkInRequest) Validate() error {
	r.GuestName = strings.TrimSpace(r.GuestName)
	return validation.ValidateStruct(&r,
		validation.Field(&r.GuestName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Phone, validation.Match(phonePattern)),
		validation.Field(&r.PartySize, validation.Required, validation.Min(1)),
		validation.Field(&r.Date, validation.Date("2006-01-02")),
		validation.Field(&r.Time, validation.Date("15:04")),
	)
}

type PhoneReservationRequest struct {
	GuestName   string        `json:"guest_name"`
	Phone       string        `json:"phone"`
	PartySize   int           `json:"party_size"`
	Date        string        `json:"date,omitempty"`
	Time        string        `json:"time,omitempty"`
	AreaID      *string       `json:"area_id,omitempty"`
	TableNumber *string       `json:"table_number,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Source      models.Source `json:"source,omitempty"`
}

func (r PhoneReservationRequest) Validate() error {
	r.GuestName = strings.TrimSpace(r.GuestName)
	return validation.ValidateStruct(&r,
		validation.Field(&r.GuestName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&r.PartySize, validation.Required, validation.Min(1)),
		validation.Field(&r.Date, validation.Date("2006-01-02")),
		validation.Field(&r.Time, validation.Date("15:04")),
	)
}

type WaitlistRequest struct {
	GuestName string `json:"guest_name"`
	Phone     string `json:"phone"`
	PartySize int    `json:"party_size"`
	Notes     string `json:"notes,omitempty"`
}

func (r WaitlistRequest) Validate() error {
	r.GuestName = strings.TrimSpace(r.GuestName)
	return validation.ValidateStruct(&r,
		validation.Field(&r.GuestName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&r.PartySize, validation.Required, validation.Min(1)),
	)
}

// toValidationError turns ozzo field errors into the first failing field as
// an apperrors.ValidationError, in field name order.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok || len(errs) == 0 {
		return apperrors.NewValidation("request", err.Error(), nil)
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	field := fields[0]
	reason := errs[field].Error()
	var cause error
	if reason == blankMessage {
		cause = apperrors.ErrRequiredField
	}
	return apperrors.NewValidation(field, reason, cause)
}
