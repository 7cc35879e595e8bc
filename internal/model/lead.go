package model

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// Contact types
const (
	ContactEmail = "email"
	ContactPhone = "phone"
)

// Meeting types offered when booking an appointment
var MeetingTypes = []string{"Video Call", "Phone Call", "In-Person"}

// TimeSlots offered for appointments, hourly from 9 AM to 5 PM
var TimeSlots = []string{
	"09:00 AM", "10:00 AM", "11:00 AM",
	"12:00 PM", "01:00 PM", "02:00 PM",
	"03:00 PM", "04:00 PM", "05:00 PM",
}

const (
	maxAppointmentNotes   = 500
	appointmentWindowDays = 30
)

// Lead is a captured prospect. Its ID is the stable user identity for the conversation.
type Lead struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Contact     string    `json:"contact" db:"contact"`
	ContactType string    `json:"contact_type" db:"contact_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Appointment is a meeting booked by a lead with an agent
type Appointment struct {
	ID          string    `json:"id" db:"id"`
	LeadID      string    `json:"lead_id" db:"lead_id"`
	Date        time.Time `json:"date" db:"date"`
	TimeSlot    string    `json:"time_slot" db:"time_slot"`
	MeetingType string    `json:"meeting_type" db:"meeting_type"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	Skipped     bool      `json:"skipped" db:"skipped"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ValidateEmail performs a basic email check
func ValidateEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	if i := strings.Index(domain, "@"); i >= 0 {
		domain = domain[:i]
	}
	return strings.Contains(domain, ".")
}

// ValidatePhone requires at least 10 digits
func ValidatePhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}

// Validate checks a lead request and normalizes the contact type
func (r *LeadRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Contact = strings.TrimSpace(r.Contact)
	r.ContactType = strings.ToLower(strings.TrimSpace(r.ContactType))

	if r.Name == "" {
		return errors.New("please enter your name")
	}
	switch r.ContactType {
	case ContactEmail:
		if !ValidateEmail(r.Contact) {
			return errors.New("please enter a valid email address")
		}
	case ContactPhone:
		if !ValidatePhone(r.Contact) {
			return errors.New("please enter a valid phone number (minimum 10 digits)")
		}
	default:
		return errors.New("contact type must be email or phone")
	}
	return nil
}

// Validate checks an appointment request against the booking rules.
// now is the reference time, the earliest bookable day is the next one.
func (r *AppointmentRequest) Validate(now time.Time) error {
	if r.Skip {
		return nil
	}
	if !contains(MeetingTypes, r.MeetingType) {
		return errors.New("meeting type must be one of: Video Call, Phone Call, In-Person")
	}
	if !contains(TimeSlots, r.TimeSlot) {
		return errors.New("time slot is not available")
	}

	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	minDate := today.AddDate(0, 0, 1)
	maxDate := minDate.AddDate(0, 0, appointmentWindowDays)
	if date.Before(minDate) || date.After(maxDate) {
		return errors.New("date must be between tomorrow and 30 days after")
	}

	if len([]rune(r.Notes)) > maxAppointmentNotes {
		return errors.New("notes must be at most 500 characters")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// NewAppointmentOptions lists what can be booked relative to now
func NewAppointmentOptions(now time.Time) AppointmentOptions {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	minDate := today.AddDate(0, 0, 1)
	return AppointmentOptions{
		MeetingTypes: MeetingTypes,
		TimeSlots:    TimeSlots,
		EarliestDate: minDate.Format("2006-01-02"),
		LatestDate:   minDate.AddDate(0, 0, appointmentWindowDays).Format("2006-01-02"),
	}
}
