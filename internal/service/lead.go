package service

import (
	"context"
	"strings"
	"time"

	"leadchat/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ValidationError wraps a user-facing input error
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// LeadService captures leads and books their appointments
type LeadService struct {
	store  LeadStore
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewLeadService creates a lead service
func NewLeadService(store LeadStore, logger logrus.FieldLogger) *LeadService {
	return &LeadService{store: store, now: time.Now, logger: logger}
}

// CreateLead validates and stores a new lead. The returned lead ID is the
// user identity for the chat session.
func (s *LeadService) CreateLead(ctx context.Context, req model.LeadRequest) (*model.Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	lead := &model.Lead{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Contact:     req.Contact,
		ContactType: req.ContactType,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"lead_id":      lead.ID,
		"contact_type": lead.ContactType,
	}).Info("Lead captured")
	return lead, nil
}

// GetLead returns a lead by ID
func (s *LeadService) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// AppointmentOptions lists meeting types, slots and the bookable date range
func (s *LeadService) AppointmentOptions() model.AppointmentOptions {
	return model.NewAppointmentOptions(s.now())
}

// BookAppointment stores an appointment for leadID, or records that the lead skipped booking
func (s *LeadService) BookAppointment(ctx context.Context, leadID string, req model.AppointmentRequest) (*model.Appointment, error) {
	if _, err := s.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	if err := req.Validate(s.now()); err != nil {
		return nil, &ValidationError{Err: err}
	}

	appt := &model.Appointment{
		ID:        uuid.NewString(),
		LeadID:    leadID,
		Skipped:   req.Skip,
		CreatedAt: s.now().UTC(),
	}
	if !req.Skip {
		date, _ := time.Parse("2006-01-02", req.Date)
		appt.Date = date
		appt.TimeSlot = req.TimeSlot
		appt.MeetingType = req.MeetingType
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			appt.Notes = &notes
		}
	}

	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"lead_id": leadID,
		"skipped": appt.Skipped,
	}).Info("Appointment recorded")
	return appt, nil
}
