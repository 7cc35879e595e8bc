package service

import (
	"context"
	"testing"
	"time"

	"leadchat/internal/model"
	"leadchat/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeadService() (*LeadService, *repository.MemoryStore) {
	logger, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()
	svc := NewLeadService(store, logger)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestLeadService_CreateLead(t *testing.T) {
	svc, _ := newTestLeadService()
	ctx := context.Background()

	lead, err := svc.CreateLead(ctx, model.LeadRequest{
		Name:        " Jane Doe ",
		Contact:     "jane@example.com",
		ContactType: "Email",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, model.ContactEmail, lead.ContactType)

	got, err := svc.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, got.ID)

	_, err = svc.GetLead(ctx, "missing")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadService_CreateLeadValidation(t *testing.T) {
	svc, _ := newTestLeadService()

	_, err := svc.CreateLead(context.Background(), model.LeadRequest{
		Name:        "Jane",
		Contact:     "555-1234",
		ContactType: "phone",
	})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "please enter a valid phone number (minimum 10 digits)", validation.Error())
}

func TestLeadService_BookAppointment(t *testing.T) {
	svc, store := newTestLeadService()
	ctx := context.Background()

	lead, err := svc.CreateLead(ctx, model.LeadRequest{Name: "Sam", Contact: "+1 555 123 4567", ContactType: "phone"})
	require.NoError(t, err)

	appt, err := svc.BookAppointment(ctx, lead.ID, model.AppointmentRequest{
		Date:        "2024-05-11",
		TimeSlot:    "10:00 AM",
		MeetingType: "Video Call",
		Notes:       "  Prefers mornings ",
	})
	require.NoError(t, err)
	assert.False(t, appt.Skipped)
	assert.Equal(t, "2024-05-11", appt.Date.Format("2006-01-02"))
	require.NotNil(t, appt.Notes)
	assert.Equal(t, "Prefers mornings", *appt.Notes)

	skipped, err := svc.BookAppointment(ctx, lead.ID, model.AppointmentRequest{Skip: true})
	require.NoError(t, err)
	assert.True(t, skipped.Skipped)

	assert.Len(t, store.Appointments(lead.ID), 2)
}

func TestLeadService_BookAppointmentErrors(t *testing.T) {
	svc, _ := newTestLeadService()
	ctx := context.Background()

	_, err := svc.BookAppointment(ctx, "missing", model.AppointmentRequest{Skip: true})
	assert.ErrorIs(t, err, ErrLeadNotFound)

	lead, err := svc.CreateLead(ctx, model.LeadRequest{Name: "Sam", Contact: "sam@example.com", ContactType: "email"})
	require.NoError(t, err)

	_, err = svc.BookAppointment(ctx, lead.ID, model.AppointmentRequest{
		Date:        "2024-05-10",
		TimeSlot:    "10:00 AM",
		MeetingType: "Video Call",
	})
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestLeadService_AppointmentOptions(t *testing.T) {
	svc, _ := newTestLeadService()

	opts := svc.AppointmentOptions()
	assert.Equal(t, "2024-05-11", opts.EarliestDate)
	assert.Equal(t, "2024-06-10", opts.LatestDate)
	assert.Equal(t, model.MeetingTypes, opts.MeetingTypes)
	assert.Len(t, opts.TimeSlots, 9)
}
