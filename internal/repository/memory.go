package repository

import (
	"context"
	"sync"

	"leadchat/internal/model"
)

// MemoryStore keeps preferences, leads and appointments in process memory.
// It is used when PostgreSQL is not configured.
type MemoryStore struct {
	mu           sync.RWMutex
	preferences  map[string]model.PreferenceState
	leads        map[string]model.Lead
	appointments map[string][]model.Appointment
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		preferences:  make(map[string]model.PreferenceState),
		leads:        make(map[string]model.Lead),
		appointments: make(map[string][]model.Appointment),
	}
}

// LoadPreferences returns a copy of the stored preferences, empty if none
func (s *MemoryStore) LoadPreferences(ctx context.Context, userID string) (model.PreferenceState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferences[userID].Clone(), nil
}

// SavePreferences replaces the stored preferences for userID
func (s *MemoryStore) SavePreferences(ctx context.Context, userID string, state model.PreferenceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[userID] = state.Clone()
	return nil
}

// CreateLead stores a lead
func (s *MemoryStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = *lead
	return nil
}

// GetLead returns a lead by ID, nil if it does not exist
func (s *MemoryStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, nil
	}
	return &lead, nil
}

// CreateAppointment stores an appointment
func (s *MemoryStore) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[appt.LeadID] = append(s.appointments[appt.LeadID], *appt)
	return nil
}

// Appointments returns the appointments recorded for a lead
func (s *MemoryStore) Appointments(leadID string) []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Appointment, len(s.appointments[leadID]))
	copy(out, s.appointments[leadID])
	return out
}
