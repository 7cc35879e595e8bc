package service

import (
	"context"
	"errors"

	"leadchat/internal/model"
)

var (
	// ErrTurnInProgress is returned when a session already has an assistant response streaming
	ErrTurnInProgress = errors.New("a response is already in progress for this session")
	// ErrEmptyMessage is returned for blank user utterances
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrAssistantDisabled is returned when no assistant backend is configured
	ErrAssistantDisabled = errors.New("assistant is not enabled (missing API key)")
	// ErrLeadNotFound is returned when a lead ID is unknown
	ErrLeadNotFound = errors.New("lead not found")
	// ErrInvalidUserID is returned for a blank session identity
	ErrInvalidUserID = errors.New("user id must not be empty")
	// ErrPropertyNotFound is returned when a property ID is unknown
	ErrPropertyNotFound = errors.New("property not found")
)

// DeltaFunc receives streamed assistant text in arrival order.
// Returning an error aborts the stream.
type DeltaFunc func(delta string) error

// Assistant is the LLM collaborator that converses with the prospect.
// Its system prompt is responsible for emitting the trailing
// {"property_preferences": {...}} payload whenever a preference is mentioned.
type Assistant interface {
	Run(ctx context.Context, utterance string, history []model.ChatMessage, userID string, onDelta DeltaFunc) error
}

// Catalog is the read-only property catalog
type Catalog interface {
	ListProperties(ctx context.Context) ([]model.Property, error)
	GetProperty(ctx context.Context, id int64) (*model.Property, error)
	PropertyTypes(ctx context.Context) ([]string, error)
}

// PreferenceStore persists the latest preferences per lead
type PreferenceStore interface {
	LoadPreferences(ctx context.Context, userID string) (model.PreferenceState, error)
	SavePreferences(ctx context.Context, userID string, state model.PreferenceState) error
}

// LeadStore persists captured leads and their appointments
type LeadStore interface {
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
}

// Embedder turns texts into embedding vectors
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingWriter stores catalog embeddings
type EmbeddingWriter interface {
	UpdateEmbeddings(ctx context.Context, embeddings map[int64][]float32) (int, []string)
}
