package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"leadchat/internal/model"

	"github.com/sirupsen/logrus"
)

// TurnState is where a session is in the conversation cycle
type TurnState string

const (
	StateIdle             TurnState = "idle"
	StateAwaitingResponse TurnState = "awaiting_response"
)

// Session is the per-prospect conversation context: transcript, committed
// preferences and the active match set. It is owned by the SessionManager and
// only mutated by the ConversationService.
type Session struct {
	UserID string

	mu                sync.Mutex
	state             TurnState
	preferences       model.PreferenceState
	messages          []model.ChatMessage
	currentProperties []model.Property
}

func newSession(userID string, prefs model.PreferenceState, greeting string) *Session {
	s := &Session{
		UserID:      userID,
		state:       StateIdle,
		preferences: prefs,
	}
	if greeting != "" {
		s.messages = append(s.messages, model.NewChatMessage(model.RoleAssistant, greeting))
	}
	return s
}

// State returns the current turn state
func (s *Session) State() TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Preferences returns a copy of the committed preferences
func (s *Session) Preferences() model.PreferenceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferences.Clone()
}

// Messages returns a copy of the transcript
func (s *Session) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// CurrentProperties returns the active match set
func (s *Session) CurrentProperties() []model.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Property, len(s.currentProperties))
	copy(out, s.currentProperties)
	return out
}

// Snapshot returns a copy of the session suitable for rendering
func (s *Session) Snapshot() model.SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]model.ChatMessage, len(s.messages))
	copy(messages, s.messages)
	props := make([]model.Property, len(s.currentProperties))
	copy(props, s.currentProperties)

	return model.SessionResponse{
		UserID:            s.UserID,
		State:             string(s.state),
		Messages:          messages,
		CurrentProperties: props,
		PreferenceSummary: s.preferences.Clone().Summarize(),
	}
}

// beginTurn moves Idle -> AwaitingResponse, appends the user message and
// returns the context window that precedes it.
func (s *Session) beginTurn(userMsg model.ChatMessage, window int) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return nil, ErrTurnInProgress
	}
	s.state = StateAwaitingResponse

	history := model.TrailingWindow(s.messages, window)
	s.messages = append(s.messages, userMsg)
	return history, nil
}

// finishTurn appends the assistant message, commits staged preferences and
// matches when given, and returns to Idle.
func (s *Session) finishTurn(reply model.ChatMessage, prefs *model.PreferenceState, matches []model.Property, replaceMatches bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, reply)
	if prefs != nil {
		s.preferences = *prefs
	}
	if replaceMatches {
		s.currentProperties = matches
	}
	s.state = StateIdle
}

// SessionManager keeps one Session per user identity
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    PreferenceStore
	greeting string
	logger   logrus.FieldLogger
}

// NewSessionManager creates a session manager backed by store for resuming preferences
func NewSessionManager(store PreferenceStore, greeting string, logger logrus.FieldLogger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		store:    store,
		greeting: greeting,
		logger:   logger,
	}
}

// Get returns the session for userID, creating it from stored preferences if needed
func (m *SessionManager) Get(ctx context.Context, userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	prefs, err := m.store.LoadPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	s := newSession(userID, prefs, m.greeting)
	m.sessions[userID] = s
	m.logger.WithField("user_id", userID).Info("Session started")
	return s, nil
}

// Reset drops the in-memory session; stored preferences are kept
func (m *SessionManager) Reset(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[userID]; !ok {
		return false
	}
	delete(m.sessions, userID)
	return true
}
