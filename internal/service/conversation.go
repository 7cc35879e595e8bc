package service

import (
	"context"
	"strings"
	"time"

	"leadchat/internal/model"
	"leadchat/internal/utils"

	"github.com/sirupsen/logrus"
)

// Turn events sent to TurnEventCallback
const (
	EventDelta       = "delta"
	EventPreferences = "preferences"
	EventProperties  = "properties"
	EventError       = "error"
)

const errorTurnText = "Sorry, something went wrong while answering. Please try again."

// TurnEventCallback is called for streaming turn events
type TurnEventCallback func(event string, data any) error

// TurnResult is the outcome of one user/assistant exchange
type TurnResult struct {
	Message      model.ChatMessage     `json:"message"`
	PayloadFound bool                  `json:"payload_found"`
	Changes      ChangeSet             `json:"changes"`
	Notice       []string              `json:"notice,omitempty"`
	Preferences  model.PreferenceState `json:"preferences"`
	Complete     bool                  `json:"complete"`
	Missing      []string              `json:"missing"`
	Properties   []model.Property      `json:"properties,omitempty"`
	Failed       bool                  `json:"failed"`
}

// PreferencesEvent is the payload of EventPreferences
type PreferencesEvent struct {
	Changes     ChangeSet             `json:"changes"`
	Notice      []string              `json:"notice"`
	Preferences model.PreferenceState `json:"preferences"`
	Complete    bool                  `json:"complete"`
	Missing     []string              `json:"missing"`
}

// ConversationService drives the turn state machine:
// Idle -> AwaitingResponse -> Idle, applying preferences only from a fully
// streamed and parsed payload.
type ConversationService struct {
	sessions    *SessionManager
	assistant   Assistant
	catalog     Catalog
	store       PreferenceStore
	window      int
	turnTimeout time.Duration
	logger      logrus.FieldLogger
}

// NewConversationService creates a conversation driver
func NewConversationService(
	sessions *SessionManager,
	assistant Assistant,
	catalog Catalog,
	store PreferenceStore,
	window int,
	turnTimeout time.Duration,
	logger logrus.FieldLogger,
) *ConversationService {
	return &ConversationService{
		sessions:    sessions,
		assistant:   assistant,
		catalog:     catalog,
		store:       store,
		window:      window,
		turnTimeout: turnTimeout,
		logger:      logger,
	}
}

// Session returns the session for userID
func (s *ConversationService) Session(ctx context.Context, userID string) (*Session, error) {
	return s.sessions.Get(ctx, userID)
}

// ResetSession drops the in-memory session for userID
func (s *ConversationService) ResetSession(userID string) bool {
	return s.sessions.Reset(userID)
}

// HandleTurn runs one exchange for session. Assistant failures do not return
// an error: the turn is recorded as failed and the session returns to Idle
// with its preferences untouched.
func (s *ConversationService) HandleTurn(ctx context.Context, session *Session, utterance string, callback TurnEventCallback) (*TurnResult, error) {
	if s.assistant == nil {
		return nil, ErrAssistantDisabled
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, ErrEmptyMessage
	}

	log := s.logger.WithField("user_id", session.UserID)

	history, err := session.beginTurn(model.NewChatMessage(model.RoleUser, utterance), s.window)
	if err != nil {
		return nil, err
	}

	finished := false
	defer func() {
		if !finished {
			session.finishTurn(errorMessage(), nil, nil, false)
		}
	}()

	turnCtx := ctx
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	extractor := utils.NewStreamExtractor(log)
	lastVisible := ""
	err = s.assistant.Run(turnCtx, utterance, history, session.UserID, func(delta string) error {
		extractor.Write(delta)
		visible := extractor.Visible()
		if visible == lastVisible {
			return nil
		}
		lastVisible = visible
		if callback == nil {
			return nil
		}
		return callback(EventDelta, map[string]any{"content": visible})
	})
	if err != nil {
		log.WithError(err).Warn("Assistant turn failed, discarding partial response")
		reply := errorMessage()
		finished = true
		session.finishTurn(reply, nil, nil, false)
		s.emit(log, callback, EventError, map[string]any{"error": reply.Content})

		prefs := session.Preferences()
		return &TurnResult{
			Message:     reply,
			Preferences: prefs,
			Complete:    prefs.IsComplete(),
			Missing:     prefs.MissingFields(),
			Failed:      true,
		}, nil
	}

	result := extractor.Result()
	if !result.Found {
		reply := model.NewChatMessage(model.RoleAssistant, extractor.Buffer())
		finished = true
		session.finishTurn(reply, nil, nil, false)

		prefs := session.Preferences()
		return &TurnResult{
			Message:     reply,
			Preferences: prefs,
			Complete:    prefs.IsComplete(),
			Missing:     prefs.MissingFields(),
		}, nil
	}

	staged := session.Preferences()
	changes := s.merger(ctx, log).Merge(&staged, result.Preferences())

	reply := model.NewChatMessage(model.RoleAssistant, result.Text)
	reply.RawPayload = result.Raw

	var notice []string
	if !changes.Empty() {
		staged.UpdatedAt = time.Now()
		notice = changes.Summary(staged)
		log.WithField("changed", changes.Fields()).Info("Preferences updated")
	}

	var matches []model.Property
	replaceMatches := false
	if staged.IsComplete() {
		props, err := s.catalog.ListProperties(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to load property catalog")
		} else {
			matches = FilterProperties(props, staged)
			reply.Properties = matches
			replaceMatches = true
		}
	}

	var commit *model.PreferenceState
	if !changes.Empty() {
		commit = &staged
	}
	finished = true
	session.finishTurn(reply, commit, matches, replaceMatches)

	if commit != nil {
		if err := s.store.SavePreferences(ctx, session.UserID, staged); err != nil {
			log.WithError(err).Error("Failed to persist preferences")
		}
		s.emit(log, callback, EventPreferences, PreferencesEvent{
			Changes:     changes,
			Notice:      notice,
			Preferences: staged,
			Complete:    staged.IsComplete(),
			Missing:     staged.MissingFields(),
		})
	}
	if replaceMatches {
		s.emit(log, callback, EventProperties, map[string]any{"properties": matches, "total": len(matches)})
	}

	return &TurnResult{
		Message:      reply,
		PayloadFound: true,
		Changes:      changes,
		Notice:       notice,
		Preferences:  staged,
		Complete:     staged.IsComplete(),
		Missing:      staged.MissingFields(),
		Properties:   matches,
	}, nil
}

// MatchingProperties filters the catalog with the session's preferences.
// Without preview, nothing is returned until the preferences are complete.
func (s *ConversationService) MatchingProperties(ctx context.Context, session *Session, preview bool) (*model.PropertiesResponse, error) {
	prefs := session.Preferences()
	resp := &model.PropertiesResponse{
		Properties: []model.Property{},
		Complete:   prefs.IsComplete(),
		Preview:    preview,
	}
	if !preview && !prefs.IsComplete() {
		return resp, nil
	}

	catalog, err := s.catalog.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	resp.Properties = FilterProperties(catalog, prefs)
	resp.Total = len(resp.Properties)
	return resp, nil
}

func (s *ConversationService) merger(ctx context.Context, log logrus.FieldLogger) *PreferenceMerger {
	types, err := s.catalog.PropertyTypes(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to load catalog property types, keeping raw values")
		types = nil
	}
	return NewPreferenceMerger(func(v string) string {
		return utils.CategorizePropertyType(v, types)
	}, log)
}

func (s *ConversationService) emit(log logrus.FieldLogger, callback TurnEventCallback, event string, data any) {
	if callback == nil {
		return
	}
	if err := callback(event, data); err != nil {
		log.WithError(err).WithField("event", event).Debug("Failed to deliver turn event")
	}
}

func errorMessage() model.ChatMessage {
	msg := model.NewChatMessage(model.RoleAssistant, errorTurnText)
	msg.Error = true
	return msg
}
