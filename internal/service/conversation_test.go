package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"leadchat/internal/model"
	"leadchat/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAssistant replays fixed deltas and records the history it was given
type scriptedAssistant struct {
	mu        sync.Mutex
	replies   [][]string
	err       error
	started   chan struct{}
	release   chan struct{}
	histories [][]model.ChatMessage
	turn      int
}

func (a *scriptedAssistant) Run(ctx context.Context, utterance string, history []model.ChatMessage, userID string, onDelta DeltaFunc) error {
	a.mu.Lock()
	a.histories = append(a.histories, history)
	var deltas []string
	if len(a.replies) > 0 {
		deltas = a.replies[a.turn%len(a.replies)]
	}
	a.turn++
	a.mu.Unlock()

	if a.started != nil {
		a.started <- struct{}{}
	}
	for _, d := range deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	if a.release != nil {
		<-a.release
	}
	return a.err
}

type failingPreferenceStore struct {
	*repository.MemoryStore
}

func (s failingPreferenceStore) SavePreferences(ctx context.Context, userID string, state model.PreferenceState) error {
	return errors.New("database unavailable")
}

type recordedEvent struct {
	name string
	data any
}

func recorder(events *[]recordedEvent) TurnEventCallback {
	return func(event string, data any) error {
		*events = append(*events, recordedEvent{name: event, data: data})
		return nil
	}
}

func eventNames(events []recordedEvent) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.name)
	}
	return names
}

func newTestConversation(t *testing.T, assistant Assistant, store PreferenceStore) (*ConversationService, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	if store == nil {
		store = repository.NewMemoryStore()
	}
	sessions := NewSessionManager(store, "Hi! How can I help?", logger)
	catalog := repository.NewStaticCatalog(repository.DefaultProperties)
	return NewConversationService(sessions, assistant, catalog, store, 6, time.Second, logger), hook
}

func TestHandleTurn_AppliesPayloadAndMatches(t *testing.T) {
	assistant := &scriptedAssistant{replies: [][]string{{
		"Great choice! ",
		`{"property_preferences"`,
		`: {"transaction_type": "rent", "property_type": "flat", "location": "downtown"}}`,
	}}}
	store := repository.NewMemoryStore()
	svc, _ := newTestConversation(t, assistant, store)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-1")
	require.NoError(t, err)

	var events []recordedEvent
	result, err := svc.HandleTurn(ctx, session, "I'd like to rent a flat downtown", recorder(&events))
	require.NoError(t, err)

	assert.False(t, result.Failed)
	assert.True(t, result.PayloadFound)
	assert.Equal(t, "Great choice!", result.Message.Content)
	assert.Contains(t, result.Message.RawPayload, `"property_preferences"`)
	assert.Equal(t, []string{model.FieldTransactionType, model.FieldPropertyType, model.FieldLocation}, result.Changes.Fields())
	assert.Equal(t, []string{
		"transaction_type: rent",
		"property_type: apartment",
		"location: downtown",
	}, result.Notice)
	assert.True(t, result.Complete)
	assert.Empty(t, result.Missing)
	require.Len(t, result.Properties, 1)
	assert.Equal(t, int64(1), result.Properties[0].ID)

	assert.Equal(t, []string{EventDelta, EventDelta, EventPreferences, EventProperties}, eventNames(events))
	for _, e := range events {
		if e.name == EventDelta {
			content := e.data.(map[string]any)["content"].(string)
			assert.NotContains(t, content, "{")
		}
	}

	snap := session.Snapshot()
	assert.Equal(t, string(StateIdle), snap.State)
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, model.RoleAssistant, snap.Messages[0].Role)
	assert.Equal(t, model.RoleUser, snap.Messages[1].Role)
	assert.Equal(t, result.Message.ID, snap.Messages[2].ID)
	require.Len(t, snap.CurrentProperties, 1)
	assert.True(t, snap.Complete)

	stored, err := store.LoadPreferences(ctx, "lead-1")
	require.NoError(t, err)
	require.NotNil(t, stored.PropertyType)
	assert.Equal(t, "apartment", *stored.PropertyType)
}

func TestHandleTurn_NoPayload(t *testing.T) {
	assistant := &scriptedAssistant{replies: [][]string{{"Are you looking ", "to buy or rent?"}}}
	svc, _ := newTestConversation(t, assistant, nil)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-2")
	require.NoError(t, err)

	var events []recordedEvent
	result, err := svc.HandleTurn(ctx, session, "Hello", recorder(&events))
	require.NoError(t, err)

	assert.False(t, result.PayloadFound)
	assert.False(t, result.Failed)
	assert.Equal(t, "Are you looking to buy or rent?", result.Message.Content)
	assert.True(t, result.Changes.Empty())
	assert.Equal(t, []string{EventDelta, EventDelta}, eventNames(events))
	assert.True(t, session.Preferences().IsEmpty())
}

func TestHandleTurn_MalformedPayloadLeavesStateUnchanged(t *testing.T) {
	reply := `Noted! {"property_preferences": {"location": }}`
	assistant := &scriptedAssistant{replies: [][]string{{reply}}}
	svc, hook := newTestConversation(t, assistant, nil)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-3")
	require.NoError(t, err)

	result, err := svc.HandleTurn(ctx, session, "Somewhere nice", nil)
	require.NoError(t, err)

	assert.False(t, result.PayloadFound)
	assert.Equal(t, reply, result.Message.Content)
	assert.True(t, session.Preferences().IsEmpty())

	for _, entry := range hook.AllEntries() {
		assert.Greater(t, entry.Level, logrus.WarnLevel, "unexpected %s log: %s", entry.Level, entry.Message)
	}
}

func TestHandleTurn_StreamFailureDiscardsPartialResponse(t *testing.T) {
	assistant := &scriptedAssistant{
		replies: [][]string{{`Got it {"property_preferences": {"location": "Downtown"}}`}},
		err:     errors.New("connection reset"),
	}
	svc, _ := newTestConversation(t, assistant, nil)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-4")
	require.NoError(t, err)

	var events []recordedEvent
	result, err := svc.HandleTurn(ctx, session, "Downtown please", recorder(&events))
	require.NoError(t, err)

	assert.True(t, result.Failed)
	assert.True(t, result.Message.Error)
	assert.Equal(t, errorTurnText, result.Message.Content)
	assert.Nil(t, session.Preferences().Location)
	assert.Equal(t, StateIdle, session.State())
	assert.Equal(t, EventError, events[len(events)-1].name)

	msgs := session.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[2].Error)
}

func TestHandleTurn_RejectsConcurrentTurn(t *testing.T) {
	assistant := &scriptedAssistant{
		replies: [][]string{{"Thinking..."}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc, _ := newTestConversation(t, assistant, nil)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-5")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.HandleTurn(ctx, session, "first", nil)
		done <- err
	}()

	<-assistant.started
	assert.Equal(t, StateAwaitingResponse, session.State())

	_, err = svc.HandleTurn(ctx, session, "second", nil)
	assert.ErrorIs(t, err, ErrTurnInProgress)

	close(assistant.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, session.State())

	// greeting, first user message, assistant reply; the rejected turn left no trace
	assert.Len(t, session.Messages(), 3)
}

func TestHandleTurn_TrailingContextWindow(t *testing.T) {
	assistant := &scriptedAssistant{replies: [][]string{{"ok"}}}
	svc, _ := newTestConversation(t, assistant, nil)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-6")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.HandleTurn(ctx, session, fmt.Sprintf("message %d", i), nil)
		require.NoError(t, err)
	}

	require.Len(t, assistant.histories, 5)
	assert.Len(t, assistant.histories[0], 1, "first turn only sees the greeting")
	assert.Len(t, assistant.histories[2], 5)
	assert.Len(t, assistant.histories[3], 6)

	last := assistant.histories[4]
	require.Len(t, last, 6)
	msgs := session.Messages()
	// the window precedes the utterance of the turn that used it
	want := msgs[len(msgs)-8 : len(msgs)-2]
	for i := range want {
		assert.Equal(t, want[i].ID, last[i].ID)
	}
	assert.Equal(t, "message 1", last[0].Content)
}

func TestHandleTurn_PersistenceFailureKeepsSessionState(t *testing.T) {
	assistant := &scriptedAssistant{replies: [][]string{{`Ok {"property_preferences": {"min_price": 500}}`}}}
	store := failingPreferenceStore{MemoryStore: repository.NewMemoryStore()}
	svc, hook := newTestConversation(t, assistant, store)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-7")
	require.NoError(t, err)

	result, err := svc.HandleTurn(ctx, session, "at least 500", nil)
	require.NoError(t, err)
	assert.True(t, result.Changes.Has(model.FieldMinPrice))

	require.NotNil(t, session.Preferences().MinPrice)
	assert.Equal(t, 500.0, *session.Preferences().MinPrice)

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && strings.Contains(entry.Message, "persist") {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestHandleTurn_LaterEmptyPayloadKeepsValues(t *testing.T) {
	assistant := &scriptedAssistant{replies: [][]string{
		{`Noted {"property_preferences": {"min_price": 500}}`},
		{`Anything else? {"property_preferences": {}}`},
	}}
	svc, _ := newTestConversation(t, assistant, nil)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-8")
	require.NoError(t, err)

	_, err = svc.HandleTurn(ctx, session, "500 minimum", nil)
	require.NoError(t, err)

	var events []recordedEvent
	result, err := svc.HandleTurn(ctx, session, "nothing", recorder(&events))
	require.NoError(t, err)

	assert.True(t, result.PayloadFound)
	assert.True(t, result.Changes.Empty())
	assert.NotContains(t, eventNames(events), EventPreferences)
	assert.Equal(t, 500.0, *session.Preferences().MinPrice)
}

func TestHandleTurn_InvalidInput(t *testing.T) {
	svc, _ := newTestConversation(t, &scriptedAssistant{}, nil)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-9")
	require.NoError(t, err)

	_, err = svc.HandleTurn(ctx, session, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, session.Messages(), 1)

	disabled, _ := newTestConversation(t, nil, nil)
	_, err = disabled.HandleTurn(ctx, session, "hello", nil)
	assert.ErrorIs(t, err, ErrAssistantDisabled)
}

func TestMatchingProperties(t *testing.T) {
	svc, _ := newTestConversation(t, &scriptedAssistant{}, nil)
	ctx := context.Background()

	session, err := svc.Session(ctx, "lead-10")
	require.NoError(t, err)
	session.finishTurn(model.NewChatMessage(model.RoleAssistant, "ok"), &model.PreferenceState{
		TransactionType: strPtr("buy"),
	}, nil, false)

	resp, err := svc.MatchingProperties(ctx, session, false)
	require.NoError(t, err)
	assert.False(t, resp.Complete)
	assert.Empty(t, resp.Properties)

	resp, err = svc.MatchingProperties(ctx, session, true)
	require.NoError(t, err)
	assert.True(t, resp.Preview)
	require.Len(t, resp.Properties, 1)
	assert.Equal(t, int64(2), resp.Properties[0].ID)
	assert.Equal(t, 1, resp.Total)
}
