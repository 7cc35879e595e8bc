package service

import (
	"context"
	"sync"
	"testing"

	"leadchat/internal/model"
	"leadchat/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_ResumesStoredPreferences(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SavePreferences(ctx, "lead-1", model.PreferenceState{
		TransactionType: strPtr("rent"),
		Location:        strPtr("Downtown"),
	}))

	manager := NewSessionManager(store, "Hello", logger)
	session, err := manager.Get(ctx, "lead-1")
	require.NoError(t, err)

	prefs := session.Preferences()
	require.NotNil(t, prefs.TransactionType)
	assert.Equal(t, "rent", *prefs.TransactionType)
	assert.Equal(t, []string{"property type (house, apartment, etc)"}, prefs.MissingFields())

	msgs := session.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello", msgs[0].Content)
}

func TestSessionManager_SameSessionPerUser(t *testing.T) {
	logger, _ := test.NewNullLogger()
	manager := NewSessionManager(repository.NewMemoryStore(), "", logger)
	ctx := context.Background()

	var wg sync.WaitGroup
	sessions := make([]*Session, 10)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := manager.Get(ctx, "lead-1")
			assert.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
	assert.Empty(t, sessions[0].Messages())

	other, err := manager.Get(ctx, "lead-2")
	require.NoError(t, err)
	assert.NotSame(t, sessions[0], other)
}

func TestSessionManager_ResetAndInvalidID(t *testing.T) {
	logger, _ := test.NewNullLogger()
	manager := NewSessionManager(repository.NewMemoryStore(), "Hi", logger)
	ctx := context.Background()

	_, err := manager.Get(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidUserID)

	first, err := manager.Get(ctx, "lead-1")
	require.NoError(t, err)

	assert.True(t, manager.Reset("lead-1"))
	assert.False(t, manager.Reset("lead-1"))

	second, err := manager.Get(ctx, "lead-1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestSession_PreferencesAreCopies(t *testing.T) {
	s := newSession("lead-1", model.PreferenceState{Location: strPtr("Downtown")}, "")

	prefs := s.Preferences()
	*prefs.Location = "Uptown"

	assert.Equal(t, "Downtown", *s.Preferences().Location)
}

func TestSession_FinishTurnKeepsMatchesUnlessReplaced(t *testing.T) {
	s := newSession("lead-1", model.PreferenceState{}, "")
	matches := []model.Property{{ID: 7}}

	_, err := s.beginTurn(model.NewChatMessage(model.RoleUser, "one"), 6)
	require.NoError(t, err)
	s.finishTurn(model.NewChatMessage(model.RoleAssistant, "a"), nil, matches, true)
	assert.Len(t, s.CurrentProperties(), 1)

	_, err = s.beginTurn(model.NewChatMessage(model.RoleUser, "two"), 6)
	require.NoError(t, err)
	s.finishTurn(model.NewChatMessage(model.RoleAssistant, "b"), nil, nil, false)
	assert.Len(t, s.CurrentProperties(), 1)

	snap := s.Snapshot()
	assert.Equal(t, "lead-1", snap.UserID)
	assert.Len(t, snap.Messages, 4)
	assert.False(t, snap.Complete)
	assert.Len(t, snap.Missing, 3)
}
