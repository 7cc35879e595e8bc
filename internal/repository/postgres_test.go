package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"leadchat/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPostgres connects to TEST_DATABASE_URL, skipping when it is not set.
// The database needs the pgvector extension available.
func newTestPostgres(t *testing.T) *PostgresRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	repo, err := NewPostgresRepository(dsn, 4, 2)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.EnsureSchema(context.Background(), 3))
	return repo
}

func TestPostgres_PreferencesUpsert(t *testing.T) {
	repo := newTestPostgres(t)
	ctx := context.Background()
	leadID := uuid.NewString()

	empty, err := repo.LoadPreferences(ctx, leadID)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	rent, downtown := "rent", "Downtown"
	require.NoError(t, repo.SavePreferences(ctx, leadID, model.PreferenceState{TransactionType: &rent}))
	require.NoError(t, repo.SavePreferences(ctx, leadID, model.PreferenceState{TransactionType: &rent, Location: &downtown}))

	loaded, err := repo.LoadPreferences(ctx, leadID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Location)
	assert.Equal(t, "Downtown", *loaded.Location)
	assert.Nil(t, loaded.MinPrice)
}

func TestPostgres_LeadsAndAppointments(t *testing.T) {
	repo := newTestPostgres(t)
	ctx := context.Background()

	lead := &model.Lead{
		ID:          uuid.NewString(),
		Name:        "Jane",
		Contact:     "jane@example.com",
		ContactType: model.ContactEmail,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.CreateLead(ctx, lead))

	got, err := repo.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane", got.Name)

	missing, err := repo.GetLead(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.CreateAppointment(ctx, &model.Appointment{
		ID:        uuid.NewString(),
		LeadID:    lead.ID,
		Skipped:   true,
		CreatedAt: time.Now().UTC(),
	}))
}

func TestPostgres_CatalogAndEmbeddings(t *testing.T) {
	repo := newTestPostgres(t)
	ctx := context.Background()

	p := DefaultProperties[0]
	require.NoError(t, repo.InsertProperty(ctx, &p))
	require.NotZero(t, p.ID)

	got, err := repo.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, []string{"gym", "parking"}, got.Features.Enabled())
	assert.Nil(t, got.Embedding)

	success, errs := repo.UpdateEmbeddings(ctx, map[int64][]float32{p.ID: {0.1, 0.2, 0.3}})
	assert.Equal(t, 1, success)
	assert.Empty(t, errs)

	got, err = repo.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Embedding)
	assert.Len(t, got.Embedding.Slice(), 3)

	types, err := repo.PropertyTypes(ctx)
	require.NoError(t, err)
	assert.Contains(t, types, "apartment")
}
