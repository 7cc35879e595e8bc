package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStaticCatalog_FromFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "properties.json")
	data := `[
		{"id": 10, "title": "Loft", "type": "Apartment", "transaction_type": "rent", "price": 1900, "location": "Arts District", "bedrooms": 1, "features": {"elevator": true}},
		{"id": 11, "title": "Cottage", "type": "house", "transaction_type": "buy", "price": 320000, "location": "Lakeside", "bedrooms": 3}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	catalog, err := LoadStaticCatalog(path, logger)
	require.NoError(t, err)
	ctx := context.Background()

	props, err := catalog.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, int64(10), props[0].ID)
	assert.Equal(t, []string{"elevator"}, props[0].Features.Enabled())

	p, err := catalog.GetProperty(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, "Cottage", p.Title)

	missing, err := catalog.GetProperty(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	types, err := catalog.PropertyTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apartment", "house"}, types)
}

func TestLoadStaticCatalog_MissingFileUsesDefaults(t *testing.T) {
	logger, hook := test.NewNullLogger()

	catalog, err := LoadStaticCatalog(filepath.Join(t.TempDir(), "absent.json"), logger)
	require.NoError(t, err)

	props, err := catalog.ListProperties(context.Background())
	require.NoError(t, err)
	assert.Len(t, props, len(DefaultProperties))
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "Catalog file not found")
}

func TestLoadStaticCatalog_Invalid(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte(`{"not": "an array"}`), 0o644))
	_, err := LoadStaticCatalog(badJSON, logger)
	assert.Error(t, err)

	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`[{"title": "x"}]`), 0o644))
	_, err = LoadStaticCatalog(noID, logger)
	assert.ErrorContains(t, err, "has no id")
}

func TestStaticCatalog_ListReturnsCopy(t *testing.T) {
	catalog := NewStaticCatalog(DefaultProperties)
	ctx := context.Background()

	props, err := catalog.ListProperties(ctx)
	require.NoError(t, err)
	props[0].Title = "changed"

	again, err := catalog.ListProperties(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Modern Downtown Apartment", again[0].Title)
}
