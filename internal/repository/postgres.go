package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"leadchat/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository handles database operations for the catalog, leads,
// appointments and stored preferences
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema creates the tables used by the service if they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context, embeddingDimensions int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS properties (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			property_type TEXT NOT NULL,
			transaction_type TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			location TEXT NOT NULL,
			bedrooms INTEGER NOT NULL DEFAULT 0,
			bathrooms INTEGER NOT NULL DEFAULT 0,
			area DOUBLE PRECISION NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			features JSONB,
			embedding vector(%d),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, embeddingDimensions),
		`
		CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			contact TEXT NOT NULL,
			contact_type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`
		CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			lead_id TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
			date DATE,
			time_slot TEXT NOT NULL DEFAULT '',
			meeting_type TEXT NOT NULL DEFAULT '',
			notes TEXT,
			skipped BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`
		CREATE TABLE IF NOT EXISTS property_preferences (
			id BIGSERIAL PRIMARY KEY,
			lead_id TEXT NOT NULL,
			transaction_type TEXT,
			property_type TEXT,
			location TEXT,
			min_price DOUBLE PRECISION,
			max_price DOUBLE PRECISION,
			min_bedrooms INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_property_preferences_lead_id ON property_preferences (lead_id)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

const propertyColumns = `
	id, title, property_type, transaction_type, price, location,
	bedrooms, bathrooms, area, description, image_url, features, embedding`

// ListProperties returns the whole catalog in id order
func (r *PostgresRepository) ListProperties(ctx context.Context) ([]model.Property, error) {
	var props []model.Property
	query := fmt.Sprintf(`SELECT %s FROM properties ORDER BY id`, propertyColumns)
	if err := r.db.SelectContext(ctx, &props, query); err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

// GetProperty retrieves a single property by its ID, nil if it does not exist
func (r *PostgresRepository) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	var p model.Property
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &p, nil
}

// PropertyTypes returns the distinct property types in the catalog
func (r *PostgresRepository) PropertyTypes(ctx context.Context) ([]string, error) {
	var types []string
	query := `SELECT DISTINCT LOWER(property_type) FROM properties ORDER BY 1`
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("failed to list property types: %w", err)
	}
	return types, nil
}

// InsertProperty adds a catalog entry and sets its ID
func (r *PostgresRepository) InsertProperty(ctx context.Context, p *model.Property) error {
	query := `
		INSERT INTO properties (title, property_type, transaction_type, price, location,
			bedrooms, bathrooms, area, description, image_url, features)
		VALUES (:title, :property_type, :transaction_type, :price, :location,
			:bedrooms, :bathrooms, :area, :description, :image_url, :features)
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&p.ID); err != nil {
			return fmt.Errorf("failed to read property id: %w", err)
		}
	}
	return rows.Err()
}

// UpdateEmbeddings stores embedding vectors for catalog entries in one transaction
func (r *PostgresRepository) UpdateEmbeddings(ctx context.Context, embeddings map[int64][]float32) (int, []string) {
	success := 0
	var errs []string

	ids := make([]int64, 0, len(embeddings))
	for id := range embeddings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, id := range ids {
		vec := pgvector.NewVector(embeddings[id])
		if _, err := stmt.ExecContext(ctx, vec, id); err != nil {
			errs = append(errs, fmt.Sprintf("property %d: %v", id, err))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}

// LoadPreferences returns the stored preferences for a lead, empty if none
func (r *PostgresRepository) LoadPreferences(ctx context.Context, userID string) (model.PreferenceState, error) {
	var state model.PreferenceState
	query := `
		SELECT transaction_type, property_type, location, min_price, max_price,
			min_bedrooms, updated_at
		FROM property_preferences
		WHERE lead_id = $1
	`
	err := r.db.GetContext(ctx, &state, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PreferenceState{}, nil
		}
		return model.PreferenceState{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	return state, nil
}

// SavePreferences upserts the latest preferences for a lead
func (r *PostgresRepository) SavePreferences(ctx context.Context, userID string, state model.PreferenceState) error {
	query := `
		INSERT INTO property_preferences (lead_id, transaction_type, property_type, location,
			min_price, max_price, min_bedrooms, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (lead_id) DO UPDATE SET
			transaction_type = EXCLUDED.transaction_type,
			property_type = EXCLUDED.property_type,
			location = EXCLUDED.location,
			min_price = EXCLUDED.min_price,
			max_price = EXCLUDED.max_price,
			min_bedrooms = EXCLUDED.min_bedrooms,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, userID,
		state.TransactionType, state.PropertyType, state.Location,
		state.MinPrice, state.MaxPrice, state.MinBedrooms)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// CreateLead inserts a captured lead
func (r *PostgresRepository) CreateLead(ctx context.Context, lead *model.Lead) error {
	query := `
		INSERT INTO leads (id, name, contact, contact_type, created_at)
		VALUES (:id, :name, :contact, :contact_type, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetLead retrieves a lead by ID, nil if it does not exist
func (r *PostgresRepository) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	var lead model.Lead
	err := r.db.GetContext(ctx, &lead, `SELECT id, name, contact, contact_type, created_at FROM leads WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

// CreateAppointment inserts an appointment or a skipped booking
func (r *PostgresRepository) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	var date *time.Time
	if !appt.Skipped {
		date = &appt.Date
	}
	query := `
		INSERT INTO appointments (id, lead_id, date, time_slot, meeting_type, notes, skipped, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		appt.ID, appt.LeadID, date, appt.TimeSlot, appt.MeetingType, appt.Notes, appt.Skipped, appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}
