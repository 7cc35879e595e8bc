package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pgvector/pgvector-go"
)

// Property is a catalog entry. The conversation core only reads it.
type Property struct {
	ID              int64            `json:"id" db:"id"`
	Title           string           `json:"title" db:"title"`
	Type            string           `json:"type" db:"property_type"`
	TransactionType string           `json:"transaction_type" db:"transaction_type"`
	Price           float64          `json:"price" db:"price"`
	Location        string           `json:"location" db:"location"`
	Bedrooms        int              `json:"bedrooms" db:"bedrooms"`
	Bathrooms       int              `json:"bathrooms" db:"bathrooms"`
	Area            float64          `json:"area" db:"area"`
	Description     string           `json:"description" db:"description"`
	ImageURL        string           `json:"image_url" db:"image_url"`
	Features        FeatureFlags     `json:"features" db:"features"`
	Embedding       *pgvector.Vector `json:"-" db:"embedding"`
}

// EmbeddingText is the text used to embed a property for semantic lookups
func (p Property) EmbeddingText() string {
	return fmt.Sprintf("%s. %s for %s in %s, %d bedrooms, %d bathrooms. %s",
		p.Title, p.Type, p.TransactionType, p.Location, p.Bedrooms, p.Bathrooms, p.Description)
}

// FeatureFlags maps feature names (parking, gym, garden...) to availability
type FeatureFlags map[string]bool

// Value implements driver.Valuer interface
func (f FeatureFlags) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface
func (f *FeatureFlags) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported features type %T", value)
	}
}

// Enabled returns the names of features that are available
func (f FeatureFlags) Enabled() []string {
	names := make([]string, 0, len(f))
	for name, on := range f {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
