package model

import "time"

// Preference field names as they appear in the assistant payload
const (
	FieldTransactionType = "transaction_type"
	FieldPropertyType    = "property_type"
	FieldLocation        = "location"
	FieldMinPrice        = "min_price"
	FieldMaxPrice        = "max_price"
	FieldMinBedrooms     = "min_bedrooms"
)

// PreferenceFields lists the recognized payload keys in display order
var PreferenceFields = []string{
	FieldTransactionType,
	FieldPropertyType,
	FieldLocation,
	FieldMinPrice,
	FieldMaxPrice,
	FieldMinBedrooms,
}

// Transaction types accepted in preferences and catalog entries
const (
	TransactionBuy  = "buy"
	TransactionRent = "rent"
)

// PreferenceState is what we currently know about the prospect's search.
// A nil field is unset; it is never cleared once set.
type PreferenceState struct {
	TransactionType *string   `json:"transaction_type" db:"transaction_type"`
	PropertyType    *string   `json:"property_type" db:"property_type"`
	Location        *string   `json:"location" db:"location"`
	MinPrice        *float64  `json:"min_price" db:"min_price"`
	MaxPrice        *float64  `json:"max_price" db:"max_price"`
	MinBedrooms     *int      `json:"min_bedrooms" db:"min_bedrooms"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// IsComplete reports whether the fields required to unlock property search are set.
// Price range and bedrooms are optional.
func (p PreferenceState) IsComplete() bool {
	return p.TransactionType != nil && p.PropertyType != nil && p.Location != nil
}

// MissingFields returns labels for the required fields that are still unset
func (p PreferenceState) MissingFields() []string {
	missing := []string{}
	if p.TransactionType == nil {
		missing = append(missing, "transaction type (buy or rent)")
	}
	if p.PropertyType == nil {
		missing = append(missing, "property type (house, apartment, etc)")
	}
	if p.Location == nil {
		missing = append(missing, "preferred location")
	}
	return missing
}

// IsEmpty reports whether no preference has been captured yet
func (p PreferenceState) IsEmpty() bool {
	return p.TransactionType == nil && p.PropertyType == nil && p.Location == nil &&
		p.MinPrice == nil && p.MaxPrice == nil && p.MinBedrooms == nil
}

// Clone returns a deep copy so callers can stage changes without touching committed state
func (p PreferenceState) Clone() PreferenceState {
	out := PreferenceState{UpdatedAt: p.UpdatedAt}
	if p.TransactionType != nil {
		v := *p.TransactionType
		out.TransactionType = &v
	}
	if p.PropertyType != nil {
		v := *p.PropertyType
		out.PropertyType = &v
	}
	if p.Location != nil {
		v := *p.Location
		out.Location = &v
	}
	if p.MinPrice != nil {
		v := *p.MinPrice
		out.MinPrice = &v
	}
	if p.MaxPrice != nil {
		v := *p.MaxPrice
		out.MaxPrice = &v
	}
	if p.MinBedrooms != nil {
		v := *p.MinBedrooms
		out.MinBedrooms = &v
	}
	return out
}

// PreferenceSummary is the side-panel view of a session's preferences
type PreferenceSummary struct {
	Preferences PreferenceState `json:"preferences"`
	Complete    bool            `json:"complete"`
	Missing     []string        `json:"missing"`
}

// Summarize builds the side-panel view
func (p PreferenceState) Summarize() PreferenceSummary {
	return PreferenceSummary{
		Preferences: p,
		Complete:    p.IsComplete(),
		Missing:     p.MissingFields(),
	}
}
