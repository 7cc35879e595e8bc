package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"leadchat/internal/model"

	"github.com/sirupsen/logrus"
)

// ChangeSet is the ordered set of preference fields a merge actually changed
type ChangeSet struct {
	fields []string
}

// Empty reports whether nothing changed
func (c ChangeSet) Empty() bool {
	return len(c.fields) == 0
}

// Has reports whether field changed
func (c ChangeSet) Has(field string) bool {
	for _, f := range c.fields {
		if f == field {
			return true
		}
	}
	return false
}

// Fields returns the changed field names in payload key order
func (c ChangeSet) Fields() []string {
	out := make([]string, len(c.fields))
	copy(out, c.fields)
	return out
}

// Summary renders "field: value" lines for the change notification
func (c ChangeSet) Summary(state model.PreferenceState) []string {
	lines := make([]string, 0, len(c.fields))
	for _, f := range c.fields {
		lines = append(lines, fmt.Sprintf("%s: %s", f, formatField(state, f)))
	}
	return lines
}

// MarshalJSON renders the change set as a list of field names
func (c ChangeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Fields())
}

// UnmarshalJSON reads a list of field names
func (c *ChangeSet) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.fields)
}

func (c *ChangeSet) add(field string) {
	c.fields = append(c.fields, field)
}

// PreferenceMerger applies assistant payloads to a preference state
type PreferenceMerger struct {
	categorize func(string) string
	logger     logrus.FieldLogger
}

// NewPreferenceMerger creates a merger. categorize maps free-form property
// types onto catalog types; nil only lower-cases them.
func NewPreferenceMerger(categorize func(string) string, logger logrus.FieldLogger) *PreferenceMerger {
	if categorize == nil {
		categorize = func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PreferenceMerger{categorize: categorize, logger: logger}
}

// MergePreferences applies payload to state with the default merger
func MergePreferences(state *model.PreferenceState, payload map[string]any) ChangeSet {
	return NewPreferenceMerger(nil, nil).Merge(state, payload)
}

// Merge writes every recognized, non-null payload value that differs from the
// current state and returns the fields it changed. Absent or null keys leave
// the state untouched and unknown keys are ignored, so a field once set is
// only ever replaced, never cleared.
func (m *PreferenceMerger) Merge(state *model.PreferenceState, payload map[string]any) ChangeSet {
	var changes ChangeSet

	for _, field := range model.PreferenceFields {
		raw, ok := payload[field]
		if !ok || raw == nil {
			continue
		}

		var changed, valid bool
		switch field {
		case model.FieldTransactionType:
			var v string
			if v, valid = transactionValue(raw); valid {
				changed = setString(&state.TransactionType, v)
			}
		case model.FieldPropertyType:
			var v string
			if v, valid = stringValue(raw); valid {
				v = m.categorize(v)
				valid = v != ""
				if valid {
					changed = setString(&state.PropertyType, v)
				}
			}
		case model.FieldLocation:
			var v string
			if v, valid = stringValue(raw); valid {
				changed = setString(&state.Location, v)
			}
		case model.FieldMinPrice:
			var v float64
			if v, valid = priceValue(raw); valid {
				changed = setFloat(&state.MinPrice, v)
			}
		case model.FieldMaxPrice:
			var v float64
			if v, valid = priceValue(raw); valid {
				changed = setFloat(&state.MaxPrice, v)
			}
		case model.FieldMinBedrooms:
			var v int
			if v, valid = bedroomsValue(raw); valid {
				changed = setInt(&state.MinBedrooms, v)
			}
		}

		if !valid {
			m.logger.WithFields(logrus.Fields{"field": field, "value": raw}).
				Debug("Ignoring preference value with unexpected type")
			continue
		}
		if changed {
			changes.add(field)
		}
	}

	return changes
}

func setString(dst **string, v string) bool {
	if *dst != nil && **dst == v {
		return false
	}
	*dst = &v
	return true
}

func setFloat(dst **float64, v float64) bool {
	if *dst != nil && **dst == v {
		return false
	}
	*dst = &v
	return true
}

func setInt(dst **int, v int) bool {
	if *dst != nil && **dst == v {
		return false
	}
	*dst = &v
	return true
}

func stringValue(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func transactionValue(raw any) (string, bool) {
	s, ok := stringValue(raw)
	if !ok {
		return "", false
	}
	s = strings.ToLower(s)
	if s != model.TransactionBuy && s != model.TransactionRent {
		return "", false
	}
	return s, true
}

func numberValue(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		cleaned := strings.TrimSpace(strings.NewReplacer(",", "", "$", "", "€", "", "£", "").Replace(v))
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func priceValue(raw any) (float64, bool) {
	return numberValue(raw)
}

func bedroomsValue(raw any) (int, bool) {
	f, ok := numberValue(raw)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func formatField(state model.PreferenceState, field string) string {
	switch field {
	case model.FieldTransactionType:
		return derefString(state.TransactionType)
	case model.FieldPropertyType:
		return derefString(state.PropertyType)
	case model.FieldLocation:
		return derefString(state.Location)
	case model.FieldMinPrice:
		return derefFloat(state.MinPrice)
	case model.FieldMaxPrice:
		return derefFloat(state.MaxPrice)
	case model.FieldMinBedrooms:
		if state.MinBedrooms == nil {
			return "-"
		}
		return strconv.Itoa(*state.MinBedrooms)
	}
	return "-"
}

func derefString(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func derefFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
