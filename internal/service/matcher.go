package service

import (
	"strings"

	"leadchat/internal/model"
)

// FilterProperties returns the catalog entries matching every preference that
// is set, in catalog order. Unset preferences match everything, so it works
// for partial previews as well as complete searches.
func FilterProperties(catalog []model.Property, prefs model.PreferenceState) []model.Property {
	matches := make([]model.Property, 0, len(catalog))
	for _, p := range catalog {
		if MatchesPreferences(p, prefs) {
			matches = append(matches, p)
		}
	}
	return matches
}

// MatchesPreferences is the per-property predicate behind FilterProperties
func MatchesPreferences(p model.Property, prefs model.PreferenceState) bool {
	if prefs.TransactionType != nil && !strings.EqualFold(p.TransactionType, *prefs.TransactionType) {
		return false
	}
	if prefs.PropertyType != nil && !strings.EqualFold(p.Type, *prefs.PropertyType) {
		return false
	}
	// Location is a substring match: "down" matches "Downtown".
	if prefs.Location != nil &&
		!strings.Contains(strings.ToLower(p.Location), strings.ToLower(strings.TrimSpace(*prefs.Location))) {
		return false
	}
	if prefs.MinPrice != nil && p.Price < *prefs.MinPrice {
		return false
	}
	if prefs.MaxPrice != nil && p.Price > *prefs.MaxPrice {
		return false
	}
	if prefs.MinBedrooms != nil && p.Bedrooms < *prefs.MinBedrooms {
		return false
	}
	return true
}
