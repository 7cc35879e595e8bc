package utils

import (
	"strings"
)

// propertyTypeAliases maps catalog property types to the words prospects use for them.
// Order matters: the first matching canonical type wins.
var propertyTypeAliases = []struct {
	canonical string
	aliases   []string
}{
	{"studio", []string{"studio", "bedsit", "efficiency"}},
	{"apartment", []string{"apartment", "flat", "condo", "condominium", "unit", "penthouse", "loft"}},
	{"townhouse", []string{"townhouse", "town house", "row house", "terraced"}},
	{"house", []string{"house", "home", "detached", "bungalow", "villa", "cottage", "landed"}},
	{"land", []string{"land", "plot", "lot"}},
	{"commercial", []string{"commercial", "office", "retail", "shop", "warehouse"}},
}

// CategorizePropertyType maps a free-form property type onto the catalog's
// vocabulary. Matching is case-insensitive: an exact catalog type wins, then
// the alias table, otherwise the lower-cased input is returned unchanged.
// An empty catalogTypes accepts any canonical alias target.
func CategorizePropertyType(value string, catalogTypes []string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}

	known := make(map[string]bool, len(catalogTypes))
	for _, t := range catalogTypes {
		known[strings.ToLower(strings.TrimSpace(t))] = true
	}

	if known[v] {
		return v
	}
	if singular := strings.TrimSuffix(v, "s"); singular != v && known[singular] {
		return singular
	}

	for _, entry := range propertyTypeAliases {
		if len(known) > 0 && !known[entry.canonical] {
			continue
		}
		for _, alias := range entry.aliases {
			if containsWord(v, alias) {
				return entry.canonical
			}
		}
	}

	return v
}

// containsWord reports whether phrase appears in s on word boundaries,
// tolerating a plural "s" on the last word.
func containsWord(s, phrase string) bool {
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], phrase)
		if i < 0 {
			return false
		}
		i += offset
		end := i + len(phrase)
		if end < len(s) && s[end] == 's' {
			end++
		}
		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		offset = i + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
