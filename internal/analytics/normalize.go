package analytics

import (
	"strings"

	"hoteldash/internal/core"
)

// NormalizeKey maps a category display name to the key used to join series:
// lowercased, trimmed, with every whitespace run replaced by one underscore.
// It is idempotent.
func NormalizeKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// CategoryCode returns the stable code for a category of the given
// dimension. Guest countries use their ISO code when known.
func CategoryCode(dimension core.Dimension, name string) string {
	if dimension == core.GuestCountry {
		if strings.TrimSpace(name) == "" {
			return "unknown"
		}
		if name == "Malta (Gozo)" {
			return "mt"
		}
		if code, ok := countryCodes[strings.TrimSpace(name)]; ok {
			return code
		}
	}
	return NormalizeKey(name)
}
