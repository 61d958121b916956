package normalizer

import "strings"

// displayNames maps known classified keys to their display form. Unknown
// keys fall back to the uppercased key.
var displayNames = map[string]string{
	"bookmaker": "BOOKMAKER",
	"fancy":     "FANCY",
	"odds":      "ODDS",
	"session":   "SESSION",
	"toss":      "TOSS",
}

// Classify maps a market's free-text name and group type to its canonical
// key and display name. It is total: every input yields a non-empty key.
// This is the single source of truth for market-type grouping; the
// query-side type filter resolves against the same keys.
func Classify(marketName, groupType string) (key, display string) {
	key = ClassifyKey(marketName, groupType)
	if name, ok := displayNames[key]; ok {
		return key, name
	}
	return key, strings.ToUpper(key)
}

// ClassifyKey returns just the canonical market-type key. First match wins.
func ClassifyKey(marketName, groupType string) string {
	name := strings.ToLower(marketName)
	gtype := strings.ToLower(groupType)

	switch {
	case strings.Contains(name, "bookmaker"):
		return "bookmaker"
	case strings.Contains(name, "fancy") || strings.Contains(gtype, "fancy"):
		return "fancy"
	case strings.Contains(name, "match") || strings.Contains(name, "odds"):
		return "odds"
	case strings.Contains(name, "session"):
		return "session"
	case strings.Contains(name, "toss"):
		return "toss"
	case name != "":
		return strings.ReplaceAll(name, " ", "_")
	default:
		return "unknown"
	}
}
