package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeCity trims, collapses inner whitespace and title-cases a city
// name so that pool routing compares like with like.
func NormalizeCity(city string) string {
	fields := strings.Fields(city)
	if len(fields) == 0 {
		return ""
	}
	// Casers are stateful, so one is built per call.
	return cases.Title(language.English).String(strings.Join(fields, " "))
}

// SameCity compares two city names after normalisation
func SameCity(a, b string) bool {
	na := NormalizeCity(a)
	return na != "" && na == NormalizeCity(b)
}
