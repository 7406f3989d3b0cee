package roster

import (
	"strings"

	"github.com/UnknownOlympus/roster/internal/models"
)

// Filter returns the records matching the free-text query, preserving their
// relative order. An empty query matches everything.
//
// Name, email and designation are compared case-insensitively. The sequential
// ID and the mobile number are numeric, so they are compared against the raw
// query: case folding cannot change a digit, and a query with letters simply
// never matches them.
func Filter(records []models.Employee, query string) []models.Employee {
	out := make([]models.Employee, 0, len(records))
	if query == "" {
		return append(out, records...)
	}

	folded := strings.ToLower(query)
	for _, emp := range records {
		if matches(emp, query, folded) {
			out = append(out, emp)
		}
	}

	return out
}

// matches reports whether a single record matches. folded must be the
// lowercase form of query.
func matches(emp models.Employee, query, folded string) bool {
	return strings.Contains(strings.ToLower(emp.Name), folded) ||
		strings.Contains(strings.ToLower(emp.Email), folded) ||
		strings.Contains(strings.ToLower(string(emp.Designation)), folded) ||
		strings.Contains(emp.ID.String(), query) ||
		strings.Contains(emp.Mobile.String(), query)
}
