package roster

import (
	"cmp"
	"slices"
	"strings"

	"github.com/UnknownOlympus/roster/internal/models"
)

// SortKey selects the field the list is ordered by.
type SortKey string

const (
	SortNone  SortKey = "none"
	SortName  SortKey = "name"
	SortEmail SortKey = "email"
	SortID    SortKey = "id"
	SortDate  SortKey = "date"
)

// Direction of a sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortOption is one entry of the list screen's sort select.
type SortOption struct {
	Value    string
	LabelKey string
	Key      SortKey
	Dir      Direction
}

// SortOptions returns the select entries in display order.
func SortOptions() []SortOption {
	return []SortOption{
		{Value: "none", LabelKey: "sort.none", Key: SortNone, Dir: Asc},
		{Value: "name-asc", LabelKey: "sort.name_asc", Key: SortName, Dir: Asc},
		{Value: "name-desc", LabelKey: "sort.name_desc", Key: SortName, Dir: Desc},
		{Value: "email-asc", LabelKey: "sort.email_asc", Key: SortEmail, Dir: Asc},
		{Value: "email-desc", LabelKey: "sort.email_desc", Key: SortEmail, Dir: Desc},
		{Value: "id-asc", LabelKey: "sort.id_asc", Key: SortID, Dir: Asc},
		{Value: "id-desc", LabelKey: "sort.id_desc", Key: SortID, Dir: Desc},
		{Value: "date-asc", LabelKey: "sort.date_asc", Key: SortDate, Dir: Asc},
		{Value: "date-desc", LabelKey: "sort.date_desc", Key: SortDate, Dir: Desc},
	}
}

// ParseSortOption maps a select value like "name-desc" to key and direction.
// Unknown values fall back to no sorting.
func ParseSortOption(value string) (SortKey, Direction) {
	for _, opt := range SortOptions() {
		if opt.Value == value {
			return opt.Key, opt.Dir
		}
	}
	return SortNone, Asc
}

// OptionValue is the inverse of ParseSortOption.
func OptionValue(key SortKey, dir Direction) string {
	if key == SortNone || key == "" {
		return "none"
	}
	return string(key) + "-" + string(dir)
}

// Sort returns a new slice ordered by key and direction. The input is never
// modified. The sort is stable, so equal keys keep their input order, and
// SortNone returns the input order whatever the direction.
func Sort(records []models.Employee, key SortKey, dir Direction) []models.Employee {
	out := slices.Clone(records)
	compare := comparator(key)
	if compare == nil {
		return out
	}

	sign := 1
	if dir == Desc {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b models.Employee) int {
		return sign * compare(a, b)
	})

	return out
}

func comparator(key SortKey) func(a, b models.Employee) int {
	switch key {
	case SortName:
		return func(a, b models.Employee) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortEmail:
		return func(a, b models.Employee) int {
			return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
		}
	case SortID:
		return func(a, b models.Employee) int {
			return cmp.Compare(a.ID, b.ID)
		}
	case SortDate:
		return func(a, b models.Employee) int {
			return a.CreatedAt.Compare(b.CreatedAt.Time)
		}
	case SortNone:
		return nil
	default:
		return nil
	}
}
