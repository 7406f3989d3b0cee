package roster_test

import (
	"time"

	"github.com/UnknownOlympus/roster/internal/models"
)

func employee(key string, id int64, name, email string, active bool) models.Employee {
	return models.Employee{
		Key:         key,
		ID:          models.SequenceID(id),
		Name:        name,
		Email:       email,
		Mobile:      models.Mobile("98765" + key),
		Designation: models.DesignationHR,
		Gender:      models.GenderFemale,
		Courses:     models.Courses{models.CourseMCA},
		IsActive:    active,
		CreatedAt:   models.Timestamp{Time: time.Date(2024, 1, int(id), 10, 0, 0, 0, time.UTC)},
	}
}

// sampleRecords is the list used across scenarios: Alice (active) and bob (inactive).
func sampleRecords() []models.Employee {
	return []models.Employee{
		employee("k1", 1, "Alice", "a@x.io", true),
		employee("k2", 2, "bob", "b@x.io", false),
	}
}

func keys(records []models.Employee) []string {
	out := make([]string, 0, len(records))
	for _, emp := range records {
		out = append(out, emp.Key)
	}
	return out
}
