package roster_test

import (
	"testing"

	"github.com/UnknownOlympus/roster/internal/models"
	"github.com/UnknownOlympus/roster/internal/roster"
	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	records = append(records, models.Employee{
		Key:         "k3",
		ID:          17,
		Name:        "Carol",
		Email:       "carol@corp.io",
		Mobile:      "5550001",
		Designation: models.DesignationSales,
	})

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "empty query returns everything", query: "", expected: []string{"k1", "k2", "k3"}},
		{name: "name is case-insensitive", query: "OB", expected: []string{"k2"}},
		{name: "email substring", query: "CORP", expected: []string{"k3"}},
		{name: "designation", query: "sales", expected: []string{"k3"}},
		{name: "sequential id", query: "17", expected: []string{"k3"}},
		{name: "mobile", query: "5550", expected: []string{"k3"}},
		{name: "no match", query: "zzz", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := roster.Filter(records, tt.query)
			assert.Equal(t, tt.expected, keys(got))
		})
	}
}

func TestFilter_IsSubsetInOrder(t *testing.T) {
	t.Parallel()

	records := []models.Employee{
		employee("a", 1, "Ann", "ann@x.io", true),
		employee("b", 2, "Bert", "bert@y.io", true),
		employee("c", 3, "Anna", "anna@x.io", false),
	}

	got := roster.Filter(records, "ann")

	assert.Equal(t, []string{"a", "c"}, keys(got))
	assert.Len(t, records, 3, "input must not change")
}

func TestFilter_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	got := roster.Filter(records, "")
	got[0].Name = "changed"

	assert.Equal(t, "Alice", records[0].Name)
}
