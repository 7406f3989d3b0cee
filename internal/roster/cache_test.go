package roster_test

import (
	"testing"

	"github.com/UnknownOlympus/roster/internal/models"
	"github.com/UnknownOlympus/roster/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	t.Parallel()

	counts := roster.Project(sampleRecords())

	assert.Equal(t, models.Counts{Total: 2, Active: 1}, counts)
	assert.Equal(t, 1, counts.Inactive())
	assert.Equal(t, models.Counts{}, roster.Project(nil))
}

func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("replace all drops later duplicates", func(t *testing.T) {
		t.Parallel()

		cache := roster.NewCache()
		dup := employee("k1", 9, "Impostor", "i@x.io", false)
		dropped := cache.ReplaceAll(append(sampleRecords(), dup))

		assert.Equal(t, 1, dropped)
		assert.Equal(t, []string{"k1", "k2"}, keys(cache.Records()))
		got, ok := cache.Get("k1")
		require.True(t, ok)
		assert.Equal(t, "Alice", got.Name)
	})

	t.Run("add appends and recounts", func(t *testing.T) {
		t.Parallel()

		cache := roster.NewCache()
		cache.ReplaceAll(sampleRecords())
		cache.Add(employee("k3", 3, "Cara", "c@x.io", true))

		assert.Equal(t, []string{"k1", "k2", "k3"}, keys(cache.Records()))
		assert.Equal(t, models.Counts{Total: 3, Active: 2}, cache.Counts())
	})

	t.Run("add with existing key replaces", func(t *testing.T) {
		t.Parallel()

		cache := roster.NewCache()
		cache.ReplaceAll(sampleRecords())
		cache.Add(employee("k2", 2, "Bob", "b@x.io", true))

		assert.Equal(t, 2, cache.Len())
		assert.Equal(t, models.Counts{Total: 2, Active: 2}, cache.Counts())
	})

	t.Run("replace never appends", func(t *testing.T) {
		t.Parallel()

		cache := roster.NewCache()
		cache.ReplaceAll(sampleRecords())

		assert.False(t, cache.Replace(employee("missing", 5, "X", "x@x.io", true)))
		assert.Equal(t, 2, cache.Len())
		assert.True(t, cache.Replace(employee("k1", 1, "Alice B", "a@x.io", false)))
		assert.Equal(t, models.Counts{Total: 2, Active: 0}, cache.Counts())
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()

		cache := roster.NewCache()
		cache.ReplaceAll(sampleRecords())

		assert.True(t, cache.Remove("k1"))
		assert.False(t, cache.Remove("k1"))
		assert.Equal(t, []string{"k2"}, keys(cache.Records()))
		assert.Equal(t, models.Counts{Total: 1, Active: 0}, cache.Counts())
	})

	t.Run("adopted counts are taken verbatim", func(t *testing.T) {
		t.Parallel()

		cache := roster.NewCache()
		cache.ReplaceAll(sampleRecords())
		cache.AdoptCounts(models.Counts{Total: 40, Active: 31})

		assert.Equal(t, models.Counts{Total: 40, Active: 31}, cache.Counts())
		assert.Equal(t, 9, cache.Counts().Inactive())
	})

	t.Run("records is a copy", func(t *testing.T) {
		t.Parallel()

		cache := roster.NewCache()
		cache.ReplaceAll(sampleRecords())
		records := cache.Records()
		records[0].IsActive = false

		got, _ := cache.Get("k1")
		assert.True(t, got.IsActive)
	})
}
