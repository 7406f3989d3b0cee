package roster

import (
	"slices"

	"github.com/UnknownOlympus/roster/internal/models"
)

// Project is the count projector: a full recount over the records.
func Project(records []models.Employee) models.Counts {
	counts := models.Counts{Total: len(records)}
	for _, emp := range records {
		if emp.IsActive {
			counts.Active++
		}
	}
	return counts
}

// Cache is the client-held working set of the list screen. It keeps records
// in fetch order, never holds two records with the same key, and recounts
// after every mutation. Cache is not safe for concurrent use; View guards it.
type Cache struct {
	records []models.Employee
	counts  models.Counts
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// ReplaceAll swaps the whole collection after a fetch. A key seen twice keeps
// its first occurrence. It returns the number of dropped duplicates.
func (c *Cache) ReplaceAll(records []models.Employee) int {
	seen := make(map[string]struct{}, len(records))
	next := make([]models.Employee, 0, len(records))
	dropped := 0
	for _, emp := range records {
		if _, dup := seen[emp.Key]; dup {
			dropped++
			continue
		}
		seen[emp.Key] = struct{}{}
		next = append(next, emp)
	}

	c.records = next
	c.recount()
	return dropped
}

// Add appends a newly created record, or replaces the record holding the
// same key.
func (c *Cache) Add(emp models.Employee) {
	if idx := c.index(emp.Key); idx >= 0 {
		c.records[idx] = emp
	} else {
		c.records = append(c.records, emp)
	}
	c.recount()
}

// Replace swaps the cached copy of emp by key. It never appends: a record the
// cache does not hold is ignored and false is returned.
func (c *Cache) Replace(emp models.Employee) bool {
	idx := c.index(emp.Key)
	if idx < 0 {
		return false
	}
	c.records[idx] = emp
	c.recount()
	return true
}

// Remove deletes the record with the given key.
func (c *Cache) Remove(key string) bool {
	idx := c.index(key)
	if idx < 0 {
		return false
	}
	c.records = slices.Delete(c.records, idx, idx+1)
	c.recount()
	return true
}

// Get returns the cached record by key.
func (c *Cache) Get(key string) (models.Employee, bool) {
	idx := c.index(key)
	if idx < 0 {
		return models.Employee{}, false
	}
	return c.records[idx], true
}

// Records returns a copy of the collection in fetch order.
func (c *Cache) Records() []models.Employee {
	return slices.Clone(c.records)
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return len(c.records)
}

// Counts returns the counts currently displayed.
func (c *Cache) Counts() models.Counts {
	return c.counts
}

// AdoptCounts takes the backend's authoritative counts verbatim. It must only
// be called after a confirmed mutation.
func (c *Cache) AdoptCounts(counts models.Counts) {
	c.counts = counts
}

func (c *Cache) recount() {
	c.counts = Project(c.records)
}

func (c *Cache) index(key string) int {
	return slices.IndexFunc(c.records, func(emp models.Employee) bool {
		return emp.Key == key
	})
}
