package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/roster/internal/models"
)

var (
	// ErrToggleInFlight is returned when a status toggle for the same employee has not completed yet.
	ErrToggleInFlight = errors.New("status toggle already in progress for this employee")
	// ErrNotFound is returned when the list does not hold an employee with the given key.
	ErrNotFound = errors.New("employee is not in the list")
)

// Source is the part of the backend the list screen talks to.
type Source interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	ToggleStatus(ctx context.Context, key string, isActive bool) (models.StatusChange, error)
	// DeleteEmployee returns nil counts when the backend did not report any.
	DeleteEmployee(ctx context.Context, key string) (*models.Counts, error)
}

// View is the state of one list screen lifetime: the collection cache, the
// search query, the sort selection and the busy indicators.
//
// The mutex guards state only. It is never held while waiting on the
// backend, so other rows stay usable while one request is in flight, and
// every completion applies its result by key.
type View struct {
	mu       sync.RWMutex
	source   Source
	log      *slog.Logger
	cache    *Cache
	query    string
	sortKey  SortKey
	sortDir  Direction
	loading  int
	toggling map[string]struct{}
}

// Snapshot is a consistent copy of the view for rendering.
type Snapshot struct {
	Rows       []models.Employee
	Counts     models.Counts
	Query      string
	SortOption string
	Loading    bool
	Toggling   map[string]bool
}

// IsToggling is used by templates to disable a row's toggle control.
func (s Snapshot) IsToggling(key string) bool {
	return s.Toggling[key]
}

// NewView creates an empty view backed by source.
func NewView(source Source, log *slog.Logger) *View {
	return &View{
		source:   source,
		log:      log,
		cache:    NewCache(),
		sortKey:  SortNone,
		sortDir:  Asc,
		toggling: make(map[string]struct{}),
	}
}

// Load fetches the full collection and replaces the cache with it.
func (v *View) Load(ctx context.Context) error {
	v.setLoading(true)
	defer v.setLoading(false)

	records, err := v.source.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch employees: %w", err)
	}

	v.mu.Lock()
	dropped := v.cache.ReplaceAll(records)
	count := v.cache.Len()
	v.mu.Unlock()

	if dropped > 0 {
		v.log.WarnContext(ctx, "Backend returned duplicate employee keys", "dropped", dropped)
	}
	v.log.DebugContext(ctx, "Employee list loaded", "count", count)

	return nil
}

// SetQuery changes the search query.
func (v *View) SetQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.query = query
}

// SetSort changes the sort selection.
func (v *View) SetSort(key SortKey, dir Direction) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.sortKey = key
	v.sortDir = dir
}

// Rows returns the rendered rows: the cache filtered by the query, then sorted.
func (v *View) Rows() []models.Employee {
	v.mu.RLock()
	records := v.cache.Records()
	query, key, dir := v.query, v.sortKey, v.sortDir
	v.mu.RUnlock()

	return Sort(Filter(records, query), key, dir)
}

// Counts returns the displayed counts.
func (v *View) Counts() models.Counts {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.cache.Counts()
}

// Loading reports whether a fetch or delete is in flight.
func (v *View) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.loading > 0
}

// IsToggling reports whether a status toggle for key is in flight.
func (v *View) IsToggling(key string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	_, ok := v.toggling[key]
	return ok
}

// Get returns the cached record by key.
func (v *View) Get(key string) (models.Employee, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.cache.Get(key)
}

// Snapshot returns rows, counts and busy state taken under a single lock.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	records := v.cache.Records()
	snap := Snapshot{
		Counts:     v.cache.Counts(),
		Query:      v.query,
		SortOption: OptionValue(v.sortKey, v.sortDir),
		Loading:    v.loading > 0,
		Toggling:   make(map[string]bool, len(v.toggling)),
	}
	for key := range v.toggling {
		snap.Toggling[key] = true
	}
	key, dir, query := v.sortKey, v.sortDir, v.query
	v.mu.RUnlock()

	snap.Rows = Sort(Filter(records, query), key, dir)
	return snap
}

// Toggle asks the backend to flip the activity flag of the employee with the
// given key. The cached record is only touched after the backend confirms:
// it is then replaced by the returned record and the returned counts are
// adopted as is. On failure the cache and counts are left unchanged.
func (v *View) Toggle(ctx context.Context, key string) (models.Employee, error) {
	v.mu.Lock()
	current, ok := v.cache.Get(key)
	if !ok {
		v.mu.Unlock()
		return models.Employee{}, ErrNotFound
	}
	if _, busy := v.toggling[key]; busy {
		v.mu.Unlock()
		return models.Employee{}, ErrToggleInFlight
	}
	v.toggling[key] = struct{}{}
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		delete(v.toggling, key)
		v.mu.Unlock()
	}()

	change, err := v.source.ToggleStatus(ctx, key, !current.IsActive)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to toggle employee status: %w", err)
	}

	v.mu.Lock()
	replaced := v.cache.Replace(change.Employee)
	v.cache.AdoptCounts(change.Counts)
	v.mu.Unlock()

	if !replaced {
		v.log.WarnContext(ctx, "Toggled employee is no longer in the list", "key", change.Employee.Key)
	}

	return change.Employee, nil
}

// Delete removes the employee on the backend and, once confirmed, from the
// cache. Counts reported by the backend are adopted as is.
func (v *View) Delete(ctx context.Context, key string) error {
	if _, ok := v.Get(key); !ok {
		return ErrNotFound
	}

	v.setLoading(true)
	defer v.setLoading(false)

	counts, err := v.source.DeleteEmployee(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	v.mu.Lock()
	v.cache.Remove(key)
	if counts != nil {
		v.cache.AdoptCounts(*counts)
	}
	v.mu.Unlock()

	return nil
}

// Upsert stores a record returned by a create or edit.
func (v *View) Upsert(emp models.Employee) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cache.Add(emp)
}

func (v *View) setLoading(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if on {
		v.loading++
	} else if v.loading > 0 {
		v.loading--
	}
}
