package roster_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/UnknownOlympus/roster/internal/models"
	"github.com/UnknownOlympus/roster/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend exploded")

// fakeSource plays the backend. When gate is set, mutations block until
// the test releases them, which lets the test order completions.
type fakeSource struct {
	mu        sync.Mutex
	records   []models.Employee
	listErr   error
	toggleErr error
	deleteErr error
	counts    *models.Counts
	gate      map[string]chan struct{}
	started   chan string
	toggled   []bool
	deleted   []string
}

func newFakeSource(records []models.Employee) *fakeSource {
	return &fakeSource{
		records: records,
		gate:    make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

func (f *fakeSource) hold(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan struct{})
	f.gate[key] = ch
	return ch
}

func (f *fakeSource) wait(ctx context.Context, key string) error {
	f.mu.Lock()
	ch, ok := f.gate[key]
	f.mu.Unlock()

	f.started <- key
	if !ok {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) ListEmployees(_ context.Context) ([]models.Employee, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeSource) ToggleStatus(ctx context.Context, key string, isActive bool) (models.StatusChange, error) {
	if err := f.wait(ctx, key); err != nil {
		return models.StatusChange{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.toggled = append(f.toggled, isActive)
	if f.toggleErr != nil {
		return models.StatusChange{}, f.toggleErr
	}

	var updated models.Employee
	for i := range f.records {
		if f.records[i].Key == key {
			f.records[i].IsActive = isActive
			updated = f.records[i]
		}
	}
	return models.StatusChange{Employee: updated, Counts: roster.Project(f.records)}, nil
}

func (f *fakeSource) DeleteEmployee(ctx context.Context, key string) (*models.Counts, error) {
	if err := f.wait(ctx, key); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, key)

	kept := f.records[:0:0]
	for _, emp := range f.records {
		if emp.Key != key {
			kept = append(kept, emp)
		}
	}
	f.records = kept
	if f.counts != nil {
		return f.counts, nil
	}
	counts := roster.Project(f.records)
	return &counts, nil
}

func newLoadedView(t *testing.T, source *fakeSource) *roster.View {
	t.Helper()

	view := roster.NewView(source, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, view.Load(context.Background()))
	return view
}

func TestView_Load(t *testing.T) {
	t.Parallel()

	t.Run("populates rows and counts", func(t *testing.T) {
		t.Parallel()

		view := newLoadedView(t, newFakeSource(sampleRecords()))

		assert.Equal(t, []string{"k1", "k2"}, keys(view.Rows()))
		assert.Equal(t, models.Counts{Total: 2, Active: 1}, view.Counts())
		assert.Equal(t, 1, view.Counts().Inactive())
		assert.False(t, view.Loading())
	})

	t.Run("failure keeps previous state", func(t *testing.T) {
		t.Parallel()

		source := newFakeSource(sampleRecords())
		view := newLoadedView(t, source)
		source.listErr = errBackend

		err := view.Load(context.Background())

		require.ErrorIs(t, err, errBackend)
		assert.Equal(t, []string{"k1", "k2"}, keys(view.Rows()))
		assert.False(t, view.Loading())
	})
}

func TestView_QueryAndSort(t *testing.T) {
	t.Parallel()

	view := newLoadedView(t, newFakeSource(sampleRecords()))

	view.SetQuery("OB")
	assert.Equal(t, []string{"k2"}, keys(view.Rows()))
	assert.Equal(t, models.Counts{Total: 2, Active: 1}, view.Counts(), "counts ignore the filter")

	view.SetQuery("")
	view.SetSort(roster.SortName, roster.Desc)
	assert.Equal(t, []string{"k2", "k1"}, keys(view.Rows()))

	snap := view.Snapshot()
	assert.Equal(t, "name-desc", snap.SortOption)
	assert.Equal(t, []string{"k2", "k1"}, keys(snap.Rows))
}

func TestView_Toggle(t *testing.T) {
	t.Parallel()

	t.Run("success replaces record and adopts counts", func(t *testing.T) {
		t.Parallel()

		source := newFakeSource(sampleRecords())
		view := newLoadedView(t, source)

		updated, err := view.Toggle(context.Background(), "k2")

		require.NoError(t, err)
		assert.True(t, updated.IsActive)
		assert.Equal(t, []bool{true}, source.toggled, "requests the negation of the current flag")

		rows := view.Rows()
		assert.True(t, rows[0].IsActive)
		assert.True(t, rows[1].IsActive)
		assert.Equal(t, models.Counts{Total: 2, Active: 2}, view.Counts())
		assert.Equal(t, 0, view.Counts().Inactive())
		assert.False(t, view.IsToggling("k2"))
	})

	t.Run("toggling twice restores original state", func(t *testing.T) {
		t.Parallel()

		view := newLoadedView(t, newFakeSource(sampleRecords()))

		_, err := view.Toggle(context.Background(), "k1")
		require.NoError(t, err)
		_, err = view.Toggle(context.Background(), "k1")
		require.NoError(t, err)

		got, ok := view.Get("k1")
		require.True(t, ok)
		assert.True(t, got.IsActive)
		assert.Equal(t, models.Counts{Total: 2, Active: 1}, view.Counts())
	})

	t.Run("failure leaves state unchanged", func(t *testing.T) {
		t.Parallel()

		source := newFakeSource(sampleRecords())
		view := newLoadedView(t, source)
		source.toggleErr = errBackend

		_, err := view.Toggle(context.Background(), "k1")

		require.ErrorIs(t, err, errBackend)
		got, _ := view.Get("k1")
		assert.True(t, got.IsActive)
		assert.Equal(t, models.Counts{Total: 2, Active: 1}, view.Counts())
		assert.False(t, view.IsToggling("k1"))
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		view := newLoadedView(t, newFakeSource(sampleRecords()))

		_, err := view.Toggle(context.Background(), "nope")
		require.ErrorIs(t, err, roster.ErrNotFound)
	})

	t.Run("second toggle while in flight is rejected", func(t *testing.T) {
		t.Parallel()

		source := newFakeSource(sampleRecords())
		view := newLoadedView(t, source)
		release := source.hold("k1")

		done := make(chan error, 1)
		go func() {
			_, err := view.Toggle(context.Background(), "k1")
			done <- err
		}()
		<-source.started

		assert.True(t, view.IsToggling("k1"))
		assert.True(t, view.Snapshot().IsToggling("k1"))
		got, _ := view.Get("k1")
		assert.True(t, got.IsActive, "no optimistic flip")

		_, err := view.Toggle(context.Background(), "k1")
		require.ErrorIs(t, err, roster.ErrToggleInFlight)

		_, err = view.Toggle(context.Background(), "k2")
		require.NoError(t, err, "other rows stay usable")

		close(release)
		require.NoError(t, <-done)
		assert.False(t, view.IsToggling("k1"))
		assert.Equal(t, []bool{true, false}, source.toggled)
	})
}

func TestView_Delete(t *testing.T) {
	t.Parallel()

	t.Run("success removes record and adopts counts", func(t *testing.T) {
		t.Parallel()

		view := newLoadedView(t, newFakeSource(sampleRecords()))

		require.NoError(t, view.Delete(context.Background(), "k1"))

		assert.Equal(t, []string{"k2"}, keys(view.Rows()))
		assert.Equal(t, models.Counts{Total: 1, Active: 0}, view.Counts())
		assert.False(t, view.Loading())
	})

	t.Run("server counts win over local recount", func(t *testing.T) {
		t.Parallel()

		source := newFakeSource(sampleRecords())
		source.counts = &models.Counts{Total: 12, Active: 7}
		view := newLoadedView(t, source)

		require.NoError(t, view.Delete(context.Background(), "k2"))
		assert.Equal(t, models.Counts{Total: 12, Active: 7}, view.Counts())
	})

	t.Run("failure leaves state unchanged", func(t *testing.T) {
		t.Parallel()

		source := newFakeSource(sampleRecords())
		view := newLoadedView(t, source)
		source.deleteErr = errBackend

		err := view.Delete(context.Background(), "k1")

		require.ErrorIs(t, err, errBackend)
		assert.Equal(t, []string{"k1", "k2"}, keys(view.Rows()))
		assert.Equal(t, models.Counts{Total: 2, Active: 1}, view.Counts())
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		view := newLoadedView(t, newFakeSource(sampleRecords()))
		require.ErrorIs(t, view.Delete(context.Background(), "nope"), roster.ErrNotFound)
	})
}

func TestView_OutOfOrderCompletion(t *testing.T) {
	t.Parallel()

	source := newFakeSource(sampleRecords())
	view := newLoadedView(t, source)
	release := source.hold("k2")

	done := make(chan error, 1)
	go func() {
		_, err := view.Toggle(context.Background(), "k2")
		done <- err
	}()
	<-source.started

	// The delete of k1 completes while the toggle of k2 is still pending.
	require.NoError(t, view.Delete(context.Background(), "k1"))
	<-source.started

	close(release)
	require.NoError(t, <-done)

	rows := view.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "k2", rows[0].Key)
	assert.True(t, rows[0].IsActive)
	assert.Equal(t, models.Counts{Total: 1, Active: 1}, view.Counts())
}

func TestView_Upsert(t *testing.T) {
	t.Parallel()

	view := newLoadedView(t, newFakeSource(sampleRecords()))
	view.Upsert(employee("k3", 3, "Cara", "c@x.io", true))

	assert.Equal(t, []string{"k1", "k2", "k3"}, keys(view.Rows()))
	assert.Equal(t, models.Counts{Total: 3, Active: 2}, view.Counts())
}

func TestViews(t *testing.T) {
	t.Parallel()

	views := roster.NewViews()
	source := newFakeSource(sampleRecords())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first := views.Mount("s1", roster.NewView(source, logger))
	got, ok := views.Get("s1")
	require.True(t, ok)
	assert.Same(t, first, got)

	second := views.Mount("s1", roster.NewView(source, logger))
	got, _ = views.Get("s1")
	assert.Same(t, second, got, "mounting again rebuilds the view")
	assert.Equal(t, 1, views.Len())

	views.Unmount("s1")
	_, ok = views.Get("s1")
	assert.False(t, ok)
}
