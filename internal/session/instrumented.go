package session

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/roster/internal/metrics"
)

// InstrumentedStore counts the operations of the wrapped store.
type InstrumentedStore struct {
	Store
	metrics *metrics.Metrics
}

func NewInstrumentedStore(store Store, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{Store: store, metrics: m}
}

func (s *InstrumentedStore) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Store.Get(ctx, id)
	s.observe("get", err)
	return sess, err
}

func (s *InstrumentedStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	err := s.Store.Save(ctx, sess, ttl)
	s.observe("save", err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, id string) error {
	err := s.Store.Delete(ctx, id)
	s.observe("delete", err)
	return err
}

func (s *InstrumentedStore) observe(op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		result = "miss"
	case err != nil:
		result = "error"
	}
	s.metrics.SessionStoreOps.WithLabelValues(op, result).Inc()
}
