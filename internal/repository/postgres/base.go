package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/trials-api/internal/repository"
	"github.com/jwalitptl/trials-api/pkg/metrics"
)

// Store is the PostgreSQL implementation of repository.Store. The zero
// transaction field means repositories run against the pool.
type Store struct {
	db      *sqlx.DB
	ext     sqlx.ExtContext
	tx      *sqlx.Tx
	metrics *metrics.Metrics
	breaker *gobreaker.CircuitBreaker
}

type StoreOption func(*Store)

// BreakerConfig controls shedding of transactions while the database refuses
// connections. Failures <= 0 disables the breaker.
type BreakerConfig struct {
	Failures uint32
	Timeout  time.Duration
}

// WithBreaker trips after cfg.Failures consecutive failures to open a
// transaction and rejects new ones with repository.ErrUnavailable until
// cfg.Timeout has passed.
func WithBreaker(cfg BreakerConfig) StoreOption {
	return func(s *Store) {
		if cfg.Failures == 0 {
			return
		}
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "postgres",
			MaxRequests: 1,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Failures
			},
			// a client hanging up says nothing about the database
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		})
	}
}

// NewStore wraps a connection pool. m may be nil.
func NewStore(db *sqlx.DB, m *metrics.Metrics, opts ...StoreOption) *Store {
	s := &Store{db: db, ext: db, metrics: m}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{db: s.ext}
}

func (s *Store) Visits() repository.VisitRepository {
	return &visitRepository{db: s.ext}
}

func (s *Store) Measurements() repository.MeasurementRepository {
	return &measurementRepository{db: s.ext}
}

// WithTx executes a function within a transaction
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	start := time.Now()
	tx, err := s.begin(ctx)
	if err != nil {
		s.observe("error", start)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			s.observe("rollback", start)
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, ext: tx, tx: tx, metrics: s.metrics, breaker: s.breaker}); err != nil {
		tx.Rollback()
		s.observe("rollback", start)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.observe("error", start)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.observe("commit", start)
	return nil
}

func (s *Store) begin(ctx context.Context) (*sqlx.Tx, error) {
	if s.breaker == nil {
		return s.db.BeginTxx(ctx, nil)
	}
	tx, err := s.breaker.Execute(func() (interface{}, error) {
		return s.db.BeginTxx(ctx, nil)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return tx.(*sqlx.Tx), nil
}

func (s *Store) observe(outcome string, start time.Time) {
	s.metrics.ObserveTransaction(outcome, time.Since(start).Seconds())
}
