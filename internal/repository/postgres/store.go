package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"drivemate/internal/repository"
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

// Repos returns repositories bound to the connection pool.
func (s *Store) Repos() repository.Repositories {
	return reposFor(s.db)
}

// WithinTx runs fn in a read-committed transaction. Locks taken by
// ForUpdate reads inside fn are released on commit or rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, reposFor(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func reposFor(q Querier) repository.Repositories {
	return repository.Repositories{
		Rides:    NewRideRepository(q),
		Requests: NewRideRequestRepository(q),
		Drivers:  NewDriverRepository(q),
		Vehicles: NewVehicleRepository(q),
		Payments: NewPaymentRepository(q),
		Ratings:  NewRatingRepository(q),
		Purposes: NewPurposeRepository(q),
	}
}
