package repository

import (
	"context"

	"github.com/aulaflow/streaks-backend/internal/domain"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/driver"
)

// Store implements domain.StreakStore on top of ITransactionalDB. A Store
// built from the pool runs each statement on its own connection; Atomic
// rebinds every repository to one transaction so the enclosed work commits
// or rolls back as a unit.
type Store struct {
	conn        driver.ITransactionalDB
	completions *CompletionRepository
	streaks     *StreakRepository
	badges      *BadgeRepository
	history     *HistoryRepository
}

var _ domain.StreakStore = &Store{}

func NewStore(conn driver.ITransactionalDB) *Store {
	return &Store{
		conn:        conn,
		completions: NewCompletionRepository(conn),
		streaks:     NewStreakRepository(conn),
		badges:      NewBadgeRepository(conn),
		history:     NewHistoryRepository(conn),
	}
}

func (s *Store) Completions() domain.CompletionRepository {
	return s.completions
}

func (s *Store) Streaks() domain.StreakRepository {
	return s.streaks
}

func (s *Store) Badges() domain.BadgeRepository {
	return s.badges
}

func (s *Store) History() domain.HistoryRepository {
	return s.history
}

// Atomic runs fn against a tx-bound Store. The transaction commits only if
// fn returns nil; any error rolls everything back and is returned as-is.
func (s *Store) Atomic(ctx context.Context, fn func(domain.StreakStore) error) error {
	tx, err := s.conn.BeginTx(ctx, &driver.TxOptions{AccessMode: driver.AccessReadWrite})
	if err != nil {
		return err
	}
	if err := fn(NewStore(tx)); err != nil {
		tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
