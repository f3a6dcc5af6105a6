package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Publisher pushes a serialized event to a user's live connections.
type Publisher interface {
	PublishEvent(userID int64, eventData []byte)
}

type Store struct {
	pool *pgxpool.Pool
	hub  Publisher
	*Queries
}

// NewStore wires the query layer to pool. hub may be nil, in which case
// events are only journaled.
func NewStore(pool *pgxpool.Pool, hub Publisher) *Store {
	return &Store{
		pool:    pool,
		hub:     hub,
		Queries: New(pool),
	}
}

func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := New(tx)
	err = fn(q)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) GetPool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
