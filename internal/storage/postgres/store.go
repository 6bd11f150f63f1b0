package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokenlaunch/internal/event"
)

// LaunchRow is the persisted view of one launch.
type LaunchRow struct {
	TokenAddress string
	Creator      string
	Name         string
	Symbol       string
	State        string
	PairID       string
	PositionID   uint64
	PoolAddress  string
}

// Store provides Postgres persistence for launches and their event log.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertLaunches inserts or updates launch records.
func (s *Store) UpsertLaunches(ctx context.Context, rows []LaunchRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO launches (
				token_address, creator, name, symbol, state, pair_id, position_id, pool_address, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (token_address)
			DO UPDATE SET
				state = EXCLUDED.state,
				position_id = EXCLUDED.position_id,
				pool_address = EXCLUDED.pool_address,
				updated_at = now()
		`,
			row.TokenAddress,
			row.Creator,
			row.Name,
			row.Symbol,
			row.State,
			row.PairID,
			int64(row.PositionID),
			row.PoolAddress,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// AppendEvents archives a batch of engine events.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		batch.Queue(`
			INSERT INTO launch_events (sequence, event_ts, name, payload)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (sequence) DO NOTHING
		`,
			int64(ev.Sequence),
			ev.Timestamp,
			ev.Name,
			payload,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last archived event sequence for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq uint64
	row := s.pool.QueryRow(ctx, `SELECT last_sequence FROM launch_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seq, true, nil
}

// SaveState upserts the last archived event sequence for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO launch_state (name, last_sequence, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_sequence = EXCLUDED.last_sequence, updated_at = now()
	`, name, seq)
	return err
}

// Sink adapts the store into an event sink for the emitter.
func (s *Store) Sink(ctx context.Context) event.Sink {
	return &storeSink{ctx: ctx, store: s}
}

type storeSink struct {
	ctx   context.Context
	store *Store
}

func (ss *storeSink) Put(ev event.Event) error {
	return ss.store.AppendEvents(ss.ctx, []event.Event{ev})
}
