package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/gavel/internal/ir"
)

// ReadMeta returns the value stored under key, or ErrNotFound.
func (s *Store) ReadMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read meta %q: %w", key, err)
	}
	return value, nil
}

// LatestBlock returns the highest stored block number, or 0 when the log is
// empty.
func (s *Store) LatestBlock(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(number) FROM blocks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	return n.Int64, nil
}

// ReadBlock returns one block with its calls, receipts and events.
func (s *Store) ReadBlock(ctx context.Context, number int64) (ir.Block, error) {
	blocks, err := s.readBlocks(ctx, `WHERE number = ?`, number)
	if err != nil {
		return ir.Block{}, err
	}
	if len(blocks) == 0 {
		return ir.Block{}, fmt.Errorf("block %d: %w", number, ErrNotFound)
	}
	return blocks[0], nil
}

// ReadBlocks returns every block in ascending order.
//
// Returns an empty slice (not nil) for an empty log.
func (s *Store) ReadBlocks(ctx context.Context) ([]ir.Block, error) {
	return s.readBlocks(ctx, "")
}

func (s *Store) readBlocks(ctx context.Context, where string, args ...any) ([]ir.Block, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, state_root, events_hash, sweep_resolved, sweep_failed, sweep_deferred, engine_version
		FROM blocks `+where+`
		ORDER BY number ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	blocks := []ir.Block{}
	for rows.Next() {
		var b ir.Block
		if err := rows.Scan(
			&b.Number,
			&b.StateRoot,
			&b.EventsHash,
			&b.Sweep.Resolved,
			&b.Sweep.Failed,
			&b.Sweep.Deferred,
			&b.EngineVersion,
		); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	rows.Close()

	for i := range blocks {
		if err := s.fillBlock(ctx, &blocks[i]); err != nil {
			return nil, err
		}
	}
	return blocks, nil
}

func (s *Store) fillBlock(ctx context.Context, b *ir.Block) error {
	calls, receipts, err := s.readCalls(ctx, b.Number)
	if err != nil {
		return err
	}
	events, err := s.readEvents(ctx, `WHERE block = ?`, b.Number)
	if err != nil {
		return err
	}
	b.Calls, b.Receipts, b.Events = calls, receipts, events
	return nil
}

func (s *Store) readCalls(ctx context.Context, block int64) ([]ir.Call, []ir.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, idx, origin, kind, args, outcome, error
		FROM calls
		WHERE block = ?
		ORDER BY idx ASC
	`, block)
	if err != nil {
		return nil, nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []ir.Call{}
	receipts := []ir.Receipt{}
	for rows.Next() {
		var (
			c    ir.Call
			r    ir.Receipt
			args string
		)
		if err := rows.Scan(&c.ID, &c.Index, &c.Origin, &c.Kind, &args, &r.Outcome, &r.Error); err != nil {
			return nil, nil, fmt.Errorf("scan call: %w", err)
		}
		if c.Args, err = unmarshalObject(args); err != nil {
			return nil, nil, fmt.Errorf("call %s: %w", c.ID, err)
		}
		c.Block = block
		r.CallID = c.ID
		calls = append(calls, c)
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, receipts, nil
}

// ReadEvents returns every event of the given kind, or of every kind when
// kind is empty, ordered by (block, index).
func (s *Store) ReadEvents(ctx context.Context, kind string) ([]ir.EventRecord, error) {
	if kind == "" {
		return s.readEvents(ctx, "")
	}
	return s.readEvents(ctx, `WHERE kind = ?`, kind)
}

func (s *Store) readEvents(ctx context.Context, where string, args ...any) ([]ir.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT block, idx, call_id, kind, payload
		FROM events `+where+`
		ORDER BY block ASC, idx ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.EventRecord{}
	for rows.Next() {
		var (
			ev      ir.EventRecord
			payload string
		)
		if err := rows.Scan(&ev.Block, &ev.Index, &ev.CallID, &ev.Kind, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.Payload, err = unmarshalObject(payload); err != nil {
			return nil, fmt.Errorf("event %d/%d: %w", ev.Block, ev.Index, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
