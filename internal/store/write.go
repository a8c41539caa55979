package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/gavel/internal/ir"
)

// Meta keys.
const (
	MetaGenesis       = "genesis"
	MetaEngineVersion = "engine_version"
)

// WriteMeta stores value under key. Writing the same value again is a no-op;
// a different value is ErrConflict, since a chain's genesis never changes.
func (s *Store) WriteMeta(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write meta: begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&existing)
	switch {
	case err == nil:
		if existing != value {
			return fmt.Errorf("write meta %q: %w", key, ErrConflict)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("write meta %q: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("write meta %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write meta %q: commit: %w", key, err)
	}
	return nil
}

// WriteBlock stores a block with its calls, receipts and events in a single
// transaction. Writing an identical block again is a no-op, so a node that
// crashed after the commit can safely retry. A different block under the
// same number is ErrConflict.
func (s *Store) WriteBlock(ctx context.Context, b ir.Block) error {
	if len(b.Calls) != len(b.Receipts) {
		return fmt.Errorf("write block %d: %d calls but %d receipts", b.Number, len(b.Calls), len(b.Receipts))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write block %d: begin tx: %w", b.Number, err)
	}
	defer tx.Rollback() // No-op if committed

	var root, eventsHash string
	err = tx.QueryRowContext(ctx,
		`SELECT state_root, events_hash FROM blocks WHERE number = ?`, b.Number,
	).Scan(&root, &eventsHash)
	switch {
	case err == nil:
		if root != b.StateRoot || eventsHash != b.EventsHash {
			return fmt.Errorf("write block %d: %w", b.Number, ErrConflict)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("write block %d: %w", b.Number, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO blocks
		(number, state_root, events_hash, sweep_resolved, sweep_failed, sweep_deferred, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		b.Number,
		b.StateRoot,
		b.EventsHash,
		b.Sweep.Resolved,
		b.Sweep.Failed,
		b.Sweep.Deferred,
		b.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write block %d: %w", b.Number, err)
	}

	for i, call := range b.Calls {
		args, err := marshalObject(call.Args)
		if err != nil {
			return fmt.Errorf("write block %d call %d: %w", b.Number, i, err)
		}
		receipt := b.Receipts[i]
		if receipt.CallID != call.ID {
			return fmt.Errorf("write block %d: receipt %d is for call %s, not %s", b.Number, i, receipt.CallID, call.ID)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO calls (id, block, idx, origin, kind, args, outcome, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			call.ID,
			b.Number,
			call.Index,
			call.Origin,
			call.Kind,
			args,
			receipt.Outcome,
			receipt.Error,
		)
		if err != nil {
			return fmt.Errorf("write block %d call %d: %w", b.Number, i, err)
		}
	}

	for _, ev := range b.Events {
		payload, err := marshalObject(ev.Payload)
		if err != nil {
			return fmt.Errorf("write block %d event %d: %w", b.Number, ev.Index, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (block, idx, call_id, kind, payload)
			VALUES (?, ?, ?, ?, ?)
		`,
			b.Number,
			ev.Index,
			ev.CallID,
			ev.Kind,
			payload,
		)
		if err != nil {
			return fmt.Errorf("write block %d event %d: %w", b.Number, ev.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write block %d: commit: %w", b.Number, err)
	}
	return nil
}
