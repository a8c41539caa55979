package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/gavel/internal/chain"
	"github.com/roach88/gavel/internal/config"
	"github.com/roach88/gavel/internal/ir"
	"github.com/roach88/gavel/internal/store"
)

// dbPath returns --db, falling back to the database named in the config.
func dbPath(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Chain.Database
}

// chainGenesis returns the genesis of the log in st. A new log adopts the
// config's genesis. An existing log keeps its own, and an explicit config
// that disagrees with it is an error.
func chainGenesis(ctx context.Context, st *store.Store, cfg config.Config, explicit bool, logger *slog.Logger) (chain.Genesis, error) {
	want := cfg.ChainGenesis()
	encoded, err := want.Encode()
	if err != nil {
		return chain.Genesis{}, err
	}

	stored, err := st.ReadMeta(ctx, store.MetaGenesis)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := st.WriteMeta(ctx, store.MetaGenesis, encoded); err != nil {
			return chain.Genesis{}, err
		}
		if err := st.WriteMeta(ctx, store.MetaEngineVersion, ir.EngineVersion); err != nil {
			return chain.Genesis{}, err
		}
		logger.Info("new chain", "accounts", len(want.Accounts), "collections", len(want.Collections))
		return want, nil
	case err != nil:
		return chain.Genesis{}, err
	}

	if explicit && stored != encoded {
		return chain.Genesis{}, errors.New("database was created from a different genesis than --config")
	}
	if v, err := st.ReadMeta(ctx, store.MetaEngineVersion); err == nil && v != ir.EngineVersion {
		logger.Warn("database written by another engine version", "stored", v, "running", ir.EngineVersion)
	}
	return chain.DecodeGenesis(stored)
}

// openChain opens the log at path and rebuilds the chain it describes by
// re-applying every stored block. Block writes are idempotent, so the
// rebuilt chain keeps appending to the same log; a stored block that no
// longer reproduces fails with store.ErrConflict.
func openChain(ctx context.Context, path string, opts *RootOptions, logger *slog.Logger) (*chain.Chain, *store.Store, config.Config, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, nil, config.Config{}, err
	}
	path = dbPath(path, cfg)

	st, err := store.Open(path)
	if err != nil {
		return nil, nil, cfg, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	c, err := restore(ctx, st, cfg, opts.Config != "", logger)
	if err != nil {
		st.Close()
		return nil, nil, cfg, err
	}
	return c, st, cfg, nil
}

func restore(ctx context.Context, st *store.Store, cfg config.Config, explicit bool, logger *slog.Logger) (*chain.Chain, error) {
	g, err := chainGenesis(ctx, st, cfg, explicit, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read genesis", err)
	}
	blocks, err := st.ReadBlocks(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read blocks", err)
	}

	c, err := chain.New(g, chain.WithStore(st), chain.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build chain", err)
	}
	if err := reapply(ctx, c, blocks); err != nil {
		return nil, err
	}
	if len(blocks) > 0 {
		logger.Info("chain restored", "head", c.Head(), "state_root", c.StateRoot())
	}
	return c, nil
}

// reapply runs stored blocks on c in order.
func reapply(ctx context.Context, c *chain.Chain, blocks []ir.Block) error {
	for _, b := range blocks {
		calls := make([]ir.Call, len(b.Calls))
		for i, call := range b.Calls {
			calls[i] = ir.Call{Origin: call.Origin, Kind: call.Kind, Args: call.Args}
		}
		if _, err := c.ApplyBlock(ctx, b.Number, calls); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("stored block %d does not reproduce", b.Number), err)
		}
	}
	return nil
}
