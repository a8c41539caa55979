package testutil

import (
	"io"
	"log/slog"
)

// Logger returns a logger that drops everything. Engine and chain tests use
// it to keep per-call logs out of test output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
