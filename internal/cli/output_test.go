package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "inner"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())

	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open database", cause)
	assert.Equal(t, "failed to open database: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestPrinterText(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Format: "text", Out: &buf}

	require.NoError(t, p.OK(map[string]int{"n": 1}, func(w io.Writer) {
		fmt.Fprintln(w, "one")
	}))
	assert.Equal(t, "one\n", buf.String())
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Format: "json", Out: &buf}

	require.NoError(t, p.OK(map[string]int{"n": 1}, func(io.Writer) {
		t.Fatal("text renderer called in json mode")
	}))
	var got map[string]int
	resp := decodeData(t, buf.String(), &got)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]int{"n": 1}, got)
}

func TestPrinterFail(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Format: "json", Out: &buf}

	err := p.Fail(ExitFailure, CodeTestFailed, "2 failed", map[string]int{"failed": 2}, nil)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeData(t, buf.String(), nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTestFailed, resp.Error.Code)
	assert.Equal(t, "2 failed", resp.Error.Message)

	buf.Reset()
	p.Format = "text"
	err = p.Fail(ExitFailure, CodeTestFailed, "2 failed", nil, func(w io.Writer) {
		fmt.Fprintln(w, "✗ broken")
	})
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "✗ broken\n", buf.String())
}
