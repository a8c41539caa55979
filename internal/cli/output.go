package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // scenarios failed, replay diverged, config invalid
	ExitCommandError = 2 // bad flags, unreadable files, database errors
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the envelope of every --format json output.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes a failed command in JSON output.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes used in JSON output.
const (
	CodeConfigInvalid  = "E_CONFIG_INVALID"
	CodeTestFailed     = "E_TEST_FAILED"
	CodeReplayDiverged = "E_REPLAY_DIVERGED"
)

// Printer writes command results as text or JSON.
type Printer struct {
	Format string
	Out    io.Writer
}

// JSON reports whether output is JSON.
func (p *Printer) JSON() bool {
	return p.Format == "json"
}

// OK writes data as a successful JSON response. In text mode it calls text
// instead, which renders data however the command likes.
func (p *Printer) OK(data any, text func(w io.Writer)) error {
	if p.JSON() {
		return p.encode(Response{Status: "ok", Data: data})
	}
	text(p.Out)
	return nil
}

// Fail writes a failed response with data and returns an ExitError with
// code so the process exits accordingly.
func (p *Printer) Fail(exit int, code, message string, data any, text func(w io.Writer)) error {
	if p.JSON() {
		if err := p.encode(Response{
			Status: "error",
			Data:   data,
			Error:  &ResponseError{Code: code, Message: message},
		}); err != nil {
			return err
		}
	} else if text != nil {
		text(p.Out)
	}
	return NewExitError(exit, message)
}

func (p *Printer) encode(r Response) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
