package chain

import (
	"errors"
	"fmt"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/ir"
	"github.com/roach88/gavel/internal/ledger"
	"github.com/roach88/gavel/internal/registry"
)

// DispatchError is a call the chain could not hand to the engine at all.
type DispatchError struct {
	// Code identifies the error category and becomes the receipt outcome.
	Code DispatchErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the call kind as submitted.
	Kind string
}

// DispatchErrorCode categorizes dispatch errors.
type DispatchErrorCode string

const (
	// ErrCodeUnknownCall indicates a call kind the chain does not route.
	ErrCodeUnknownCall DispatchErrorCode = "UnknownCall"

	// ErrCodeInvalidArgs indicates missing or malformed call arguments.
	ErrCodeInvalidArgs DispatchErrorCode = "InvalidArgs"

	// ErrCodeInvalidOrigin indicates an empty origin.
	ErrCodeInvalidOrigin DispatchErrorCode = "InvalidOrigin"
)

func (e *DispatchError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidArgs(kind string, err error) *DispatchError {
	return &DispatchError{Code: ErrCodeInvalidArgs, Message: err.Error(), Kind: kind}
}

// Receipt outcomes for collaborator failures that carry no code of their own.
const (
	OutcomeInsufficientBalance = "InsufficientBalance"
	OutcomeOverflow            = "Overflow"
	OutcomeAssetFrozen         = "AssetFrozen"
	OutcomeFailed              = "Failed"
)

// Outcome maps the result of a dispatched call to its receipt outcome.
func Outcome(err error) string {
	if err == nil {
		return ir.OutcomeOK
	}
	if code, ok := auction.CodeOf(err); ok {
		return string(code)
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return OutcomeInsufficientBalance
	case errors.Is(err, ledger.ErrOverflow):
		return OutcomeOverflow
	case errors.Is(err, registry.ErrFrozen):
		return OutcomeAssetFrozen
	}
	return OutcomeFailed
}
