package auction

import (
	"errors"
	"fmt"
)

// Code identifies a validation failure. Codes are stable: they are written
// into receipts and compared across nodes.
type Code string

const (
	CodeAssetNotFound         Code = "AssetNotFound"
	CodeNotOwner              Code = "NotOwner"
	CodeAlreadyInAuction      Code = "AlreadyInAuction"
	CodeAuctionNotFound       Code = "AuctionNotFound"
	CodeAuctionEnded          Code = "AuctionEnded"
	CodeBidTooLow             Code = "BidTooLow"
	CodeCannotBidOnOwnAuction Code = "CannotBidOnOwnAuction"
	CodeTooManyBids           Code = "TooManyBids"
	CodeNoValidBuyer          Code = "NoValidBuyer"
	CodeInvalidFee            Code = "InvalidFee"
	CodeNoFeesAvailable       Code = "NoFeesAvailable"
	CodeBadOrigin             Code = "BadOrigin"
)

// Error is a rejected operation. Two Errors match under errors.Is when their
// codes are equal, so callers compare against the sentinels below.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrAssetNotFound         = &Error{Code: CodeAssetNotFound}
	ErrNotOwner              = &Error{Code: CodeNotOwner}
	ErrAlreadyInAuction      = &Error{Code: CodeAlreadyInAuction}
	ErrAuctionNotFound       = &Error{Code: CodeAuctionNotFound}
	ErrAuctionEnded          = &Error{Code: CodeAuctionEnded}
	ErrBidTooLow             = &Error{Code: CodeBidTooLow}
	ErrCannotBidOnOwnAuction = &Error{Code: CodeCannotBidOnOwnAuction}
	ErrTooManyBids           = &Error{Code: CodeTooManyBids}
	ErrNoValidBuyer          = &Error{Code: CodeNoValidBuyer}
	ErrInvalidFee            = &Error{Code: CodeInvalidFee}
	ErrNoFeesAvailable       = &Error{Code: CodeNoFeesAvailable}
	ErrBadOrigin             = &Error{Code: CodeBadOrigin}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
