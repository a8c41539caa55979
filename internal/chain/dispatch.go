package chain

import (
	"errors"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/ir"
)

// Call kinds routed to the auction engine.
const (
	KindList          = "list"
	KindBid           = "bid"
	KindResolve       = "resolve"
	KindSetFeePercent = "set_fee_percent"
	KindWithdrawFees  = "withdraw_fees"
)

// Kinds lists every routable call kind.
var Kinds = []string{KindList, KindBid, KindResolve, KindSetFeePercent, KindWithdrawFees}

func parseOrigin(s string) (auction.Origin, error) {
	switch s {
	case "":
		return auction.Origin{}, &DispatchError{Code: ErrCodeInvalidOrigin, Message: "empty origin"}
	case ir.OriginRoot:
		return auction.Root(), nil
	}
	return auction.Signed(s), nil
}

// dispatch decodes a call's args and applies it to the engine.
func (c *Chain) dispatch(call ir.Call) error {
	origin, err := parseOrigin(call.Origin)
	if err != nil {
		return err
	}
	args := call.Args
	if args == nil {
		args = ir.IRObject{}
	}

	switch call.Kind {
	case KindList:
		asset, err := ir.AssetFromArgs(args)
		if err != nil {
			return invalidArgs(call.Kind, err)
		}
		return c.engine.List(origin, asset)

	case KindBid:
		asset, err := ir.AssetFromArgs(args)
		if err != nil {
			return invalidArgs(call.Kind, err)
		}
		amount, err := args.Uint("amount")
		if err != nil {
			return invalidArgs(call.Kind, err)
		}
		return c.engine.Bid(origin, asset, amount)

	case KindResolve:
		asset, err := ir.AssetFromArgs(args)
		if err != nil {
			return invalidArgs(call.Kind, err)
		}
		return c.engine.Resolve(origin, asset)

	case KindSetFeePercent:
		fee, err := args.Uint("fee")
		if err != nil {
			return invalidArgs(call.Kind, err)
		}
		return c.engine.SetFeePercent(origin, fee)

	case KindWithdrawFees:
		to, err := args.String("to")
		if err != nil {
			return invalidArgs(call.Kind, err)
		}
		if to == "" || to == ir.OriginRoot {
			return invalidArgs(call.Kind, errors.New("to must name an account"))
		}
		return c.engine.WithdrawFees(origin, to)
	}
	return &DispatchError{Code: ErrCodeUnknownCall, Message: "no such call", Kind: call.Kind}
}
