package auction

import (
	"fmt"
	"log/slog"

	"github.com/roach88/gavel/internal/ir"
)

// Currency is the ledger the engine moves funds through.
type Currency interface {
	Reserve(who string, amount uint64) error
	// Unreserve returns the amount actually released.
	Unreserve(who string, amount uint64) uint64
	Withdraw(who string, amount uint64) error
	Deposit(who string, amount uint64) error
	Transfer(from, to string, amount uint64) error
	FreeBalance(who string) uint64
	ReservedBalance(who string) uint64
}

// Ownership is the asset registry.
type Ownership interface {
	OwnerOf(asset ir.AssetID) (string, error)
	Freeze(asset ir.AssetID) error
	Thaw(asset ir.AssetID) error
	TransferCustody(asset ir.AssetID, to string) error
	RoyaltyRecipient(collection uint32) (string, bool)
}

// Clock supplies the current block number.
type Clock interface {
	CurrentBlock() int64
}

// Engine is the auction state machine.
//
// Engine is not safe for concurrent use. The host applies calls and the
// per-block sweep from a single goroutine, which is what makes every node
// reach the same state.
type Engine struct {
	cfg       Config
	currency  Currency
	ownership Ownership
	clock     Clock
	logger    *slog.Logger

	store    *auctionStore
	treasury treasury

	// events published since the last DrainEvents, in emission order.
	events []Event
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine with no auctions.
func New(cfg Config, currency Currency, ownership Ownership, clock Clock, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("auction config: %w", err)
	}
	e := &Engine{
		cfg:       cfg,
		currency:  currency,
		ownership: ownership,
		clock:     clock,
		logger:    slog.Default(),
		store:     newAuctionStore(),
		treasury: treasury{
			account:    cfg.TreasuryAccount,
			feePercent: cfg.FeePercent,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// DrainEvents returns the events published since the previous call and
// forgets them.
func (e *Engine) DrainEvents() []Event {
	out := e.events
	e.events = nil
	return out
}

func (e *Engine) commit(j *journal) {
	e.events = append(e.events, j.events...)
	j.undo = nil
	j.events = nil
}

// abort rolls back j and returns cause. A failed compensation is logged; it
// means a collaborator refused to undo its own step.
func (e *Engine) abort(j *journal, cause error) error {
	if err := j.rollback(); err != nil {
		e.logger.Error("rollback incomplete", "cause", cause, "error", err)
	}
	return cause
}

// List opens an auction for an asset owned by the caller and freezes the
// asset for its duration.
func (e *Engine) List(origin Origin, asset ir.AssetID) error {
	who, err := ensureSigned(origin)
	if err != nil {
		return err
	}
	owner, err := e.ownership.OwnerOf(asset)
	if err != nil {
		return newError(CodeAssetNotFound, "%s: %v", asset, err)
	}
	if owner != who {
		return newError(CodeNotOwner, "%s is owned by %s", asset, owner)
	}
	if e.store.isInAuction(asset) {
		return newError(CodeAlreadyInAuction, "%s", asset)
	}
	if err := e.ownership.Freeze(asset); err != nil {
		return fmt.Errorf("list %s: freeze: %w", asset, err)
	}

	block := e.clock.CurrentBlock()
	e.store.open(asset, AuctionRecord{Owner: who, StartBlock: block}, e.cfg.BidCapacity)
	e.events = append(e.events, listedEvent(asset, who))
	e.logger.Info("auction listed", "asset", asset.String(), "owner", who, "block", block)
	return nil
}

// Bid places or raises the caller's offer. Only the highest offer is held in
// escrow; the previous highest bidder is released.
func (e *Engine) Bid(origin Origin, asset ir.AssetID, amount uint64) error {
	who, err := ensureSigned(origin)
	if err != nil {
		return err
	}
	rec, ok := e.store.record(asset)
	if !ok {
		return newError(CodeAuctionNotFound, "%s", asset)
	}
	if rec.Ended {
		return newError(CodeAuctionEnded, "%s", asset)
	}
	if who == rec.Owner {
		return newError(CodeCannotBidOnOwnAuction, "%s", asset)
	}
	if amount <= rec.HighestBid {
		return newError(CodeBidTooLow, "bid %d does not exceed %d", amount, rec.HighestBid)
	}

	book := e.store.book(asset).Clone()
	evicted, err := book.Insert(BidEntry{Bidder: who, Amount: amount})
	if err != nil {
		return err
	}

	var j journal
	if rec.HighestBidder == who {
		// Raising: release the old amount first so only the delta is newly locked.
		released := e.currency.Unreserve(who, rec.HighestBid)
		j.record(func() error { return e.currency.Reserve(who, released) })
		if err := e.currency.Reserve(who, amount); err != nil {
			return e.abort(&j, fmt.Errorf("bid on %s: %w", asset, err))
		}
	} else {
		if err := e.currency.Reserve(who, amount); err != nil {
			return e.abort(&j, fmt.Errorf("bid on %s: %w", asset, err))
		}
		if rec.HasBidder() {
			e.currency.Unreserve(rec.HighestBidder, rec.HighestBid)
		}
	}
	j.emit(bidPlacedEvent(asset, who, amount))

	rec.HighestBid = amount
	rec.HighestBidder = who
	e.store.books[asset] = book
	e.commit(&j)

	if evicted != nil {
		e.logger.Debug("bid evicted", "asset", asset.String(), "bidder", evicted.Bidder, "amount", evicted.Amount)
	}
	e.logger.Info("bid placed", "asset", asset.String(), "bidder", who, "amount", amount)
	return nil
}

// Resolve lets the auction owner settle with the highest bidder at any time.
// There is no fallback: on failure nothing changes and the error is returned.
func (e *Engine) Resolve(origin Origin, asset ir.AssetID) error {
	who, err := ensureSigned(origin)
	if err != nil {
		return err
	}
	rec, ok := e.store.record(asset)
	if !ok {
		return newError(CodeAuctionNotFound, "%s", asset)
	}
	if rec.Ended {
		return newError(CodeAuctionEnded, "%s", asset)
	}
	if who != rec.Owner {
		return newError(CodeNotOwner, "%s is auctioned by %s", asset, rec.Owner)
	}
	if !rec.HasBidder() {
		return newError(CodeNoValidBuyer, "%s has no bids", asset)
	}
	return e.finalize(asset, rec.HighestBidder, rec.HighestBid)
}

// SetFeePercent changes the fee rate applied to future settlements.
func (e *Engine) SetFeePercent(origin Origin, fee uint64) error {
	if err := ensureRoot(origin); err != nil {
		return err
	}
	if fee > 100 {
		return newError(CodeInvalidFee, "fee %d exceeds 100", fee)
	}
	e.treasury.feePercent = uint8(fee)
	e.events = append(e.events, feeRateSetEvent(uint8(fee)))
	e.logger.Info("fee rate set", "fee", fee)
	return nil
}

// WithdrawFees pays every accumulated fee from the treasury account to to.
func (e *Engine) WithdrawFees(origin Origin, to string) error {
	if err := ensureRoot(origin); err != nil {
		return err
	}
	amount := e.treasury.accumulated
	if amount == 0 {
		return newError(CodeNoFeesAvailable, "treasury is empty")
	}
	if err := e.currency.Transfer(e.treasury.account, to, amount); err != nil {
		return fmt.Errorf("withdraw fees: %w", err)
	}
	e.treasury.accumulated = 0
	e.events = append(e.events, feesWithdrawnEvent(to, amount))
	e.logger.Info("fees withdrawn", "to", to, "amount", amount)
	return nil
}
