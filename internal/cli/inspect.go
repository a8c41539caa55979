package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/chain"
	"github.com/roach88/gavel/internal/ir"
	"github.com/roach88/gavel/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	Block    int64
	Events   string
	Asset    string
}

// AuctionView is an auction as shown by inspect.
type AuctionView struct {
	Asset    string                  `json:"asset"`
	Deadline int64                   `json:"deadline"`
	Record   auction.AuctionRecord   `json:"record"`
	Bids     []auction.BidEntry      `json:"bids"`
	History  []auction.AuctionRecord `json:"history,omitempty"`
}

// StateView is the chain state as shown by inspect.
type StateView struct {
	Head            int64         `json:"head"`
	StateRoot       string        `json:"state_root"`
	FeePercent      uint8         `json:"fee_percent"`
	AccumulatedFees uint64        `json:"accumulated_fees"`
	Auctions        []AuctionView `json:"auctions"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a block, events, or auction state",
		Long: `Inspect a chain database without modifying it.

With --block, print that block: its calls, receipts and events.
With --events, print every stored event of a kind ("all" for every kind).
Otherwise rebuild the state from the stored blocks and print the active
auctions, or a single auction with --asset, including its history.

Examples:
  gavel inspect --db ./chain.db --block 12
  gavel inspect --db ./chain.db --events AuctionResolved
  gavel inspect --db ./chain.db --asset 1/7 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().Int64Var(&opts.Block, "block", 0, "block number to print")
	cmd.Flags().StringVar(&opts.Events, "events", "", `event kind to list, or "all"`)
	cmd.Flags().StringVar(&opts.Asset, "asset", "", "asset to show, as collection/item")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	st, err := openExisting(opts.Database, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	p := opts.printer(cmd)
	switch {
	case opts.Block > 0:
		b, err := st.ReadBlock(ctx, opts.Block)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read block", err)
		}
		return p.OK(b, func(w io.Writer) { writeBlockText(w, b) })

	case opts.Events != "":
		kind := opts.Events
		if kind == "all" {
			kind = ""
		}
		events, err := st.ReadEvents(ctx, kind)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
		return p.OK(events, func(w io.Writer) {
			for _, ev := range events {
				writeEventText(w, ev)
			}
			fmt.Fprintf(w, "%d event(s)\n", len(events))
		})
	}

	c, err := rebuild(ctx, st)
	if err != nil {
		return err
	}
	view, err := stateView(c, opts.Asset)
	if err != nil {
		return err
	}
	return p.OK(view, func(w io.Writer) { writeStateText(w, view) })
}

// rebuild replays the log on a chain without a store.
func rebuild(ctx context.Context, st *store.Store) (*chain.Chain, error) {
	encoded, err := st.ReadMeta(ctx, store.MetaGenesis)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "database has no genesis", err)
	}
	g, err := chain.DecodeGenesis(encoded)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read genesis", err)
	}
	blocks, err := st.ReadBlocks(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read blocks", err)
	}
	c, err := chain.New(g, chain.WithLogger(discardLogger()))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build chain", err)
	}
	if err := reapply(ctx, c, blocks); err != nil {
		return nil, err
	}
	return c, nil
}

func stateView(c *chain.Chain, assetFlag string) (StateView, error) {
	e := c.Engine()
	view := StateView{
		Head:            c.Head(),
		StateRoot:       c.StateRoot(),
		FeePercent:      e.FeePercent(),
		AccumulatedFees: e.AccumulatedFees(),
		Auctions:        []AuctionView{},
	}
	assets := e.ActiveAuctions()
	if assetFlag != "" {
		asset, err := ir.ParseAssetID(assetFlag)
		if err != nil {
			return StateView{}, WrapExitError(ExitCommandError, "invalid --asset", err)
		}
		if _, ok := e.Auction(asset); !ok && len(e.History(asset)) == 0 {
			return StateView{}, NewExitError(ExitCommandError, fmt.Sprintf("asset %s was never auctioned", asset))
		}
		assets = []ir.AssetID{asset}
	}
	timeout := e.Config().TimeoutBlocks
	for _, asset := range assets {
		rec, _ := e.Auction(asset)
		v := AuctionView{
			Asset:    asset.String(),
			Deadline: rec.Deadline(timeout),
			Record:   rec,
			Bids:     e.Bids(asset),
		}
		if assetFlag != "" {
			v.History = e.History(asset)
		}
		view.Auctions = append(view.Auctions, v)
	}
	return view, nil
}

func writeBlockText(w io.Writer, b ir.Block) {
	fmt.Fprintf(w, "Block %d\n", b.Number)
	fmt.Fprintf(w, "  State root:  %s\n", b.StateRoot)
	fmt.Fprintf(w, "  Events hash: %s\n", b.EventsHash)
	fmt.Fprintf(w, "  Engine:      %s\n", b.EngineVersion)
	fmt.Fprintf(w, "  Sweep:       %d resolved, %d failed, %d deferred\n", b.Sweep.Resolved, b.Sweep.Failed, b.Sweep.Deferred)
	fmt.Fprintf(w, "Calls (%d):\n", len(b.Calls))
	for i, call := range b.Calls {
		r := b.Receipts[i]
		fmt.Fprintf(w, "  [%d] %s %s by %s %s -> %s\n", call.Index, call.ID, call.Kind, call.Origin, describeObject(call.Args), r.Outcome)
		if r.Error != "" {
			fmt.Fprintf(w, "      %s\n", r.Error)
		}
	}
	fmt.Fprintf(w, "Events (%d):\n", len(b.Events))
	for _, ev := range b.Events {
		writeEventText(w, ev)
	}
}

func writeEventText(w io.Writer, ev ir.EventRecord) {
	source := "sweep"
	if ev.CallID != "" {
		source = ev.CallID
	}
	fmt.Fprintf(w, "  %d.%d %s %s (%s)\n", ev.Block, ev.Index, ev.Kind, describeObject(ev.Payload), source)
}

func writeStateText(w io.Writer, v StateView) {
	fmt.Fprintf(w, "Head: %d\nState root: %s\n", v.Head, v.StateRoot)
	fmt.Fprintf(w, "Fees: %d%%, %d accumulated\n", v.FeePercent, v.AccumulatedFees)
	if len(v.Auctions) == 0 {
		fmt.Fprintln(w, "No active auctions.")
		return
	}
	for _, a := range v.Auctions {
		state := "active"
		if a.Record.Ended {
			state = "ended"
		}
		fmt.Fprintf(w, "\n%s (%s) owner %s, started %d, deadline %d\n",
			a.Asset, state, a.Record.Owner, a.Record.StartBlock, a.Deadline)
		if a.Record.HasBidder() {
			fmt.Fprintf(w, "  highest %d by %s\n", a.Record.HighestBid, a.Record.HighestBidder)
		}
		if a.Record.Ended && a.Record.ClearingPrice > 0 {
			fmt.Fprintf(w, "  cleared at %d\n", a.Record.ClearingPrice)
		}
		for i, b := range a.Bids {
			fmt.Fprintf(w, "  %d. %s %d\n", i+1, b.Bidder, b.Amount)
		}
		for _, h := range a.History {
			fmt.Fprintf(w, "  earlier: started %d, cleared at %d\n", h.StartBlock, h.ClearingPrice)
		}
	}
}

func describeObject(obj ir.IRObject) string {
	if obj == nil {
		return "{}"
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return fmt.Sprint(obj)
	}
	return string(data)
}
