package ir

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// AssetID identifies an item within a collection.
type AssetID struct {
	Collection uint32 `json:"collection"`
	Item       uint32 `json:"item"`
}

// String renders the asset as "collection/item".
func (a AssetID) String() string {
	return fmt.Sprintf("%d/%d", a.Collection, a.Item)
}

// Compare orders assets by collection, then item. This is the iteration
// order for every per-asset map.
func (a AssetID) Compare(b AssetID) int {
	if c := cmp.Compare(a.Collection, b.Collection); c != 0 {
		return c
	}
	return cmp.Compare(a.Item, b.Item)
}

// Object returns the asset as it appears in args and event payloads.
func (a AssetID) Object() IRObject {
	return IRObject{
		"collection": IRInt(int64(a.Collection)),
		"item":       IRInt(int64(a.Item)),
	}
}

// AssetFromArgs reads the collection and item fields of a call's args.
func AssetFromArgs(args IRObject) (AssetID, error) {
	c, err := args.Uint("collection")
	if err != nil {
		return AssetID{}, err
	}
	i, err := args.Uint("item")
	if err != nil {
		return AssetID{}, err
	}
	if c > 1<<32-1 || i > 1<<32-1 {
		return AssetID{}, fmt.Errorf("asset %d/%d out of range", c, i)
	}
	return AssetID{Collection: uint32(c), Item: uint32(i)}, nil
}

// ParseAssetID parses the "collection/item" form produced by String.
func ParseAssetID(s string) (AssetID, error) {
	cs, is, ok := strings.Cut(s, "/")
	if !ok {
		return AssetID{}, fmt.Errorf("asset %q: want collection/item", s)
	}
	c, err := strconv.ParseUint(cs, 10, 32)
	if err != nil {
		return AssetID{}, fmt.Errorf("asset %q: collection: %w", s, err)
	}
	i, err := strconv.ParseUint(is, 10, 32)
	if err != nil {
		return AssetID{}, fmt.Errorf("asset %q: item: %w", s, err)
	}
	return AssetID{Collection: uint32(c), Item: uint32(i)}, nil
}
