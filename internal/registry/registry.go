package registry

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/gavel/internal/ir"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrAssetExists        = errors.New("asset already exists")
	ErrFrozen             = errors.New("asset is frozen")
	ErrNotFrozen          = errors.New("asset is not frozen")
)

type asset struct {
	owner  string
	frozen bool
}

// Memory is a map-backed registry.
type Memory struct {
	collections map[uint32]string
	assets      map[ir.AssetID]*asset
}

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[uint32]string),
		assets:      make(map[ir.AssetID]*asset),
	}
}

// CreateCollection registers a collection owned by owner.
func (m *Memory) CreateCollection(id uint32, owner string) error {
	if _, ok := m.collections[id]; ok {
		return fmt.Errorf("collection %d: %w", id, ErrCollectionExists)
	}
	m.collections[id] = owner
	return nil
}

// Mint creates an unfrozen asset in an existing collection.
func (m *Memory) Mint(id ir.AssetID, owner string) error {
	if _, ok := m.collections[id.Collection]; !ok {
		return fmt.Errorf("mint %s: %w", id, ErrCollectionNotFound)
	}
	if _, ok := m.assets[id]; ok {
		return fmt.Errorf("mint %s: %w", id, ErrAssetExists)
	}
	m.assets[id] = &asset{owner: owner}
	return nil
}

func (m *Memory) lookup(id ir.AssetID) (*asset, error) {
	a, ok := m.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrAssetNotFound)
	}
	return a, nil
}

// OwnerOf returns the current owner of an asset.
func (m *Memory) OwnerOf(id ir.AssetID) (string, error) {
	a, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	return a.owner, nil
}

// IsFrozen reports whether the asset is frozen.
func (m *Memory) IsFrozen(id ir.AssetID) (bool, error) {
	a, err := m.lookup(id)
	if err != nil {
		return false, err
	}
	return a.frozen, nil
}

// Freeze locks an asset against custody changes.
func (m *Memory) Freeze(id ir.AssetID) error {
	a, err := m.lookup(id)
	if err != nil {
		return err
	}
	if a.frozen {
		return fmt.Errorf("freeze %s: %w", id, ErrFrozen)
	}
	a.frozen = true
	return nil
}

// Thaw unlocks a frozen asset.
func (m *Memory) Thaw(id ir.AssetID) error {
	a, err := m.lookup(id)
	if err != nil {
		return err
	}
	if !a.frozen {
		return fmt.Errorf("thaw %s: %w", id, ErrNotFrozen)
	}
	a.frozen = false
	return nil
}

// TransferCustody hands an unfrozen asset to a new owner.
func (m *Memory) TransferCustody(id ir.AssetID, to string) error {
	a, err := m.lookup(id)
	if err != nil {
		return err
	}
	if a.frozen {
		return fmt.Errorf("transfer %s: %w", id, ErrFrozen)
	}
	a.owner = to
	return nil
}

// RoyaltyRecipient returns the owner of a collection, if it exists.
func (m *Memory) RoyaltyRecipient(collection uint32) (string, bool) {
	owner, ok := m.collections[collection]
	return owner, ok
}

// Assets returns every minted asset in (collection, item) order.
func (m *Memory) Assets() []ir.AssetID {
	ids := make([]ir.AssetID, 0, len(m.assets))
	for id := range m.assets {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, ir.AssetID.Compare)
	return ids
}

// Snapshot returns the canonical form of the registry for the state root.
func (m *Memory) Snapshot() ir.IRObject {
	collections := make(ir.IRObject, len(m.collections))
	for id, owner := range m.collections {
		collections[strconv.FormatUint(uint64(id), 10)] = ir.IRString(owner)
	}
	assets := make(ir.IRObject, len(m.assets))
	for id, a := range m.assets {
		assets[id.String()] = ir.IRObject{
			"owner":  ir.IRString(a.owner),
			"frozen": ir.IRBool(a.frozen),
		}
	}
	return ir.IRObject{
		"collections": collections,
		"assets":      assets,
	}
}
