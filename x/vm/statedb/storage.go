package statedb

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmos/evmstate/journal"
)

// StorageKey identifies one contract storage slot.
type StorageKey struct {
	Address common.Address
	Slot    common.Hash
}

// Storage is an in-memory snapshot of a contract's storage, keyed by slot.
type Storage map[common.Hash]common.Hash

// Copy returns an independent copy of s.
func (s Storage) Copy() Storage {
	cpy := make(Storage, len(s))
	for k, v := range s {
		cpy[k] = v
	}
	return cpy
}

// SortedKeys returns s's keys in ascending byte order, for deterministic
// iteration.
func (s Storage) SortedKeys() []common.Hash {
	keys := make([]common.Hash, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].Bytes(), keys[j].Bytes()) < 0
	})
	return keys
}

// storageJournal is a facade over the generic journal specialized to
// (Address, Slot) -> Word entries. The same type backs both the persistent
// and the transient storage journals (§4.3); only their lifecycle differs.
type storageJournal struct {
	j *journal.Journal[StorageKey, common.Hash]
}

func newStorageJournal() *storageJournal {
	return &storageJournal{j: journal.New[StorageKey, common.Hash]()}
}

func (s *storageJournal) cache(addr common.Address, slot common.Hash, value common.Hash) journal.Position {
	return s.j.Append(journal.Entry[StorageKey, common.Hash]{
		Key:   StorageKey{addr, slot},
		Value: &value,
		Tag:   journal.TagJustCache,
	})
}

func (s *storageJournal) set(addr common.Address, slot common.Hash, value common.Hash, existed bool) journal.Position {
	tag := journal.TagUpdate
	if !existed {
		tag = journal.TagCreate
	}
	return s.j.Append(journal.Entry[StorageKey, common.Hash]{
		Key:   StorageKey{addr, slot},
		Value: &value,
		Tag:   tag,
	})
}

func (s *storageJournal) takeSnapshot() journal.Position { return s.j.TakeSnapshot() }

func (s *storageJournal) restore(snap journal.Position, onRevert func(journal.Position, journal.Entry[StorageKey, common.Hash])) error {
	return s.j.Restore(snap, onRevert)
}

func (s *storageJournal) commit(snap journal.Position, onCommit func(journal.Position, journal.Entry[StorageKey, common.Hash])) {
	s.j.Commit(snap, onCommit)
}

func (s *storageJournal) clear() { s.j.Clear() }

func (s *storageJournal) valueBefore(addr common.Address, slot common.Hash, pos journal.Position) (common.Hash, bool) {
	return s.j.ValueBefore(StorageKey{addr, slot}, pos)
}
