package statedb

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmos/evmstate/journal"
)

// accountJournal is the §4.2 facade over the generic journal, specialized to
// (Address, Account) entries.
type accountJournal struct {
	j *journal.Journal[common.Address, Account]
}

func newAccountJournal() *accountJournal {
	return &accountJournal{j: journal.New[common.Address, Account]()}
}

func (a *accountJournal) cache(addr common.Address, acc Account) journal.Position {
	return a.j.Append(journal.Entry[common.Address, Account]{Key: addr, Value: &acc, Tag: journal.TagJustCache})
}

func (a *accountJournal) create(addr common.Address, acc Account) journal.Position {
	return a.j.Append(journal.Entry[common.Address, Account]{Key: addr, Value: &acc, Tag: journal.TagCreate})
}

func (a *accountJournal) update(addr common.Address, acc Account) journal.Position {
	return a.j.Append(journal.Entry[common.Address, Account]{Key: addr, Value: &acc, Tag: journal.TagUpdate})
}

func (a *accountJournal) touch(addr common.Address, acc Account) journal.Position {
	return a.j.Append(journal.Entry[common.Address, Account]{Key: addr, Value: &acc, Tag: journal.TagTouch})
}

func (a *accountJournal) delete(addr common.Address) journal.Position {
	return a.j.Append(journal.Entry[common.Address, Account]{Key: addr, Value: nil, Tag: journal.TagDelete})
}

func (a *accountJournal) takeSnapshot() journal.Position { return a.j.TakeSnapshot() }

func (a *accountJournal) restore(snap journal.Position, onRevert func(journal.Position, journal.Entry[common.Address, Account])) error {
	return a.j.Restore(snap, onRevert)
}

func (a *accountJournal) commit(snap journal.Position, onCommit func(journal.Position, journal.Entry[common.Address, Account])) {
	a.j.Commit(snap, onCommit)
}

func (a *accountJournal) clear() { a.j.Clear() }

func (a *accountJournal) valueBefore(addr common.Address, pos journal.Position) (Account, bool) {
	return a.j.ValueBefore(addr, pos)
}
