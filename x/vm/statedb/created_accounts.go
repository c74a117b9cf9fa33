package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	mapset "github.com/deckarep/golang-set/v2"
)

// createdAccounts (§4.4) tracks addresses created during the current
// in-flight top-level transaction. It is not snapshotted per call frame: the
// world-state manager clears it wholesale on a ScopeTransaction Commit, per
// §4.5's Transaction-scope commit rule. Restore does not clear it.
type createdAccounts struct {
	set mapset.Set[common.Address]
}

func newCreatedAccounts() *createdAccounts {
	return &createdAccounts{set: mapset.NewThreadUnsafeSet[common.Address]()}
}

func (c *createdAccounts) contains(addr common.Address) bool {
	return c.set.Contains(addr)
}

// add returns true iff addr was not already present.
func (c *createdAccounts) add(addr common.Address) bool {
	return c.set.Add(addr)
}

func (c *createdAccounts) remove(addr common.Address) {
	c.set.Remove(addr)
}

func (c *createdAccounts) len() int {
	return c.set.Cardinality()
}

func (c *createdAccounts) clear() {
	c.set.Clear()
}

func (c *createdAccounts) clearAndReleaseCapacity() {
	c.set = mapset.NewThreadUnsafeSet[common.Address]()
}
