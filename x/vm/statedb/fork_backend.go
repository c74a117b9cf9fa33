package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ForkBackend is the read-only view onto state the world-state manager does
// not itself persist: a JSON-RPC fork source, an archive node, a snapshot
// file, or a test double. Every method is a pure, synchronous lookup; a
// missing account or slot is reported as the zero value, not an error. An
// error return means the read genuinely failed (network, decode, I/O), which
// callers at this layer surface rather than paper over.
//
// There is deliberately no write path: persistence and trie commitment are
// out of scope for the world-state manager (§9).
type ForkBackend interface {
	FetchBalance(addr common.Address) (*uint256.Int, error)
	FetchNonce(addr common.Address) (uint64, error)
	FetchCode(addr common.Address) ([]byte, error)
	FetchStorage(addr common.Address, slot common.Hash) (common.Hash, error)
}
