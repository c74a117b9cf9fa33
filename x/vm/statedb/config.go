package statedb

import (
	"github.com/ethereum/go-ethereum/common"
)

// TxConfig carries the read-only per-transaction bookkeeping a StateDB needs
// to stamp onto logs: which block/tx they belong to, and the running log
// index within the block.
type TxConfig struct {
	BlockHash common.Hash // hash of the block the transaction belongs to
	TxHash    common.Hash // hash of the current transaction
	TxIndex   uint        // index of the current transaction within its block
	LogIndex  uint        // index of the next log within the current block
}

// NewTxConfig returns a TxConfig for a real, in-flight transaction.
func NewTxConfig(blockHash, txHash common.Hash, txIndex, logIndex uint) TxConfig {
	return TxConfig{
		BlockHash: blockHash,
		TxHash:    txHash,
		TxIndex:   txIndex,
		LogIndex:  logIndex,
	}
}

// NewEmptyTxConfig returns a TxConfig for contexts with no enclosing
// transaction, e.g. eth_call / eth_estimateGas style simulation.
func NewEmptyTxConfig(blockHash common.Hash) TxConfig {
	return TxConfig{BlockHash: blockHash}
}
