// Package txpool implements the transaction-admission pipeline and
// in-memory pending set that decide which signed transactions are eligible
// to enter the block producer's candidate set.
package txpool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Hardfork orders the protocol upgrades the admission pipeline needs to
// reason about transaction-type availability and per-fork size limits.
// Values are ordered so that a later fork compares greater than an earlier
// one.
type Hardfork uint8

const (
	HardforkPreBerlin Hardfork = iota
	HardforkBerlin
	HardforkLondon
	HardforkShanghai
	HardforkCancun
	HardforkPrague
)

// maxInitCodeSize is the Shanghai (EIP-3860) limit on contract-creation
// init code.
const maxInitCodeSize = 49152

// BlobsSupport controls whether and how the pool accepts EIP-4844 blob
// transactions.
type BlobsSupport uint8

const (
	BlobsDisabled BlobsSupport = iota
	BlobsInMemory
	BlobsStorage
	BlobsStorageWithReorgs
)

// HeadInfo carries the chain-head-derived runtime inputs the validator
// needs: the producer's gas limit and the current blob base fee.
type HeadInfo struct {
	BlockGasLimit        *uint64
	CurrentFeePerBlobGas *big.Int
}

// ValidatedTx is the record produced by the admission validator (§4.7) and
// consumed by the pool: the decoded transaction plus everything derived
// from it that the pool needs without re-deriving.
type ValidatedTx struct {
	Tx        *ethtypes.Transaction
	Hash      common.Hash
	Sender    common.Address
	IsBlob    bool
	SizeBytes uint64
}

// SenderRecoverer recovers the sending address of a signed transaction.
// Signature verification is deliberately external to this package (§1's
// Non-goals): callers inject whatever signer scheme (chain ID, hardfork
// rules) applies.
type SenderRecoverer func(tx *ethtypes.Transaction) (common.Address, error)

// AddOutcome is the kind of result Pool.Add produced, for callers that want
// to branch on it without a type switch over error values.
type AddOutcome uint8

const (
	AddOutcomeAdded AddOutcome = iota
	AddOutcomeAlreadyKnown
)

// AddResult is the non-error result of a successful Pool.Add call.
type AddResult struct {
	Outcome AddOutcome
	Hash    common.Hash
	IsBlob  bool
}

func isBlobType(tx *ethtypes.Transaction) bool {
	return tx.Type() == ethtypes.BlobTxType
}
