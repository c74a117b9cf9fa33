package txpool

import (
	"fmt"
	"math/big"
)

// PoolConfig bounds what the pool will hold and how blob transactions are
// treated. Zero values for the per-sender limits mean unlimited; Size zero
// means unlimited.
type PoolConfig struct {
	Size                       uint32
	BlobsSupport               BlobsSupport
	MaxPendingTxsPerSender     uint32
	MaxPendingBlobTxsPerSender uint32
	GasLimit                   *uint64
	MaxTxSize                  *uint32
	MaxBlobTxSize              *uint32
	MinBlobTxPriorityFee       *big.Int
	CurrentBlobBaseFeeRequired bool
	AcceptTxWhenNotSynced      bool
}

const (
	defaultMaxTxSize     = 128 * 1024
	defaultMaxBlobTxSize = 1024 * 1024
)

// DefaultPoolConfig returns the baseline configuration: a 2048-transaction
// pool, full blob retention across reorgs, and the standard size ceilings.
func DefaultPoolConfig() PoolConfig {
	maxTxSize := uint32(defaultMaxTxSize)
	maxBlobTxSize := uint32(defaultMaxBlobTxSize)
	return PoolConfig{
		Size:                       2048,
		BlobsSupport:               BlobsStorageWithReorgs,
		MaxPendingBlobTxsPerSender: 16,
		MaxTxSize:                  &maxTxSize,
		MaxBlobTxSize:              &maxBlobTxSize,
		MinBlobTxPriorityFee:       big.NewInt(0),
		CurrentBlobBaseFeeRequired: true,
	}
}

// Validate rejects configurations the pool cannot honor. NewValidator and
// NewPool do not call it themselves.
func (c PoolConfig) Validate() error {
	if c.MinBlobTxPriorityFee != nil && c.MinBlobTxPriorityFee.Sign() < 0 {
		return fmt.Errorf("%w: min_blob_tx_priority_fee must be non-negative", ErrInvalidConfig)
	}
	if c.GasLimit != nil && *c.GasLimit == 0 {
		return fmt.Errorf("%w: gas_limit must be positive when set", ErrInvalidConfig)
	}
	if c.MaxTxSize != nil && *c.MaxTxSize == 0 {
		return fmt.Errorf("%w: max_tx_size must be positive when set", ErrInvalidConfig)
	}
	if c.MaxBlobTxSize != nil && *c.MaxBlobTxSize == 0 {
		return fmt.Errorf("%w: max_blob_tx_size must be positive when set", ErrInvalidConfig)
	}
	return nil
}
