package txpool

import (
	"fmt"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Validator runs the admission pipeline that decides whether a decoded
// transaction is even eligible to be considered for the pool, independent
// of anything already sitting in it. It is pure given its inputs: the same
// (tx, head, hardfork) always validates the same way.
type Validator struct {
	config        PoolConfig
	hardfork      Hardfork
	recoverSender SenderRecoverer
}

// NewValidator builds a Validator bound to a fixed configuration, hardfork,
// and sender-recovery function.
func NewValidator(cfg PoolConfig, hardfork Hardfork, recoverSender SenderRecoverer) *Validator {
	return &Validator{config: cfg, hardfork: hardfork, recoverSender: recoverSender}
}

// Validate runs the admission pipeline end to end:
//  1. transaction type is active at the configured hardfork
//  2. blob transactions are rejected outright if blob support is disabled
//  3. a blob transaction's priority fee clears the configured floor
//  4. a blob transaction's fee cap clears the current blob base fee
//  5. the transaction's gas limit fits under the effective block gas limit
//  6. the serialized transaction fits under the size ceiling (blob or not)
//  7. the sender is recoverable
//  8. the hash is computed and a ValidatedTx returned
//
// Any failing step returns immediately with the matching sentinel error;
// later steps never run once an earlier one has rejected the transaction.
func (v *Validator) Validate(tx *ethtypes.Transaction, head HeadInfo) (ValidatedTx, error) {
	if err := v.checkTypeActive(tx); err != nil {
		return ValidatedTx{}, err
	}
	if err := v.checkNonceAndInitCode(tx); err != nil {
		return ValidatedTx{}, err
	}

	isBlob := isBlobType(tx)
	if isBlob {
		if v.config.BlobsSupport == BlobsDisabled {
			return ValidatedTx{}, ErrBlobSupportDisabled
		}
		if err := v.checkBlobPriorityFee(tx); err != nil {
			return ValidatedTx{}, err
		}
		if err := v.checkBlobFeeCap(tx, head); err != nil {
			return ValidatedTx{}, err
		}
	}

	if err := v.checkGasLimit(tx, head); err != nil {
		return ValidatedTx{}, err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return ValidatedTx{}, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	sizeBytes := uint64(len(raw))
	if err := v.checkSerializedSize(sizeBytes, isBlob); err != nil {
		return ValidatedTx{}, err
	}

	if v.recoverSender == nil {
		return ValidatedTx{}, fmt.Errorf("%w: no sender recovery function configured", ErrSenderRecoveryFailed)
	}
	sender, err := v.recoverSender(tx)
	if err != nil {
		return ValidatedTx{}, fmt.Errorf("%w: %v", ErrSenderRecoveryFailed, err)
	}

	return ValidatedTx{
		Tx:        tx,
		Hash:      tx.Hash(),
		Sender:    sender,
		IsBlob:    isBlob,
		SizeBytes: sizeBytes,
	}, nil
}

func (v *Validator) checkTypeActive(tx *ethtypes.Transaction) error {
	switch tx.Type() {
	case ethtypes.LegacyTxType:
		return nil
	case ethtypes.AccessListTxType:
		if v.hardfork < HardforkBerlin {
			return ErrUnsupportedTransactionType
		}
	case ethtypes.DynamicFeeTxType:
		if v.hardfork < HardforkLondon {
			return ErrUnsupportedTransactionType
		}
	case ethtypes.BlobTxType:
		if v.hardfork < HardforkCancun {
			return ErrUnsupportedTransactionType
		}
	case ethtypes.SetCodeTxType:
		if v.hardfork < HardforkPrague {
			return ErrUnsupportedTransactionType
		}
	default:
		return ErrUnsupportedTransactionType
	}
	return nil
}

func (v *Validator) checkNonceAndInitCode(tx *ethtypes.Transaction) error {
	if tx.Nonce() == ^uint64(0) {
		return ErrNonceOverflow
	}
	if v.hardfork >= HardforkShanghai && tx.To() == nil && len(tx.Data()) > maxInitCodeSize {
		return ErrInitCodeTooLarge
	}
	return nil
}

func (v *Validator) checkBlobPriorityFee(tx *ethtypes.Transaction) error {
	floor := v.config.MinBlobTxPriorityFee
	if floor == nil {
		return nil
	}
	if tx.GasTipCap().Cmp(floor) < 0 {
		return ErrPriorityFeeTooLow
	}
	return nil
}

func (v *Validator) checkBlobFeeCap(tx *ethtypes.Transaction, head HeadInfo) error {
	if !v.config.CurrentBlobBaseFeeRequired {
		return nil
	}
	if head.CurrentFeePerBlobGas == nil {
		return nil
	}
	if tx.BlobGasFeeCap().Cmp(head.CurrentFeePerBlobGas) < 0 {
		return ErrBlobFeeCapTooLow
	}
	return nil
}

// checkGasLimit rejects a transaction whose gas limit exceeds the
// effective bound: the smaller of the configured gas limit and the
// chain head's block gas limit, when both are set.
func (v *Validator) checkGasLimit(tx *ethtypes.Transaction, head HeadInfo) error {
	limit := v.config.GasLimit
	if head.BlockGasLimit != nil && (limit == nil || *head.BlockGasLimit < *limit) {
		limit = head.BlockGasLimit
	}
	if limit == nil {
		return nil
	}
	if tx.Gas() > *limit {
		return ErrGasLimitExceeded
	}
	return nil
}

func (v *Validator) checkSerializedSize(sizeBytes uint64, isBlob bool) error {
	if isBlob {
		if v.config.MaxBlobTxSize != nil && sizeBytes > uint64(*v.config.MaxBlobTxSize) {
			return ErrMaxBlobTxSizeExceeded
		}
		return nil
	}
	if v.config.MaxTxSize != nil && sizeBytes > uint64(*v.config.MaxTxSize) {
		return ErrMaxTxSizeExceeded
	}
	return nil
}
