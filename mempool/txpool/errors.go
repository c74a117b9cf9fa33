package txpool

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidConfig = errors.New("txpool: invalid pool configuration")

	ErrInvalidTransaction          = errors.New("txpool: transaction failed schema validation")
	ErrEncodingFailed              = errors.New("txpool: transaction encoding failed")
	ErrSenderRecoveryFailed        = errors.New("txpool: sender recovery failed")
	ErrGasLimitExceeded            = errors.New("txpool: transaction gas limit exceeds effective gas limit")
	ErrMaxTxSizeExceeded           = errors.New("txpool: serialized transaction exceeds maximum size")
	ErrMaxBlobTxSizeExceeded       = errors.New("txpool: serialized blob transaction exceeds maximum size")
	ErrBlobSupportDisabled         = errors.New("txpool: blob transactions are disabled")
	ErrPriorityFeeTooLow           = errors.New("txpool: blob priority fee below configured floor")
	ErrBlobFeeCapTooLow            = errors.New("txpool: blob fee cap below current blob base fee")
	ErrUnsupportedTransactionType  = errors.New("txpool: transaction type not active at current hardfork")
	ErrNonceOverflow               = errors.New("txpool: nonce at maximum representable value")
	ErrInitCodeTooLarge            = errors.New("txpool: init code exceeds maximum size")
	ErrInsufficientGas             = errors.New("txpool: gas limit below intrinsic cost")

	ErrPoolFull                = errors.New("txpool: pool at capacity")
	ErrSenderLimitExceeded     = errors.New("txpool: sender pending transaction limit reached")
	ErrBlobSenderLimitExceeded = errors.New("txpool: sender pending blob transaction limit reached")

	ErrGasPriceBelowBaseFee         = errors.New("txpool: gas price below current base fee")
	ErrInsufficientMaxFeePerGas     = errors.New("txpool: max fee per gas below current base fee")
	ErrPriorityFeeGreaterThanMaxFee = errors.New("txpool: priority fee per gas greater than max fee per gas")

	ErrInvalidSnapshot = errors.New("txpool: invalid snapshot")
	ErrAlreadyKnown    = errors.New("txpool: transaction already known")

	// ErrFatalBackendFailure mirrors the host adapter's error-handling
	// policy: a failure reading chain state the pool depends on (e.g. a
	// sender's current nonce) is not a validation outcome, it is a halt.
	ErrFatalBackendFailure = errors.New("txpool: fatal state backend failure")
)

// ReplacementNotAllowedError reports that an incoming transaction did not
// sufficiently out-bid the transaction already occupying its (sender,
// nonce) slot. It carries both hashes so callers can log or surface the
// rejected pair without re-deriving them.
type ReplacementNotAllowedError struct {
	Incoming common.Hash
	Existing common.Hash
}

func (e *ReplacementNotAllowedError) Error() string {
	return fmt.Sprintf("txpool: replacement not allowed: %s does not sufficiently bump %s", e.Incoming, e.Existing)
}

func (e *ReplacementNotAllowedError) Is(target error) bool {
	_, ok := target.(*ReplacementNotAllowedError)
	return ok
}
