package txpool

import (
	"math/big"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// txFamily groups transaction types by which fee dimensions they carry and,
// consequently, which replacement rule applies when one tx is proposed to
// take over another's (sender, nonce) slot.
type txFamily uint8

const (
	familyLegacy txFamily = iota
	familyDynamicFee
	familyBlob
)

func familyOf(tx *ethtypes.Transaction) txFamily {
	switch tx.Type() {
	case ethtypes.LegacyTxType, ethtypes.AccessListTxType:
		return familyLegacy
	case ethtypes.BlobTxType:
		return familyBlob
	default:
		return familyDynamicFee
	}
}

// normalizedFees returns (maxFee, maxPriority) for tx, folding legacy and
// access-list transactions' single gas price into both dimensions so they
// compare uniformly against 1559-style fees.
func normalizedFees(tx *ethtypes.Transaction) (maxFee, maxPriority *big.Int) {
	if familyOf(tx) == familyLegacy {
		gp := tx.GasPrice()
		return gp, gp
	}
	return tx.GasFeeCap(), tx.GasTipCap()
}

// EffectivePrice is the per-gas amount the transaction is willing to pay
// the block producer at the given base fee: base + min(priority, maxFee -
// base), or maxFee itself when maxFee doesn't clear the base fee.
func EffectivePrice(tx *ethtypes.Transaction, baseFee *big.Int) *big.Int {
	maxFee, maxPriority := normalizedFees(tx)
	if baseFee == nil {
		baseFee = big.NewInt(0)
	}
	if maxFee.Cmp(baseFee) < 0 {
		return new(big.Int).Set(maxFee)
	}
	room := new(big.Int).Sub(maxFee, baseFee)
	tip := maxPriority
	if room.Cmp(maxPriority) < 0 {
		tip = room
	}
	return new(big.Int).Add(baseFee, tip)
}

// Compare orders two transactions by priority: -1 if a should be served
// before b, 1 if after, 0 if they tie (equal effective price and max fee).
// Ties do not imply interchangeability; callers that need a strict order
// must break ties some other way (e.g. arrival order).
func Compare(a, b *ethtypes.Transaction, baseFee *big.Int) int {
	ea, eb := EffectivePrice(a, baseFee), EffectivePrice(b, baseFee)
	if c := ea.Cmp(eb); c != 0 {
		return -c
	}
	maxFeeA, _ := normalizedFees(a)
	maxFeeB, _ := normalizedFees(b)
	if c := maxFeeA.Cmp(maxFeeB); c != 0 {
		return -c
	}
	return 0
}

// bumpThreshold computes old scaled by pct% (e.g. pct=110 for a 10% bump,
// pct=200 for a 100% bump), using the same truncating integer division for
// every dimension so results are reproducible across implementations.
func bumpThreshold(old *big.Int, pct int64) *big.Int {
	n := new(big.Int).Mul(old, big.NewInt(pct))
	return n.Div(n, big.NewInt(100))
}

const (
	standardBumpPct = 110
	blobBumpPct     = 200
)

// dimensionMeetsBump reports whether newVal satisfies a pct% bump over
// oldVal. When the bump rounds down to nothing under integer division (the
// scaled threshold equals oldVal itself, e.g. any oldVal below 10 at 110%,
// or zero at 200%), a literal >= comparison would let an unchanged fee
// quietly count as a bump, so a strictly higher newVal is required instead:
// equal fees don't replace. This does not apply to legacy-vs-legacy, which
// has its own explicit zero-fee-is-always-replaceable rule instead.
func dimensionMeetsBump(newVal, oldVal *big.Int, pct int64) bool {
	threshold := bumpThreshold(oldVal, pct)
	if threshold.Cmp(oldVal) == 0 {
		return newVal.Cmp(oldVal) > 0
	}
	return newVal.Cmp(threshold) >= 0
}

// ReplacementAllowed decides whether incoming may replace existing, both
// assumed to occupy the same (sender, nonce) slot:
//
//   - cross-family replacement is rejected unless both sides are
//     non-blob (legacy/access-list/dynamic-fee/set-code can replace one
//     another under the two-dimension rule; blob only replaces blob)
//   - legacy-vs-legacy requires a ≥10% gas price bump
//   - otherwise (at least one side dynamic-fee) requires ≥10% bumps on
//     both max fee per gas and max priority fee per gas, normalizing a
//     legacy side's gas price into both dimensions
//   - blob-vs-blob instead requires a ≥100% bump on each of max fee per
//     gas, max priority fee per gas and max fee per blob gas, plus a
//     non-decreasing blob (versioned hash) count
//
// For legacy-vs-legacy the comparison is >=, so when old's tenth rounds
// down to zero an unchanged gas price still meets the threshold. For the
// other families a dimension whose threshold rounds down to the prior
// value needs a strictly higher new value (see dimensionMeetsBump).
func ReplacementAllowed(incoming, existing *ethtypes.Transaction) bool {
	fi, fe := familyOf(incoming), familyOf(existing)
	if (fi == familyBlob) != (fe == familyBlob) {
		return false
	}
	if fi == familyBlob {
		return blobReplacementAllowed(incoming, existing)
	}
	if fi == familyLegacy && fe == familyLegacy {
		return incoming.GasPrice().Cmp(bumpThreshold(existing.GasPrice(), standardBumpPct)) >= 0
	}
	return dynamicReplacementAllowed(incoming, existing)
}

func dynamicReplacementAllowed(incoming, existing *ethtypes.Transaction) bool {
	newMaxFee, newMaxPriority := normalizedFees(incoming)
	oldMaxFee, oldMaxPriority := normalizedFees(existing)
	if !dimensionMeetsBump(newMaxFee, oldMaxFee, standardBumpPct) {
		return false
	}
	if !dimensionMeetsBump(newMaxPriority, oldMaxPriority, standardBumpPct) {
		return false
	}
	return true
}

func blobReplacementAllowed(incoming, existing *ethtypes.Transaction) bool {
	newMaxFee, newMaxPriority := normalizedFees(incoming)
	oldMaxFee, oldMaxPriority := normalizedFees(existing)
	if !dimensionMeetsBump(newMaxFee, oldMaxFee, blobBumpPct) {
		return false
	}
	if !dimensionMeetsBump(newMaxPriority, oldMaxPriority, blobBumpPct) {
		return false
	}
	if !dimensionMeetsBump(incoming.BlobGasFeeCap(), existing.BlobGasFeeCap(), blobBumpPct) {
		return false
	}
	if len(incoming.BlobHashes()) < len(existing.BlobHashes()) {
		return false
	}
	return true
}
