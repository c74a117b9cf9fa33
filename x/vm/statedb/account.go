package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EmptyCodeHash is the keccak256 hash of nil, i.e. the code hash of an
// account with no associated bytecode.
var EmptyCodeHash = crypto.Keccak256Hash(nil)

// EmptyTrieRoot is the root commitment of a storage trie with no entries.
// Reused from go-ethereum's canonical constant rather than recomputed, since
// it is the same content-free RLP-of-empty-bytes hash on every execution
// client.
var EmptyTrieRoot = ethtypes.EmptyRootHash

// IsEmptyCodeHash reports whether hash denotes "no code".
func IsEmptyCodeHash(hash common.Hash) bool {
	return hash == EmptyCodeHash
}

// Account is the consensus representation of an account: nonce, balance, a
// pointer to its code by hash, and a commitment to its storage.
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	CodeHash    common.Hash
	StorageRoot common.Hash
}

// NewEmptyAccount returns an account with zero nonce/balance and no code or
// storage.
func NewEmptyAccount() Account {
	return Account{
		Balance:     new(uint256.Int),
		CodeHash:    EmptyCodeHash,
		StorageRoot: EmptyTrieRoot,
	}
}

func (a Account) withDefaults() Account {
	if a.Balance == nil {
		a.Balance = new(uint256.Int)
	}
	if a.CodeHash == (common.Hash{}) {
		a.CodeHash = EmptyCodeHash
	}
	if a.StorageRoot == (common.Hash{}) {
		a.StorageRoot = EmptyTrieRoot
	}
	return a
}

// IsEmpty reports the EIP-161 "empty account" predicate: zero nonce, zero
// balance, and no code.
func (a Account) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.IsZero()) && IsEmptyCodeHash(a.CodeHash)
}

// IsTotallyEmpty additionally requires that the account has never had
// storage written to it.
func (a Account) IsTotallyEmpty() bool {
	return a.IsEmpty() && a.StorageRoot == EmptyTrieRoot
}

// HasCodeOrNonce reports whether the account is a contract or has sent at
// least one transaction, i.e. it cannot be the implicit "EOA with nothing in
// it yet" account.
func (a Account) HasCodeOrNonce() bool {
	return a.Nonce != 0 || !IsEmptyCodeHash(a.CodeHash)
}

// IsContract reports whether the account has associated bytecode.
func (a Account) IsContract() bool {
	return !IsEmptyCodeHash(a.CodeHash)
}

// isAccountAlive reports whether an optional account is present and not
// totally empty.
func isAccountAlive(acc *Account) bool {
	return acc != nil && !acc.IsTotallyEmpty()
}
