package statedb_test

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cosmos/evmstate/x/vm/statedb"
)

// mockBackend is a trivial in-memory ForkBackend double, standing in for a
// real archive/JSON-RPC fork source in tests.
type mockBackend struct {
	balances map[common.Address]*uint256.Int
	nonces   map[common.Address]uint64
	codes    map[common.Address][]byte
	storage  map[statedb.StorageKey]common.Hash

	failAddr common.Address
	fail     bool
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		balances: make(map[common.Address]*uint256.Int),
		nonces:   make(map[common.Address]uint64),
		codes:    make(map[common.Address][]byte),
		storage:  make(map[statedb.StorageKey]common.Hash),
	}
}

var errMockBackend = errors.New("mock backend failure")

func (m *mockBackend) FetchBalance(addr common.Address) (*uint256.Int, error) {
	if m.fail && addr == m.failAddr {
		return nil, errMockBackend
	}
	if v, ok := m.balances[addr]; ok {
		return v, nil
	}
	return new(uint256.Int), nil
}

func (m *mockBackend) FetchNonce(addr common.Address) (uint64, error) {
	if m.fail && addr == m.failAddr {
		return 0, errMockBackend
	}
	return m.nonces[addr], nil
}

func (m *mockBackend) FetchCode(addr common.Address) ([]byte, error) {
	if m.fail && addr == m.failAddr {
		return nil, errMockBackend
	}
	return m.codes[addr], nil
}

func (m *mockBackend) FetchStorage(addr common.Address, slot common.Hash) (common.Hash, error) {
	if m.fail && addr == m.failAddr {
		return common.Hash{}, errMockBackend
	}
	return m.storage[statedb.StorageKey{Address: addr, Slot: slot}], nil
}
