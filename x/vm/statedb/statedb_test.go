package statedb_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"github.com/cosmos/evmstate/x/vm/statedb"
)

var (
	address       = common.BigToAddress(big.NewInt(101))
	address2      = common.BigToAddress(big.NewInt(102))
	blockHash     = common.BigToHash(big.NewInt(9999))
	emptyTxConfig = statedb.NewEmptyTxConfig(blockHash)
)

type StateDBTestSuite struct {
	suite.Suite
}

func TestStateDBTestSuite(t *testing.T) {
	suite.Run(t, new(StateDBTestSuite))
}

func (s *StateDBTestSuite) TestNonExistAccount() {
	db := statedb.New(nil, emptyTxConfig)

	exist, err := db.Exist(address)
	s.Require().NoError(err)
	s.Require().False(exist)

	empty, err := db.Empty(address)
	s.Require().NoError(err)
	s.Require().True(empty)

	balance, err := db.GetBalance(address)
	s.Require().NoError(err)
	s.Require().True(balance.IsZero())

	code, err := db.GetCode(address)
	s.Require().NoError(err)
	s.Require().Nil(code)

	nonce, err := db.GetNonce(address)
	s.Require().NoError(err)
	s.Require().Zero(nonce)
}

func (s *StateDBTestSuite) TestCreateAccountPreservesBalance() {
	db := statedb.New(nil, emptyTxConfig)

	s.Require().NoError(db.SetBalance(address, uint256.NewInt(100)))
	s.Require().NoError(db.SetNonce(address, 5))
	s.Require().NoError(db.CreateAccount(address))

	balance, err := db.GetBalance(address)
	s.Require().NoError(err)
	s.Require().Equal(uint256.NewInt(100), balance)

	nonce, err := db.GetNonce(address)
	s.Require().NoError(err)
	s.Require().Zero(nonce)

	exist, err := db.Exist(address)
	s.Require().NoError(err)
	s.Require().True(exist)
}

func (s *StateDBTestSuite) TestCreateAccountClearsStorage() {
	key1 := common.BigToHash(big.NewInt(1))
	value1 := common.BigToHash(big.NewInt(2))

	db := statedb.New(nil, emptyTxConfig)
	s.Require().NoError(db.SetStorage(address, key1, value1))

	got, err := db.GetStorage(address, key1)
	s.Require().NoError(err)
	s.Require().Equal(value1, got)

	s.Require().NoError(db.CreateAccount(address))

	got, err = db.GetStorage(address, key1)
	s.Require().NoError(err)
	s.Require().Equal(common.Hash{}, got)
}

func (s *StateDBTestSuite) TestSetStorageRoundTrip() {
	key := common.BigToHash(big.NewInt(1))
	value := common.BigToHash(big.NewInt(42))

	db := statedb.New(nil, emptyTxConfig)
	s.Require().NoError(db.SetStorage(address, key, value))

	got, err := db.GetStorage(address, key)
	s.Require().NoError(err)
	s.Require().Equal(value, got)

	var seen []common.Hash
	s.Require().NoError(db.ForEachStorage(address, func(k, v common.Hash) bool {
		seen = append(seen, k)
		s.Require().Equal(value, v)
		return true
	}))
	s.Require().Len(seen, 1)
	s.Require().Equal(key, seen[0])
}

func (s *StateDBTestSuite) TestFetchesFromForkBackendOnMiss() {
	backend := newMockBackend()
	backend.balances[address] = uint256.NewInt(7)
	backend.nonces[address] = 3
	backend.codes[address] = []byte("hello world")

	db := statedb.New(backend, emptyTxConfig)

	balance, err := db.GetBalance(address)
	s.Require().NoError(err)
	s.Require().Equal(uint256.NewInt(7), balance)

	nonce, err := db.GetNonce(address)
	s.Require().NoError(err)
	s.Require().Equal(uint64(3), nonce)

	code, err := db.GetCode(address)
	s.Require().NoError(err)
	s.Require().Equal([]byte("hello world"), code)
}

func (s *StateDBTestSuite) TestForkBackendFailureIsReturnedNotPaniced() {
	backend := newMockBackend()
	backend.fail = true
	backend.failAddr = address

	db := statedb.New(backend, emptyTxConfig)

	_, err := db.GetBalance(address)
	s.Require().Error(err)
	s.Require().ErrorIs(err, statedb.ErrForkBackendFailure)
}

func (s *StateDBTestSuite) TestRevertToSnapshot() {
	db := statedb.New(nil, emptyTxConfig)

	s.Require().NoError(db.SetBalance(address, uint256.NewInt(1)))
	snap := db.TakeSnapshot()
	s.Require().NoError(db.SetBalance(address, uint256.NewInt(2)))
	s.Require().NoError(db.SetBalance(address2, uint256.NewInt(9)))

	s.Require().NoError(db.Restore(snap))

	balance, err := db.GetBalance(address)
	s.Require().NoError(err)
	s.Require().Equal(uint256.NewInt(1), balance)

	exist2, err := db.Exist(address2)
	s.Require().NoError(err)
	s.Require().False(exist2)
}

func (s *StateDBTestSuite) TestNestedSnapshotsMustRestoreInOrder() {
	db := statedb.New(nil, emptyTxConfig)

	outer := db.TakeSnapshot()
	s.Require().NoError(db.SetBalance(address, uint256.NewInt(1)))
	inner := db.TakeSnapshot()
	s.Require().NoError(db.SetBalance(address, uint256.NewInt(2)))

	err := db.Restore(outer)
	s.Require().ErrorIs(err, statedb.ErrOutOfOrderScope)

	s.Require().NoError(db.Restore(inner))
	s.Require().NoError(db.Restore(outer))

	exist, err := db.Exist(address)
	s.Require().NoError(err)
	s.Require().False(exist)
}

func (s *StateDBTestSuite) TestCommitClearsTransientStorageAtTxBoundary() {
	key := common.BigToHash(big.NewInt(1))
	value := common.BigToHash(big.NewInt(7))

	db := statedb.New(nil, emptyTxConfig)
	snap := db.TakeSnapshot()
	db.SetTransientStorage(address, key, value)
	s.Require().Equal(value, db.GetTransientStorage(address, key))

	s.Require().NoError(db.Commit(snap, statedb.ScopeTransaction))

	s.Require().Equal(common.Hash{}, db.GetTransientStorage(address, key))
}

func (s *StateDBTestSuite) TestSelfDestructZeroesBalanceButSurvivesUntilCommit() {
	db := statedb.New(nil, emptyTxConfig)

	s.Require().NoError(db.CreateAccount(address))
	s.Require().NoError(db.SetCode(address, []byte("hello world")))
	s.Require().NoError(db.SetBalance(address, uint256.NewInt(100)))

	snap := db.TakeSnapshot()
	prev, err := db.SelfDestruct(address)
	s.Require().NoError(err)
	s.Require().Equal(*uint256.NewInt(100), prev)

	s.Require().True(db.HasSelfDestructed(address))
	balance, err := db.GetBalance(address)
	s.Require().NoError(err)
	s.Require().True(balance.IsZero())

	code, err := db.GetCode(address)
	s.Require().NoError(err)
	s.Require().Equal([]byte("hello world"), code)

	s.Require().NoError(db.Commit(snap, statedb.ScopeTransaction))

	exist, err := db.Exist(address)
	s.Require().NoError(err)
	s.Require().False(exist)
}

func (s *StateDBTestSuite) TestSelfDestruct6780DifferentTxOnlyZeroesBalance() {
	backend := newMockBackend()
	backend.codes[address] = []byte("hello world")
	backend.balances[address] = uint256.NewInt(50)

	db := statedb.New(backend, emptyTxConfig)
	// Cause the account to be cached by a prior tx's read, but never created
	// locally in this tx: SelfDestruct6780 must not treat it as same-tx.
	_, err := db.GetBalance(address)
	s.Require().NoError(err)

	snap := db.TakeSnapshot()
	prev, destructed, err := db.SelfDestruct6780(address)
	s.Require().NoError(err)
	s.Require().False(destructed)
	s.Require().Equal(*uint256.NewInt(50), prev)

	s.Require().NoError(db.Commit(snap, statedb.ScopeTransaction))

	exist, err := db.Exist(address)
	s.Require().NoError(err)
	s.Require().True(exist)

	code, err := db.GetCode(address)
	s.Require().NoError(err)
	s.Require().Equal([]byte("hello world"), code)
}

func (s *StateDBTestSuite) TestSelfDestruct6780SameTxFullyDestructs() {
	db := statedb.New(nil, emptyTxConfig)

	snap := db.TakeSnapshot()
	s.Require().NoError(db.CreateAccount(address))
	s.Require().NoError(db.SetBalance(address, uint256.NewInt(10)))

	_, destructed, err := db.SelfDestruct6780(address)
	s.Require().NoError(err)
	s.Require().True(destructed)

	s.Require().NoError(db.Commit(snap, statedb.ScopeTransaction))

	exist, err := db.Exist(address)
	s.Require().NoError(err)
	s.Require().False(exist)
}

func (s *StateDBTestSuite) TestAccessList() {
	db := statedb.New(nil, emptyTxConfig)

	s.Require().False(db.AddressInAccessList(address))
	db.AddAddressToAccessList(address)
	s.Require().True(db.AddressInAccessList(address))

	key := common.BigToHash(big.NewInt(1))
	addrOK, slotOK := db.SlotInAccessList(address, key)
	s.Require().True(addrOK)
	s.Require().False(slotOK)

	db.AddSlotToAccessList(address, key)
	_, slotOK = db.SlotInAccessList(address, key)
	s.Require().True(slotOK)
}

func (s *StateDBTestSuite) TestAccessListRevertsOnRestore() {
	db := statedb.New(nil, emptyTxConfig)

	snap := db.TakeSnapshot()
	db.AddAddressToAccessList(address)
	s.Require().NoError(db.Restore(snap))

	s.Require().False(db.AddressInAccessList(address))
}

func (s *StateDBTestSuite) TestRefundCounter() {
	db := statedb.New(nil, emptyTxConfig)

	db.AddRefund(10)
	s.Require().Equal(uint64(10), db.GetRefund())

	s.Require().NoError(db.SubRefund(4))
	s.Require().Equal(uint64(6), db.GetRefund())

	s.Require().ErrorIs(db.SubRefund(100), statedb.ErrNegativeRefund)
}

func (s *StateDBTestSuite) TestRefundRevertsOnRestore() {
	db := statedb.New(nil, emptyTxConfig)
	db.AddRefund(5)
	snap := db.TakeSnapshot()
	db.AddRefund(5)
	s.Require().Equal(uint64(10), db.GetRefund())

	s.Require().NoError(db.Restore(snap))
	s.Require().Equal(uint64(5), db.GetRefund())
}

func (s *StateDBTestSuite) TestLogIndexing() {
	cfg := statedb.NewTxConfig(blockHash, common.BigToHash(big.NewInt(1)), 1, 1)
	db := statedb.New(nil, cfg)

	db.AddLog(&ethtypes.Log{Address: address})
	db.AddLog(&ethtypes.Log{Address: address2})

	logs := db.Logs()
	s.Require().Len(logs, 2)
	s.Require().Equal(uint(1), logs[0].Index)
	s.Require().Equal(uint(2), logs[1].Index)
	s.Require().Equal(cfg.BlockHash, logs[0].BlockHash)
	s.Require().Equal(cfg.TxHash, logs[0].TxHash)
}

func (s *StateDBTestSuite) TestLogsRevertOnRestore() {
	cfg := statedb.NewTxConfig(blockHash, common.BigToHash(big.NewInt(1)), 1, 1)
	db := statedb.New(nil, cfg)

	db.AddLog(&ethtypes.Log{Address: address})
	snap := db.TakeSnapshot()
	db.AddLog(&ethtypes.Log{Address: address2})
	s.Require().Len(db.Logs(), 2)

	s.Require().NoError(db.Restore(snap))
	s.Require().Len(db.Logs(), 1)
}
