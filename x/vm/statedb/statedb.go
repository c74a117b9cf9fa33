package statedb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"

	"github.com/cosmos/evmstate/journal"
)

// codeCacheSize bounds the in-memory bytecode cache fronting the (address ->
// code) reads a world state never owns the persistence of. Bytecode is
// content-addressed and immutable, so an LRU with no invalidation path is
// sufficient: a code hash is never overwritten by different bytes.
const codeCacheSize = 4096

// Scope identifies the granularity at which a Commit is being performed.
// Only ScopeTransaction triggers the tx-boundary housekeeping described in
// §4.4/§4.5: unconditional transient-storage wipe, created-accounts sweep,
// and self-destruct finalization.
type Scope uint8

const (
	ScopeCall Scope = iota
	ScopeTransaction
	ScopeBlock
)

// Snapshot is the opaque composite position returned by TakeSnapshot (§3):
// one journal position per journal the manager maintains.
type Snapshot struct {
	State             journal.Position
	PersistentStorage journal.Position
	TransientStorage  journal.Position
}

// scopeFrame carries the bookkeeping for supplemented host features (access
// lists, logs, refund counter, self-destruct marks) that ride alongside a
// Snapshot without being part of its public composite identity.
type scopeFrame struct {
	snap         Snapshot
	accessAddr   journal.Position
	accessSlot   journal.Position
	selfDestruct journal.Position
	logsLen      int
	refund       uint64
}

// StateDB is the world-state manager (§4.5): the single fallible entry point
// an EVM interpreter's host adapter sits in front of. It owns four caches
// (accounts, persistent storage, transient storage, bytecode), the journals
// backing the first three, the created-accounts set, and the call-frame
// scope stack enforcing LIFO snapshot discipline.
type StateDB struct {
	forkBackend ForkBackend
	txConfig    TxConfig

	accounts map[common.Address]Account
	touched  map[common.Address]bool // locally created/updated/deleted at least once
	accountJ *accountJournal

	persistentStorage map[StorageKey]common.Hash
	addressSlots      map[common.Address]map[common.Hash]struct{}
	persistentJ       *storageJournal

	transientStorage map[StorageKey]common.Hash
	transientJ       *storageJournal

	codeCache *lru.Cache[common.Hash, []byte]

	created *createdAccounts

	// recreated marks addresses CreateAccount has (re)created since the last
	// transaction boundary: storage reads for a recreated address skip the
	// fork backend entirely, so a freshly created contract never sees a
	// predecessor's slots.
	recreated map[common.Address]struct{}

	selfDestructSet map[common.Address]struct{}
	selfDestructJ   *journal.Journal[common.Address, struct{}]

	accessAddrSet map[common.Address]struct{}
	accessSlotSet map[StorageKey]struct{}
	accessAddrJ   *journal.Journal[common.Address, struct{}]
	accessSlotJ   *journal.Journal[StorageKey, struct{}]

	logs   []*ethtypes.Log
	refund uint64

	frames []scopeFrame
}

// New constructs a StateDB. backend may be nil for a fully local/test world
// with no external chain data; every get_* then reads as zero until written.
func New(backend ForkBackend, txConfig TxConfig) *StateDB {
	codeCache, err := lru.New[common.Hash, []byte](codeCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which codeCacheSize
		// never is.
		panic(err)
	}
	return &StateDB{
		forkBackend:       backend,
		txConfig:          txConfig,
		accounts:          make(map[common.Address]Account),
		touched:           make(map[common.Address]bool),
		accountJ:          newAccountJournal(),
		persistentStorage: make(map[StorageKey]common.Hash),
		addressSlots:      make(map[common.Address]map[common.Hash]struct{}),
		persistentJ:       newStorageJournal(),
		transientStorage:  make(map[StorageKey]common.Hash),
		transientJ:        newStorageJournal(),
		codeCache:         codeCache,
		created:           newCreatedAccounts(),
		recreated:         make(map[common.Address]struct{}),
		selfDestructSet:   make(map[common.Address]struct{}),
		selfDestructJ:     journal.New[common.Address, struct{}](),
		accessAddrSet:     make(map[common.Address]struct{}),
		accessSlotSet:     make(map[StorageKey]struct{}),
		accessAddrJ:       journal.New[common.Address, struct{}](),
		accessSlotJ:       journal.New[StorageKey, struct{}](),
	}
}

// ForkBackend returns the backend this manager reads through, or nil.
func (db *StateDB) ForkBackend() ForkBackend { return db.forkBackend }

// ---- account cache -------------------------------------------------------

// loadAccount returns addr's cached Account, loading it from the fork
// backend (or defaulting to empty, if no backend is configured) on a cold
// cache, per §4.5's get_balance/get_nonce/get_code rule: a load that occurs
// is always recorded as a just_cache entry.
func (db *StateDB) loadAccount(addr common.Address) (Account, error) {
	if acc, ok := db.accounts[addr]; ok {
		return acc, nil
	}
	acc := NewEmptyAccount()
	if db.forkBackend != nil {
		log.Debug("statedb: cache miss, fetching from fork backend", "address", addr)
		balance, err := db.forkBackend.FetchBalance(addr)
		if err != nil {
			return Account{}, fmt.Errorf("%w: fetch balance for %s: %v", ErrForkBackendFailure, addr, err)
		}
		nonce, err := db.forkBackend.FetchNonce(addr)
		if err != nil {
			return Account{}, fmt.Errorf("%w: fetch nonce for %s: %v", ErrForkBackendFailure, addr, err)
		}
		code, err := db.forkBackend.FetchCode(addr)
		if err != nil {
			return Account{}, fmt.Errorf("%w: fetch code for %s: %v", ErrForkBackendFailure, addr, err)
		}
		acc.Balance = balance
		acc.Nonce = nonce
		if len(code) > 0 {
			hash := crypto.Keccak256Hash(code)
			acc.CodeHash = hash
			db.codeCache.Add(hash, code)
		}
	}
	db.accountJ.cache(addr, acc)
	db.accounts[addr] = acc
	return acc, nil
}

// recordMutation appends the appropriate create/update tag for a write to
// addr and updates the live cache entry.
func (db *StateDB) recordMutation(addr common.Address, acc Account) {
	if db.touched[addr] {
		db.accountJ.update(addr, acc)
	} else {
		db.accountJ.create(addr, acc)
		db.touched[addr] = true
	}
	db.accounts[addr] = acc
}

func (db *StateDB) GetBalance(addr common.Address) (*uint256.Int, error) {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	return acc.Balance, nil
}

func (db *StateDB) GetNonce(addr common.Address) (uint64, error) {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.Nonce, nil
}

func (db *StateDB) GetCodeHash(addr common.Address) (common.Hash, error) {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return common.Hash{}, err
	}
	return acc.CodeHash, nil
}

func (db *StateDB) GetCode(addr common.Address) ([]byte, error) {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	if IsEmptyCodeHash(acc.CodeHash) {
		return nil, nil
	}
	if code, ok := db.codeCache.Get(acc.CodeHash); ok {
		return code, nil
	}
	if db.forkBackend == nil {
		return nil, nil
	}
	code, err := db.forkBackend.FetchCode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch code for %s: %v", ErrForkBackendFailure, addr, err)
	}
	db.codeCache.Add(acc.CodeHash, code)
	return code, nil
}

func (db *StateDB) SetBalance(addr common.Address, v *uint256.Int) error {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return err
	}
	acc.Balance = v
	db.recordMutation(addr, acc)
	return nil
}

func (db *StateDB) SetNonce(addr common.Address, n uint64) error {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return err
	}
	acc.Nonce = n
	db.recordMutation(addr, acc)
	return nil
}

func (db *StateDB) SetCode(addr common.Address, code []byte) error {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return err
	}
	if len(code) == 0 {
		acc.CodeHash = EmptyCodeHash
	} else {
		hash := crypto.Keccak256Hash(code)
		db.codeCache.Add(hash, code)
		acc.CodeHash = hash
	}
	db.recordMutation(addr, acc)
	return nil
}

// CreateAccount resets addr to a fresh account with no code, no nonce, and
// empty storage, preserving any existing balance (e.g. from a prior plain
// value transfer to an address that had not yet been deployed to). Any
// cached storage slots for addr stop being visible to subsequent reads: a
// newly created contract never inherits a predecessor's slots.
func (db *StateDB) CreateAccount(addr common.Address) error {
	prev, err := db.loadAccount(addr)
	if err != nil {
		return err
	}
	fresh := NewEmptyAccount()
	fresh.Balance = prev.Balance
	db.recordMutation(addr, fresh)
	db.created.add(addr)
	db.recreated[addr] = struct{}{}
	if slots, ok := db.addressSlots[addr]; ok {
		for slot := range slots {
			key := StorageKey{addr, slot}
			if cur, ok := db.persistentStorage[key]; ok && cur != (common.Hash{}) {
				db.persistentJ.set(addr, slot, common.Hash{}, true)
				delete(db.persistentStorage, key)
			}
		}
	}
	return nil
}

func (db *StateDB) Exist(addr common.Address) (bool, error) {
	if db.touched[addr] {
		return true, nil
	}
	acc, err := db.loadAccount(addr)
	if err != nil {
		return false, err
	}
	return db.forkBackend != nil && isAccountAlive(&acc), nil
}

func (db *StateDB) Empty(addr common.Address) (bool, error) {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return false, err
	}
	return acc.IsEmpty(), nil
}

// DeleteAccount replaces addr in the live view with a fresh, empty account:
// a later GetBalance etc. reads it as empty instead of refetching it.
func (db *StateDB) DeleteAccount(addr common.Address) {
	db.accountJ.delete(addr)
	db.accounts[addr] = NewEmptyAccount()
	delete(db.touched, addr)
	db.created.remove(addr)
}

// ---- persistent & transient storage ---------------------------------------

func (db *StateDB) wasRecreated(addr common.Address) bool {
	_, ok := db.recreated[addr]
	return ok
}

func (db *StateDB) trackSlot(addr common.Address, slot common.Hash) {
	slots, ok := db.addressSlots[addr]
	if !ok {
		slots = make(map[common.Hash]struct{})
		db.addressSlots[addr] = slots
	}
	slots[slot] = struct{}{}
}

func (db *StateDB) GetStorage(addr common.Address, slot common.Hash) (common.Hash, error) {
	key := StorageKey{addr, slot}
	if v, ok := db.persistentStorage[key]; ok {
		return v, nil
	}
	var value common.Hash
	if db.forkBackend != nil && !db.wasRecreated(addr) {
		v, err := db.forkBackend.FetchStorage(addr, slot)
		if err != nil {
			return common.Hash{}, fmt.Errorf("%w: fetch storage %s/%s: %v", ErrForkBackendFailure, addr, slot, err)
		}
		value = v
	}
	db.persistentJ.cache(addr, slot, value)
	db.persistentStorage[key] = value
	db.trackSlot(addr, slot)
	return value, nil
}

func (db *StateDB) SetStorage(addr common.Address, slot common.Hash, value common.Hash) error {
	key := StorageKey{addr, slot}
	_, existed := db.persistentStorage[key]
	if !existed {
		// Establish a baseline so a later revert has something to restore to.
		if _, err := db.GetStorage(addr, slot); err != nil {
			return err
		}
	}
	db.persistentJ.set(addr, slot, value, existed)
	db.persistentStorage[key] = value
	db.trackSlot(addr, slot)
	return nil
}

func (db *StateDB) GetTransientStorage(addr common.Address, slot common.Hash) common.Hash {
	return db.transientStorage[StorageKey{addr, slot}]
}

func (db *StateDB) SetTransientStorage(addr common.Address, slot common.Hash, value common.Hash) {
	key := StorageKey{addr, slot}
	_, existed := db.transientStorage[key]
	db.transientJ.set(addr, slot, value, existed)
	db.transientStorage[key] = value
}

// ForEachStorage calls cb for every persistent storage entry of addr present
// in the live view, stopping early if cb returns false. Iteration order is
// not specified; callers that need determinism should sort.
func (db *StateDB) ForEachStorage(addr common.Address, cb func(key, value common.Hash) bool) error {
	for slot := range db.addressSlots[addr] {
		v, ok := db.persistentStorage[StorageKey{addr, slot}]
		if !ok {
			continue
		}
		if !cb(slot, v) {
			return nil
		}
	}
	return nil
}

// ---- self-destruct (EIP-6780) --------------------------------------------

func (db *StateDB) HasSelfDestructed(addr common.Address) bool {
	_, ok := db.selfDestructSet[addr]
	return ok
}

func (db *StateDB) markSelfDestruct(addr common.Address) {
	if _, ok := db.selfDestructSet[addr]; ok {
		return
	}
	db.selfDestructJ.Append(journal.Entry[common.Address, struct{}]{Key: addr, Value: &struct{}{}, Tag: journal.TagCreate})
	db.selfDestructSet[addr] = struct{}{}
}

// SelfDestruct unconditionally zeroes addr's balance and marks it for
// removal at the enclosing transaction's commit. Returns the balance the
// account held just before being zeroed.
func (db *StateDB) SelfDestruct(addr common.Address) (uint256.Int, error) {
	acc, err := db.loadAccount(addr)
	if err != nil {
		return uint256.Int{}, err
	}
	prev := *acc.Balance
	acc.Balance = new(uint256.Int)
	db.recordMutation(addr, acc)
	db.markSelfDestruct(addr)
	return prev, nil
}

// SelfDestruct6780 implements EIP-6780: full destruct semantics only apply
// if addr was created earlier in the same transaction; otherwise only the
// balance is swept, and the account (code, storage) survives.
func (db *StateDB) SelfDestruct6780(addr common.Address) (prevBalance uint256.Int, destructed bool, err error) {
	if db.created.contains(addr) {
		prev, err := db.SelfDestruct(addr)
		return prev, true, err
	}
	acc, err := db.loadAccount(addr)
	if err != nil {
		return uint256.Int{}, false, err
	}
	prev := *acc.Balance
	acc.Balance = new(uint256.Int)
	db.recordMutation(addr, acc)
	return prev, false, nil
}

// ---- access lists (EIP-2929/2930) -----------------------------------------

func (db *StateDB) AddressInAccessList(addr common.Address) bool {
	_, ok := db.accessAddrSet[addr]
	return ok
}

func (db *StateDB) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk, slotOk bool) {
	addressOk = db.AddressInAccessList(addr)
	_, slotOk = db.accessSlotSet[StorageKey{addr, slot}]
	return
}

func (db *StateDB) AddAddressToAccessList(addr common.Address) {
	if _, ok := db.accessAddrSet[addr]; ok {
		return
	}
	db.accessAddrJ.Append(journal.Entry[common.Address, struct{}]{Key: addr, Value: &struct{}{}, Tag: journal.TagCreate})
	db.accessAddrSet[addr] = struct{}{}
}

func (db *StateDB) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	db.AddAddressToAccessList(addr)
	key := StorageKey{addr, slot}
	if _, ok := db.accessSlotSet[key]; ok {
		return
	}
	db.accessSlotJ.Append(journal.Entry[StorageKey, struct{}]{Key: key, Value: &struct{}{}, Tag: journal.TagCreate})
	db.accessSlotSet[key] = struct{}{}
}

// Prepare warms the EIP-2930 baseline for a new transaction: sender,
// destination (if any), and every precompile are added to the access list,
// along with the addresses and slots from the transaction's explicit access
// list. It only adds entries: whatever is already in the access list stays
// there, and no coinbase address is added.
func (db *StateDB) Prepare(sender common.Address, dst *common.Address, precompiles []common.Address, list ethtypes.AccessList) {
	db.AddAddressToAccessList(sender)
	if dst != nil {
		db.AddAddressToAccessList(*dst)
	}
	for _, addr := range precompiles {
		db.AddAddressToAccessList(addr)
	}
	for _, entry := range list {
		db.AddAddressToAccessList(entry.Address)
		for _, slot := range entry.StorageKeys {
			db.AddSlotToAccessList(entry.Address, slot)
		}
	}
}

// ---- refund counter --------------------------------------------------------

func (db *StateDB) AddRefund(n uint64) { db.refund += n }

func (db *StateDB) SubRefund(n uint64) error {
	if n > db.refund {
		return fmt.Errorf("%w: have %d, want to subtract %d", ErrNegativeRefund, db.refund, n)
	}
	db.refund -= n
	return nil
}

func (db *StateDB) GetRefund() uint64 { return db.refund }

// ---- logs -------------------------------------------------------------------

func (db *StateDB) AddLog(l *ethtypes.Log) {
	l.BlockHash = db.txConfig.BlockHash
	l.TxHash = db.txConfig.TxHash
	l.TxIndex = db.txConfig.TxIndex
	l.Index = db.txConfig.LogIndex + uint(len(db.logs))
	db.logs = append(db.logs, l)
}

func (db *StateDB) Logs() []*ethtypes.Log { return db.logs }

// ---- scope lifecycle --------------------------------------------------------

// TakeSnapshot opens a new call frame and returns its composite identity.
func (db *StateDB) TakeSnapshot() Snapshot {
	snap := Snapshot{
		State:             db.accountJ.takeSnapshot(),
		PersistentStorage: db.persistentJ.takeSnapshot(),
		TransientStorage:  db.transientJ.takeSnapshot(),
	}
	db.frames = append(db.frames, scopeFrame{
		snap:         snap,
		accessAddr:   db.accessAddrJ.TakeSnapshot(),
		accessSlot:   db.accessSlotJ.TakeSnapshot(),
		selfDestruct: db.selfDestructJ.TakeSnapshot(),
		logsLen:      len(db.logs),
		refund:       db.refund,
	})
	return snap
}

func (db *StateDB) popFrame(snap Snapshot) (scopeFrame, error) {
	if len(db.frames) == 0 {
		return scopeFrame{}, fmt.Errorf("%w: no open snapshot", ErrOutOfOrderScope)
	}
	top := db.frames[len(db.frames)-1]
	if top.snap != snap {
		return scopeFrame{}, fmt.Errorf("%w: got %+v, most recently issued is %+v", ErrOutOfOrderScope, snap, top.snap)
	}
	db.frames = db.frames[:len(db.frames)-1]
	return top, nil
}

// revertAccount rolls e.Key's cache entry back to the nearest earlier record
// before pos: an empty account if that record is a delete, no cache entry if
// there is none. The account counts as touched again only if that record is
// a write, not a just_cache read.
func (db *StateDB) revertAccount(pos journal.Position, e journal.Entry[common.Address, Account]) {
	entries := db.accountJ.j.Entries()
	for i := int(pos) - 1; i >= 0; i-- {
		prev := entries[i]
		if prev.Key != e.Key {
			continue
		}
		switch prev.Tag {
		case journal.TagDelete:
			db.accounts[e.Key] = NewEmptyAccount()
			delete(db.touched, e.Key)
		case journal.TagJustCache:
			db.accounts[e.Key] = *prev.Value
			delete(db.touched, e.Key)
		default:
			db.accounts[e.Key] = *prev.Value
			db.touched[e.Key] = true
		}
		return
	}
	delete(db.accounts, e.Key)
	delete(db.touched, e.Key)
}

func (db *StateDB) revertPersistent(pos journal.Position, e journal.Entry[StorageKey, common.Hash]) {
	if prev, ok := db.persistentJ.valueBefore(e.Key.Address, e.Key.Slot, pos); ok {
		db.persistentStorage[e.Key] = prev
	} else {
		delete(db.persistentStorage, e.Key)
	}
}

func (db *StateDB) revertTransient(pos journal.Position, e journal.Entry[StorageKey, common.Hash]) {
	if prev, ok := db.transientJ.valueBefore(e.Key.Address, e.Key.Slot, pos); ok {
		db.transientStorage[e.Key] = prev
	} else {
		delete(db.transientStorage, e.Key)
	}
}

// Restore reverts every change recorded since snap was taken, including the
// supplemented host features (access lists, logs, refund, self-destruct
// marks) riding alongside it. snap must be the most recently issued open
// snapshot.
func (db *StateDB) Restore(snap Snapshot) error {
	frame, err := db.popFrame(snap)
	if err != nil {
		return err
	}
	// Every reverted entry is rolled back to its key's value as of snap (the
	// first position past it), not to the entry just before it, so a key
	// written more than once since snap does not end at its first new value.
	since := func(p journal.Position) journal.Position {
		if p == journal.EmptyPosition {
			return 0
		}
		return p + 1
	}
	accBase, persBase, transBase := since(snap.State), since(snap.PersistentStorage), since(snap.TransientStorage)
	if err := db.accountJ.restore(snap.State, func(_ journal.Position, e journal.Entry[common.Address, Account]) {
		db.revertAccount(accBase, e)
	}); err != nil {
		return err
	}
	if err := db.persistentJ.restore(snap.PersistentStorage, func(_ journal.Position, e journal.Entry[StorageKey, common.Hash]) {
		db.revertPersistent(persBase, e)
	}); err != nil {
		return err
	}
	if err := db.transientJ.restore(snap.TransientStorage, func(_ journal.Position, e journal.Entry[StorageKey, common.Hash]) {
		db.revertTransient(transBase, e)
	}); err != nil {
		return err
	}
	if err := db.accessAddrJ.Restore(frame.accessAddr, func(_ journal.Position, e journal.Entry[common.Address, struct{}]) {
		delete(db.accessAddrSet, e.Key)
	}); err != nil {
		return err
	}
	if err := db.accessSlotJ.Restore(frame.accessSlot, func(_ journal.Position, e journal.Entry[StorageKey, struct{}]) {
		delete(db.accessSlotSet, e.Key)
	}); err != nil {
		return err
	}
	if err := db.selfDestructJ.Restore(frame.selfDestruct, func(_ journal.Position, e journal.Entry[common.Address, struct{}]) {
		delete(db.selfDestructSet, e.Key)
	}); err != nil {
		return err
	}
	if frame.logsLen <= len(db.logs) {
		db.logs = db.logs[:frame.logsLen]
	}
	db.refund = frame.refund
	return nil
}

// finalizeSelfDestructs removes every self-destructed account from the live
// view, at the transaction boundary, per EIP-6780.
func (db *StateDB) finalizeSelfDestructs() {
	for addr := range db.selfDestructSet {
		db.DeleteAccount(addr)
	}
	db.selfDestructSet = make(map[common.Address]struct{})
	db.selfDestructJ.Clear()
}

// Commit accepts every change recorded since snap, delivering it past the
// call frame it was opened in. At ScopeTransaction, additional tx-boundary
// housekeeping runs: transient storage is unconditionally wiped (it never
// survives its enclosing transaction, regardless of what snap captured),
// the created-accounts set is cleared, and any self-destructed accounts are
// finalized.
func (db *StateDB) Commit(snap Snapshot, scope Scope) error {
	frame, err := db.popFrame(snap)
	if err != nil {
		return err
	}
	db.accountJ.commit(snap.State, nil)
	db.persistentJ.commit(snap.PersistentStorage, nil)
	db.accessAddrJ.Commit(frame.accessAddr, nil)
	db.accessSlotJ.Commit(frame.accessSlot, nil)
	if scope == ScopeTransaction {
		db.finalizeSelfDestructs()
		db.transientJ.commit(journal.EmptyPosition, nil)
		for k := range db.transientStorage {
			delete(db.transientStorage, k)
		}
		db.created.clear()
		db.recreated = make(map[common.Address]struct{})
	} else {
		db.transientJ.commit(snap.TransientStorage, nil)
		db.selfDestructJ.Commit(frame.selfDestruct, nil)
	}
	return nil
}

