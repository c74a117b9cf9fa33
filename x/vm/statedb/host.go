package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// Host is the non-fallible surface an interpreter actually calls against
// (§4.6). Every lower-layer failure — a ForkBackend I/O error, an
// out-of-order scope — is consensus-critical: there is no sane recovery for
// an interpreter mid-execution, so the host adapter logs the failure at
// Crit and terminates the process rather than letting execution continue on
// wrong data.
type Host struct {
	db *StateDB
}

func NewHost(db *StateDB) *Host {
	return &Host{db: db}
}

func (h *Host) fatal(op string, err error, ctx ...interface{}) {
	args := append([]interface{}{"op", op, "err", err}, ctx...)
	log.Crit("fatal state access failure", args...)
}

func (h *Host) GetBalance(addr common.Address) *uint256.Int {
	v, err := h.db.GetBalance(addr)
	if err != nil {
		h.fatal("get_balance", err, "address", addr)
	}
	return v
}

func (h *Host) GetNonce(addr common.Address) uint64 {
	v, err := h.db.GetNonce(addr)
	if err != nil {
		h.fatal("get_nonce", err, "address", addr)
	}
	return v
}

func (h *Host) GetCode(addr common.Address) []byte {
	v, err := h.db.GetCode(addr)
	if err != nil {
		h.fatal("get_code", err, "address", addr)
	}
	return v
}

func (h *Host) GetCodeHash(addr common.Address) common.Hash {
	v, err := h.db.GetCodeHash(addr)
	if err != nil {
		h.fatal("get_code_hash", err, "address", addr)
	}
	return v
}

func (h *Host) GetStorage(addr common.Address, slot common.Hash) common.Hash {
	v, err := h.db.GetStorage(addr, slot)
	if err != nil {
		h.fatal("get_storage", err, "address", addr, "slot", slot)
	}
	return v
}

func (h *Host) GetTransientStorage(addr common.Address, slot common.Hash) common.Hash {
	return h.db.GetTransientStorage(addr, slot)
}

func (h *Host) SetBalance(addr common.Address, v *uint256.Int) {
	if err := h.db.SetBalance(addr, v); err != nil {
		h.fatal("set_balance", err, "address", addr)
	}
}

func (h *Host) SetNonce(addr common.Address, n uint64) {
	if err := h.db.SetNonce(addr, n); err != nil {
		h.fatal("set_nonce", err, "address", addr)
	}
}

func (h *Host) SetCode(addr common.Address, code []byte) {
	if err := h.db.SetCode(addr, code); err != nil {
		h.fatal("set_code", err, "address", addr)
	}
}

func (h *Host) SetStorage(addr common.Address, slot, value common.Hash) {
	if err := h.db.SetStorage(addr, slot, value); err != nil {
		h.fatal("set_storage", err, "address", addr, "slot", slot)
	}
}

func (h *Host) SetTransientStorage(addr common.Address, slot, value common.Hash) {
	h.db.SetTransientStorage(addr, slot, value)
}

func (h *Host) CreateAccount(addr common.Address) {
	if err := h.db.CreateAccount(addr); err != nil {
		h.fatal("create_account", err, "address", addr)
	}
}

func (h *Host) Exist(addr common.Address) bool {
	v, err := h.db.Exist(addr)
	if err != nil {
		h.fatal("exist", err, "address", addr)
	}
	return v
}

func (h *Host) Empty(addr common.Address) bool {
	v, err := h.db.Empty(addr)
	if err != nil {
		h.fatal("empty", err, "address", addr)
	}
	return v
}

func (h *Host) SelfDestruct(addr common.Address) uint256.Int {
	v, err := h.db.SelfDestruct(addr)
	if err != nil {
		h.fatal("self_destruct", err, "address", addr)
	}
	return v
}

func (h *Host) SelfDestruct6780(addr common.Address) (uint256.Int, bool) {
	v, destructed, err := h.db.SelfDestruct6780(addr)
	if err != nil {
		h.fatal("self_destruct_6780", err, "address", addr)
	}
	return v, destructed
}

func (h *Host) HasSelfDestructed(addr common.Address) bool {
	return h.db.HasSelfDestructed(addr)
}

func (h *Host) AddLog(l *ethtypes.Log) { h.db.AddLog(l) }
func (h *Host) Logs() []*ethtypes.Log  { return h.db.Logs() }

func (h *Host) AddRefund(n uint64) { h.db.AddRefund(n) }
func (h *Host) SubRefund(n uint64) {
	if err := h.db.SubRefund(n); err != nil {
		h.fatal("sub_refund", err, "amount", n)
	}
}
func (h *Host) GetRefund() uint64 { return h.db.GetRefund() }

func (h *Host) AddressInAccessList(addr common.Address) bool { return h.db.AddressInAccessList(addr) }
func (h *Host) SlotInAccessList(addr common.Address, slot common.Hash) (bool, bool) {
	return h.db.SlotInAccessList(addr, slot)
}
func (h *Host) AddAddressToAccessList(addr common.Address)      { h.db.AddAddressToAccessList(addr) }
func (h *Host) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	h.db.AddSlotToAccessList(addr, slot)
}
func (h *Host) Prepare(sender common.Address, dst *common.Address, precompiles []common.Address, list ethtypes.AccessList) {
	h.db.Prepare(sender, dst, precompiles, list)
}

func (h *Host) ForEachStorage(addr common.Address, cb func(key, value common.Hash) bool) {
	if err := h.db.ForEachStorage(addr, cb); err != nil {
		h.fatal("for_each_storage", err, "address", addr)
	}
}

func (h *Host) TakeSnapshot() Snapshot { return h.db.TakeSnapshot() }

func (h *Host) RevertToSnapshot(snap Snapshot) {
	if err := h.db.Restore(snap); err != nil {
		h.fatal("restore", err)
	}
}

func (h *Host) Commit(snap Snapshot, scope Scope) {
	if err := h.db.Commit(snap, scope); err != nil {
		h.fatal("commit", err)
	}
}
