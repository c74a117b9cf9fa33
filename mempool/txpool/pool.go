package txpool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// Pool holds the set of transactions currently eligible for block
// production. Every mutation funnels through Add/Remove, both guarded by a
// single mutex: §5's concurrency model makes the whole admission decision
// (duplicate check, replacement check, capacity check, per-sender check,
// commit) one serialized critical section, while read-only observers take
// a shared lock and never block each other.
type Pool struct {
	mu sync.RWMutex

	validator *Validator

	transactions     map[common.Hash]*ValidatedTx
	blobTransactions map[common.Hash]*ValidatedTx

	// senderIndex/blobSenderIndex map a sender to the nonces it currently
	// occupies, and from there to the occupying transaction's hash.
	senderIndex     map[common.Address]map[uint64]common.Hash
	blobSenderIndex map[common.Address]map[uint64]common.Hash
	senderByHash    map[common.Hash]common.Address
}

// NewPool constructs an empty pool bound to a validator.
func NewPool(validator *Validator) *Pool {
	return &Pool{
		validator:        validator,
		transactions:     make(map[common.Hash]*ValidatedTx),
		blobTransactions: make(map[common.Hash]*ValidatedTx),
		senderIndex:      make(map[common.Address]map[uint64]common.Hash),
		blobSenderIndex:  make(map[common.Address]map[uint64]common.Hash),
		senderByHash:     make(map[common.Hash]common.Address),
	}
}

// Add validates tx against head and, if accepted, inserts it into the
// pool. It runs the full seven-step admission algorithm: validation,
// already-known short-circuit, fee-based replacement check, capacity
// check, per-sender limit check, commit, and the Added result.
func (p *Pool) Add(tx *ethtypes.Transaction, head HeadInfo) (AddResult, error) {
	vtx, err := p.validator.Validate(tx, head)
	if err != nil {
		return AddResult{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, known := p.transactions[vtx.Hash]; known {
		return AddResult{Outcome: AddOutcomeAlreadyKnown, Hash: vtx.Hash, IsBlob: vtx.IsBlob}, nil
	}
	if _, known := p.blobTransactions[vtx.Hash]; known {
		return AddResult{Outcome: AddOutcomeAlreadyKnown, Hash: vtx.Hash, IsBlob: vtx.IsBlob}, nil
	}

	// The (sender, nonce) slot is shared across both families — a blob tx
	// and a non-blob tx can never both be live for the same nonce — so the
	// occupant search must check both indices regardless of which family
	// the incoming transaction belongs to.
	existing := p.findOccupantLocked(vtx.Sender, vtx.Tx.Nonce())

	isNewSlot := existing == nil
	if !isNewSlot {
		if !ReplacementAllowed(vtx.Tx, existing.Tx) {
			log.Debug("txpool: replacement rejected", "incoming", vtx.Hash, "existing", existing.Hash)
			return AddResult{}, &ReplacementNotAllowedError{Incoming: vtx.Hash, Existing: existing.Hash}
		}
	} else if p.isFullLocked() {
		return AddResult{}, ErrPoolFull
	}

	index := p.senderIndex
	if vtx.IsBlob {
		index = p.blobSenderIndex
	}
	if isNewSlot {
		limit := p.validator.config.MaxPendingTxsPerSender
		if vtx.IsBlob {
			limit = p.validator.config.MaxPendingBlobTxsPerSender
		}
		if limit > 0 && uint32(len(index[vtx.Sender])) >= limit {
			if vtx.IsBlob {
				return AddResult{}, ErrBlobSenderLimitExceeded
			}
			return AddResult{}, ErrSenderLimitExceeded
		}
	}

	if !isNewSlot {
		log.Debug("txpool: evicting replaced transaction", "hash", existing.Hash, "replacement", vtx.Hash)
		p.removeLocked(existing.Hash)
	}
	p.insertLocked(vtx)

	return AddResult{Outcome: AddOutcomeAdded, Hash: vtx.Hash, IsBlob: vtx.IsBlob}, nil
}

// findOccupantLocked returns whichever transaction currently holds
// (sender, nonce), searching the non-blob and blob indices alike, or nil
// if the slot is free. Callers must hold p.mu.
func (p *Pool) findOccupantLocked(sender common.Address, nonce uint64) *ValidatedTx {
	if hash, ok := p.senderIndex[sender][nonce]; ok {
		return p.transactions[hash]
	}
	if hash, ok := p.blobSenderIndex[sender][nonce]; ok {
		return p.blobTransactions[hash]
	}
	return nil
}

func (p *Pool) insertLocked(vtx ValidatedTx) {
	store := p.transactions
	index := p.senderIndex
	if vtx.IsBlob {
		store = p.blobTransactions
		index = p.blobSenderIndex
	}
	stored := vtx
	store[vtx.Hash] = &stored
	if index[vtx.Sender] == nil {
		index[vtx.Sender] = make(map[uint64]common.Hash)
	}
	index[vtx.Sender][vtx.Tx.Nonce()] = vtx.Hash
	p.senderByHash[vtx.Hash] = vtx.Sender
}

// Remove evicts a transaction by hash. Removing an unknown hash is a no-op.
func (p *Pool) Remove(hash common.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(hash)
}

func (p *Pool) removeLocked(hash common.Hash) {
	sender, ok := p.senderByHash[hash]
	if !ok {
		return
	}
	delete(p.senderByHash, hash)
	if vtx, ok := p.transactions[hash]; ok {
		delete(p.transactions, hash)
		if nonces := p.senderIndex[sender]; nonces != nil {
			delete(nonces, vtx.Tx.Nonce())
			if len(nonces) == 0 {
				delete(p.senderIndex, sender)
			}
		}
		return
	}
	if vtx, ok := p.blobTransactions[hash]; ok {
		delete(p.blobTransactions, hash)
		if nonces := p.blobSenderIndex[sender]; nonces != nil {
			delete(nonces, vtx.Tx.Nonce())
			if len(nonces) == 0 {
				delete(p.blobSenderIndex, sender)
			}
		}
	}
}

func (p *Pool) sizeLocked() int {
	return len(p.transactions) + len(p.blobTransactions)
}

func (p *Pool) isFullLocked() bool {
	size := p.validator.config.Size
	if size == 0 {
		return false
	}
	return uint32(p.sizeLocked()) >= size
}

// GetPendingCount returns the number of non-blob transactions held.
func (p *Pool) GetPendingCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.transactions)
}

// GetPendingBlobCount returns the number of blob transactions held.
func (p *Pool) GetPendingBlobCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.blobTransactions)
}

// Stats returns the non-blob and blob pending counts in one call, mirroring
// the teacher's subpool Stats() rather than requiring two separate locked
// reads for what is conceptually one observation.
func (p *Pool) Stats() (pending, blobPending int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.transactions), len(p.blobTransactions)
}

// GetPendingTransactions returns a snapshot copy of every held transaction,
// blob and non-blob alike.
func (p *Pool) GetPendingTransactions() []ValidatedTx {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ValidatedTx, 0, len(p.transactions)+len(p.blobTransactions))
	for _, vtx := range p.transactions {
		out = append(out, *vtx)
	}
	for _, vtx := range p.blobTransactions {
		out = append(out, *vtx)
	}
	return out
}

// GetPendingTransactionsBySender returns the held transactions for a
// single sender, blob and non-blob alike.
func (p *Pool) GetPendingTransactionsBySender(sender common.Address) []ValidatedTx {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []ValidatedTx
	for _, hash := range p.senderIndex[sender] {
		if vtx, ok := p.transactions[hash]; ok {
			out = append(out, *vtx)
		}
	}
	for _, hash := range p.blobSenderIndex[sender] {
		if vtx, ok := p.blobTransactions[hash]; ok {
			out = append(out, *vtx)
		}
	}
	return out
}

// SupportsBlobs reports whether the pool is configured to accept blob
// transactions at all.
func (p *Pool) SupportsBlobs() bool {
	return p.validator.config.BlobsSupport != BlobsDisabled
}

// AcceptTxWhenNotSynced reports whether the pool should admit transactions
// before the node has finished syncing.
func (p *Pool) AcceptTxWhenNotSynced() bool {
	return p.validator.config.AcceptTxWhenNotSynced
}
