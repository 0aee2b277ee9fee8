// Package ledger holds the authoritative block log and applies validated
// transfers to account balances.
//
// The ledger is a single writer: Submit, Enqueue, MineBlock and
// ApplyTransfer serialize on one mutex, so the read-check-debit sequence for
// a sender can never interleave with another transfer. Chain snapshots use
// a separate read lock and never wait for store I/O.
//
// The block log doubles as a write-ahead log. A block is persisted before any
// balance changes, and every balance and history mutation is guarded by the
// transaction sequence number, so replaying the chain is idempotent. If
// applying a mined block fails, the ledger replays the chain before
// accepting the next transfer.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/qchaucoin/ledger/internal/store"
	"github.com/shopspring/decimal"

	"go.uber.org/zap"
)

// DefaultMineThreshold mines a block for every accepted transfer.
const DefaultMineThreshold = 1

// Option configures a Ledger.
type Option func(*Ledger)

// WithMineThreshold sets how many pending transactions trigger mining.
// Values below 1 are ignored.
func WithMineThreshold(n int) Option {
	return func(l *Ledger) {
		if n >= 1 {
			l.threshold = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithClock overrides the time source used for block and transaction
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Receipt describes the outcome of an accepted transfer.
type Receipt struct {
	Transaction model.Transaction
	// Mined is true when the transfer was sealed into a block by this call.
	Mined bool
	// BlockIndex is set when Mined is true.
	BlockIndex uint64
	// Settled is true when balances and histories reflect the transfer.
	// A mined but unsettled transfer is settled by the next replay.
	Settled bool
}

type Ledger struct {
	accounts  store.AccountStore
	blocks    store.BlockStore
	logger    *zap.Logger
	threshold int
	now       func() time.Time

	mu         sync.Mutex
	pending    []model.Transaction
	pendingOut map[string]decimal.Decimal
	seq        uint64
	dirty      bool
	opened     bool

	chainMu sync.RWMutex
	chain   []model.Block
}

// New returns a ledger over the given stores. Open must be called before use.
func New(accounts store.AccountStore, blocks store.BlockStore, opts ...Option) *Ledger {
	l := &Ledger{
		accounts:   accounts,
		blocks:     blocks,
		logger:     zap.NewNop(),
		threshold:  DefaultMineThreshold,
		now:        time.Now,
		pendingOut: make(map[string]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open loads the chain from the block store. An empty store is initialized
// with a persisted genesis block. A chain that fails verification is
// rejected. Recorded transfers are replayed so that balances reflect every
// block.
func (l *Ledger) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	blocks, err := l.blocks.LoadBlocks(ctx)
	if err != nil {
		return storageErr(err, "load blocks")
	}

	if len(blocks) == 0 {
		genesis := NewGenesisBlock(l.now().UnixMilli())
		if err := l.blocks.AppendBlock(ctx, &genesis); err != nil {
			return storageErr(err, "persist genesis block")
		}
		l.logger.Info("created genesis block", zap.String("hash", genesis.Hash))
		blocks = []model.Block{genesis}
	}

	if err := VerifyChain(blocks); err != nil {
		return err
	}

	l.chainMu.Lock()
	l.chain = blocks
	l.chainMu.Unlock()

	l.seq = lastSeq(blocks)
	l.opened = true

	if err := l.replayLocked(ctx); err != nil {
		l.dirty = true
		return err
	}

	head := blocks[len(blocks)-1]
	l.logger.Info("ledger opened",
		zap.Int("height", len(blocks)),
		zap.Uint64("head_index", head.Index),
		zap.String("head_hash", head.Hash),
		zap.Uint64("last_seq", l.seq),
		zap.Int("mine_threshold", l.threshold),
	)
	return nil
}

// Submit accepts a transfer whose request fields and signature were already
// validated. Under the writer lock it checks that the sender exists and can
// cover the amount (including outflows still pending), that the recipient
// exists, assigns the sequence number, enqueues the transaction and mines
// once the pending queue reaches the threshold.
//
// If the block cannot be persisted, the transaction is removed from the
// queue and an ErrStorageUnavailable error is returned. A block that the
// store wrote despite reporting an error is detected by reloading the log
// and counts as mined.
func (l *Ledger) Submit(ctx context.Context, tx model.Transaction) (*Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.opened {
		return nil, errors.ErrInternal.New("ledger is not open")
	}
	if err := l.settleLocked(ctx); err != nil {
		return nil, err
	}

	senderID := crypto.Canonicalize(tx.Sender)
	recipientID := crypto.Canonicalize(tx.Recipient)
	if senderID == recipientID {
		return nil, errors.ErrInvalidRequest.New("sender and recipient must differ")
	}
	if !tx.Amount.IsPositive() {
		return nil, errors.ErrInvalidRequest.New("amount must be greater than zero")
	}

	sender, err := l.accounts.FindByIdentity(ctx, senderID)
	if errors.ErrNotFound.Is(err) {
		return nil, errors.ErrSenderNotFound.New("no account for sender key")
	}
	if err != nil {
		return nil, storageErr(err, "find sender")
	}

	available := sender.Balance.Sub(l.pendingOut[senderID])
	if available.LessThan(tx.Amount) {
		return nil, errors.ErrInsufficientFunds.Newf("available %s, requested %s", available, tx.Amount)
	}

	if _, err := l.accounts.FindByIdentity(ctx, recipientID); err != nil {
		if errors.ErrNotFound.Is(err) {
			return nil, errors.ErrRecipientNotFound.New("no account for recipient key")
		}
		return nil, storageErr(err, "find recipient")
	}

	if tx.Timestamp == 0 {
		tx.Timestamp = l.now().UnixMilli()
	}
	tx.Seq = l.seq + 1
	l.seq = tx.Seq
	l.enqueueLocked(tx)

	receipt := &Receipt{Transaction: tx}
	if len(l.pending) < l.threshold {
		l.logger.Debug("transaction queued",
			zap.Uint64("seq", tx.Seq),
			zap.Int("pending", len(l.pending)),
		)
		return receipt, nil
	}

	block, settled, err := l.mineLocked(ctx)
	if err != nil {
		l.dropLocked(tx)
		return nil, err
	}
	if block == nil || !containsSeq(block, tx.Seq) {
		return nil, errors.ErrInsufficientFunds.New("transfer is no longer covered")
	}
	receipt.Mined = true
	receipt.BlockIndex = block.Index
	receipt.Settled = settled
	return receipt, nil
}

// Enqueue appends a validated transaction to the pending queue without any
// balance check. Callers are responsible for validation; Submit is the
// checked entry point.
func (l *Ledger) Enqueue(tx model.Transaction) model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.Seq <= l.seq {
		tx.Seq = l.seq + 1
	}
	l.seq = tx.Seq
	if tx.Timestamp == 0 {
		tx.Timestamp = l.now().UnixMilli()
	}
	l.enqueueLocked(tx)
	return tx
}

// MineBlock seals every pending transaction into a new block, persists it
// and applies the transfers. Pending transactions that balances no longer
// cover are dropped first. It returns nil without error when nothing is
// left to mine.
func (l *Ledger) MineBlock(ctx context.Context) (*model.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.settleLocked(ctx); err != nil {
		return nil, err
	}
	block, _, err := l.mineLocked(ctx)
	return block, err
}

// ApplyTransfer debits the sender, credits the recipient and appends tx to
// both histories. tx must already be recorded in the chain. Applying the
// same transaction twice has no further effect.
func (l *Ledger) ApplyTransfer(ctx context.Context, tx model.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.recorded(tx) {
		return errors.ErrInvalidRequest.Newf("transaction %d is not recorded in a block", tx.Seq)
	}
	return l.applyLocked(ctx, tx)
}

// Reconcile replays every recorded transaction. It is a no-op for a
// consistent ledger.
func (l *Ledger) Reconcile(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.replayLocked(ctx); err != nil {
		l.dirty = true
		return err
	}
	l.dirty = false
	return nil
}

// Chain returns a snapshot of the chain.
func (l *Ledger) Chain() []model.Block {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()

	out := make([]model.Block, len(l.chain))
	for i := range l.chain {
		out[i] = l.chain[i].Clone()
	}
	return out
}

// Height returns the number of blocks including genesis.
func (l *Ledger) Height() uint64 {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()
	return uint64(len(l.chain))
}

// Head returns the last block.
func (l *Ledger) Head() (model.Block, bool) {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()

	if len(l.chain) == 0 {
		return model.Block{}, false
	}
	return l.chain[len(l.chain)-1].Clone(), true
}

// Pending returns the transactions waiting to be mined.
func (l *Ledger) Pending() []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Transaction(nil), l.pending...)
}

// Verify re-checks the in-memory chain.
func (l *Ledger) Verify() error {
	return VerifyChain(l.Chain())
}

func (l *Ledger) enqueueLocked(tx model.Transaction) {
	l.pending = append(l.pending, tx)
	id := crypto.Canonicalize(tx.Sender)
	l.pendingOut[id] = l.pendingOut[id].Add(tx.Amount)
}

// dropLocked removes tx from the queue after a failed mine. Its sequence
// number is not reused: the store may still hold a block carrying it.
func (l *Ledger) dropLocked(tx model.Transaction) {
	for i := len(l.pending) - 1; i >= 0; i-- {
		if l.pending[i].Seq == tx.Seq {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			break
		}
	}
	l.rebuildPendingOutLocked()
}

func (l *Ledger) rebuildPendingOutLocked() {
	l.pendingOut = make(map[string]decimal.Decimal, len(l.pending))
	for _, tx := range l.pending {
		id := crypto.Canonicalize(tx.Sender)
		l.pendingOut[id] = l.pendingOut[id].Add(tx.Amount)
	}
}

// settleLocked replays the chain when an earlier apply failed.
func (l *Ledger) settleLocked(ctx context.Context) error {
	if !l.dirty {
		return nil
	}
	if err := l.replayLocked(ctx); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

// coverLocked drops pending transactions whose accounts are missing or whose
// sender can no longer cover them, so a mined block always applies.
func (l *Ledger) coverLocked(ctx context.Context) error {
	available := make(map[string]decimal.Decimal)
	known := make(map[string]bool)
	kept := make([]model.Transaction, 0, len(l.pending))

	exists := func(id string) (bool, error) {
		if ok, seen := known[id]; seen {
			return ok, nil
		}
		_, err := l.accounts.FindByIdentity(ctx, id)
		if errors.ErrNotFound.Is(err) {
			known[id] = false
			return false, nil
		}
		if err != nil {
			return false, storageErr(err, "find account")
		}
		known[id] = true
		return true, nil
	}

	for _, tx := range l.pending {
		senderID := crypto.Canonicalize(tx.Sender)
		recipientID := crypto.Canonicalize(tx.Recipient)

		reason := ""
		avail, seen := available[senderID]
		switch {
		case senderID == recipientID || !tx.Amount.IsPositive():
			reason = "invalid transfer"
		case !seen:
			acc, err := l.accounts.FindByIdentity(ctx, senderID)
			if errors.ErrNotFound.Is(err) {
				reason = "sender not found"
				break
			}
			if err != nil {
				return storageErr(err, "find sender")
			}
			avail = acc.Balance
		}
		if reason == "" && avail.LessThan(tx.Amount) {
			reason = "insufficient funds"
		}
		if reason == "" {
			ok, err := exists(recipientID)
			if err != nil {
				return err
			}
			if !ok {
				reason = "recipient not found"
			}
		}

		if reason != "" {
			l.logger.Warn("dropping pending transfer",
				zap.Uint64("seq", tx.Seq),
				zap.String("reason", reason),
			)
			continue
		}
		available[senderID] = avail.Sub(tx.Amount)
		kept = append(kept, tx)
	}

	l.pending = kept
	l.rebuildPendingOutLocked()
	return nil
}

// mineLocked persists a block for the pending queue and applies it. The
// returned bool reports whether every transfer in the block was applied.
func (l *Ledger) mineLocked(ctx context.Context) (*model.Block, bool, error) {
	for {
		if len(l.pending) == 0 {
			return nil, false, nil
		}
		if err := l.coverLocked(ctx); err != nil {
			return nil, false, err
		}
		if len(l.pending) == 0 {
			return nil, false, nil
		}

		prev, ok := l.Head()
		if !ok {
			return nil, false, errors.ErrInternal.New("chain has no genesis block")
		}
		block := NextBlock(&prev, l.pending, l.now().UnixMilli())

		err := l.blocks.AppendBlock(ctx, &block)
		if err == nil {
			return l.commitLocked(ctx, block)
		}

		stored, found := l.persistedAt(ctx, &prev)
		switch {
		case found && stored.Hash == block.Hash:
			l.logger.Warn("block persisted despite append error",
				zap.Uint64("index", block.Index),
				zap.Error(err),
			)
			return l.commitLocked(ctx, block)
		case found:
			// An earlier failed append left its block behind. Take it and
			// mine the queue on top of it.
			l.logger.Warn("adopting block left by an earlier append",
				zap.Uint64("index", stored.Index),
				zap.String("hash", stored.Hash),
			)
			if err := l.adoptLocked(ctx, *stored); err != nil {
				return nil, false, err
			}
			continue
		}

		l.logger.Error("failed to persist block",
			zap.Uint64("index", block.Index),
			zap.Int("txs", len(block.Transactions)),
			zap.Error(err),
		)
		return nil, false, storageErr(err, "persist block")
	}
}

// persistedAt reloads the block log and returns the block that follows
// prev, if the store holds a valid one.
func (l *Ledger) persistedAt(ctx context.Context, prev *model.Block) (*model.Block, bool) {
	blocks, err := l.blocks.LoadBlocks(ctx)
	if err != nil {
		l.logger.Warn("failed to reload block log", zap.Error(err))
		return nil, false
	}
	index := prev.Index + 1
	if uint64(len(blocks)) <= index {
		return nil, false
	}
	b := blocks[index]
	if err := VerifyChain(append(l.Chain(), b)); err != nil {
		l.logger.Warn("stored block does not extend the chain",
			zap.Uint64("index", index),
			zap.Error(err),
		)
		return nil, false
	}
	return &b, true
}

// commitLocked appends a persisted block of the pending queue to the chain,
// clears the queue and applies the block.
func (l *Ledger) commitLocked(ctx context.Context, block model.Block) (*model.Block, bool, error) {
	l.chainMu.Lock()
	l.chain = append(l.chain, block)
	l.chainMu.Unlock()

	l.pending = nil
	l.pendingOut = make(map[string]decimal.Decimal)

	l.logger.Info("block mined",
		zap.Uint64("index", block.Index),
		zap.Int("txs", len(block.Transactions)),
		zap.String("hash", block.Hash),
		zap.String("previous_hash", block.PreviousHash),
	)
	return &block, l.applyBlockLocked(ctx, block), nil
}

// adoptLocked appends a block found in the store, removes its transactions
// from the queue and applies it.
func (l *Ledger) adoptLocked(ctx context.Context, block model.Block) error {
	l.chainMu.Lock()
	l.chain = append(l.chain, block)
	l.chainMu.Unlock()

	kept := l.pending[:0]
	for _, tx := range l.pending {
		if !containsSeq(&block, tx.Seq) {
			kept = append(kept, tx)
		}
	}
	l.pending = kept
	l.rebuildPendingOutLocked()
	if s := lastSeq([]model.Block{block}); s > l.seq {
		l.seq = s
	}

	if !l.applyBlockLocked(ctx, block) {
		return errors.ErrStorageUnavailable.Newf("block %d recovered but not applied", block.Index)
	}
	return nil
}

// applyBlockLocked applies every transfer in block. On failure the block
// stays recorded and the ledger is marked for replay.
func (l *Ledger) applyBlockLocked(ctx context.Context, block model.Block) bool {
	for _, tx := range block.Transactions {
		if err := l.applyLocked(ctx, tx); err != nil {
			l.dirty = true
			l.logger.Error("failed to apply mined transfer, will replay",
				zap.Uint64("block", block.Index),
				zap.Uint64("seq", tx.Seq),
				zap.Error(err),
			)
			return false
		}
	}
	return true
}

func containsSeq(block *model.Block, seq uint64) bool {
	for _, tx := range block.Transactions {
		if tx.Seq == seq {
			return true
		}
	}
	return false
}

func (l *Ledger) applyLocked(ctx context.Context, tx model.Transaction) error {
	if tx.Seq == 0 {
		return nil
	}
	senderID := crypto.Canonicalize(tx.Sender)
	recipientID := crypto.Canonicalize(tx.Recipient)

	if err := l.accounts.AdjustBalance(ctx, senderID, tx.Amount.Neg(), tx.Seq); err != nil {
		return storageErr(err, "debit sender")
	}
	if err := l.accounts.AdjustBalance(ctx, recipientID, tx.Amount, tx.Seq); err != nil {
		return storageErr(err, "credit recipient")
	}
	if err := l.accounts.AppendTransaction(ctx, senderID, tx); err != nil {
		return storageErr(err, "append sender history")
	}
	if err := l.accounts.AppendTransaction(ctx, recipientID, tx); err != nil {
		return storageErr(err, "append recipient history")
	}
	return nil
}

func (l *Ledger) replayLocked(ctx context.Context) error {
	for _, b := range l.Chain() {
		for _, tx := range b.Transactions {
			if err := l.applyLocked(ctx, tx); err != nil {
				l.logger.Error("replay failed",
					zap.Uint64("block", b.Index),
					zap.Uint64("seq", tx.Seq),
					zap.Error(err),
				)
				return err
			}
		}
	}
	return nil
}

func (l *Ledger) recorded(tx model.Transaction) bool {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()

	for i := len(l.chain) - 1; i >= 0; i-- {
		for _, c := range l.chain[i].Transactions {
			if c.Seq == tx.Seq && c.ID == tx.ID {
				return true
			}
		}
	}
	return false
}

// storageErr keeps registered error kinds and labels anything else as a
// storage failure.
func storageErr(err error, msg string) error {
	if errors.Kind(err) != nil {
		return errors.Wrap(err, msg)
	}
	return errors.Wrapf(errors.ErrStorageUnavailable, "%s: %v", msg, err)
}
