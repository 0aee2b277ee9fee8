package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/shopspring/decimal"
)

// MemoryAccountStore keeps accounts in a map keyed by identity.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*model.Account
	byEmail  map[string]string
	byID     map[string]string
}

var _ AccountStore = (*MemoryAccountStore)(nil)

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[string]*model.Account),
		byEmail:  make(map[string]string),
		byID:     make(map[string]string),
	}
}

func (m *MemoryAccountStore) FindByIdentity(_ context.Context, identity string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[identity]
	if !ok {
		return nil, errors.ErrNotFound.New("account")
	}
	return acc.Clone(), nil
}

func (m *MemoryAccountStore) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	m.mu.RLock()
	identity, ok := m.byEmail[email]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.ErrNotFound.New("account")
	}
	return m.FindByIdentity(ctx, identity)
}

func (m *MemoryAccountStore) FindByID(ctx context.Context, id string) (*model.Account, error) {
	m.mu.RLock()
	identity, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.ErrNotFound.New("account")
	}
	return m.FindByIdentity(ctx, identity)
}

func (m *MemoryAccountStore) Insert(_ context.Context, account *model.Account) (string, error) {
	if account.Identity == "" {
		return "", errors.ErrInvalidRequest.New("account identity is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.Identity]; ok {
		return "", errors.ErrDuplicate.New("public key already registered")
	}
	if account.Email != "" {
		if _, ok := m.byEmail[account.Email]; ok {
			return "", errors.ErrDuplicate.New("email already registered")
		}
	}

	acc := account.Clone()
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	m.accounts[acc.Identity] = acc
	m.byID[acc.ID] = acc.Identity
	if acc.Email != "" {
		m.byEmail[acc.Email] = acc.Identity
	}
	return acc.ID, nil
}

func (m *MemoryAccountStore) AdjustBalance(_ context.Context, identity string, delta decimal.Decimal, seq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[identity]
	if !ok {
		return errors.ErrNotFound.New("account")
	}
	if seq <= acc.BalanceSeq {
		return nil
	}
	next := acc.Balance.Add(delta)
	if next.IsNegative() {
		return errors.ErrInsufficientFunds.Newf("balance %s cannot cover %s", acc.Balance, delta.Neg())
	}
	acc.Balance = next
	acc.BalanceSeq = seq
	return nil
}

func (m *MemoryAccountStore) AppendTransaction(_ context.Context, identity string, tx model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[identity]
	if !ok {
		return errors.ErrNotFound.New("account")
	}
	if tx.Seq <= acc.HistorySeq {
		return nil
	}
	acc.Transactions = append(acc.Transactions, tx)
	acc.HistorySeq = tx.Seq
	return nil
}

// MemoryBlockStore keeps blocks in memory, keyed by index. Useful for tests and for
// running the server without durable storage.
type MemoryBlockStore struct {
	mu     sync.RWMutex
	blocks map[uint64]model.Block
}

var _ BlockStore = (*MemoryBlockStore)(nil)

func NewMemoryBlockStore() *MemoryBlockStore {
	return &MemoryBlockStore{blocks: make(map[uint64]model.Block)}
}

func (m *MemoryBlockStore) AppendBlock(_ context.Context, block *model.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blocks[block.Index]; ok {
		return errors.ErrDuplicate.Newf("block %d", block.Index)
	}
	m.blocks[block.Index] = block.Clone()
	return nil
}

func (m *MemoryBlockStore) LoadBlocks(_ context.Context) ([]model.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blocks := make([]model.Block, 0, len(m.blocks))
	for _, b := range m.blocks {
		blocks = append(blocks, b.Clone())
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Index < blocks[j].Index })
	return blocks, nil
}
