// Package store defines the storage collaborators of the ledger and
// provides in-memory implementations. Durable engines live in the
// mongostore and levelstore subpackages.
package store

import (
	"context"

	"github.com/qchaucoin/ledger/internal/model"
	"github.com/shopspring/decimal"
)

// AccountStore reads and mutates accounts.
//
// Lookups of unknown accounts return errors.ErrNotFound. Inserting an
// account whose identity or email already exists returns errors.ErrDuplicate.
type AccountStore interface {
	FindByIdentity(ctx context.Context, identity string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
	Insert(ctx context.Context, account *model.Account) (string, error)

	// AdjustBalance atomically adds delta to the balance. It is a no-op when
	// seq is not greater than the account's BalanceSeq, so replays are safe.
	// A delta that would make the balance negative fails with
	// errors.ErrInsufficientFunds and leaves the account untouched.
	AdjustBalance(ctx context.Context, identity string, delta decimal.Decimal, seq uint64) error

	// AppendTransaction appends tx to the history. It is a no-op when tx.Seq
	// is not greater than the account's HistorySeq.
	AppendTransaction(ctx context.Context, identity string, tx model.Transaction) error
}

// BlockStore is the durable, append-only block log.
type BlockStore interface {
	// AppendBlock durably stores block. A block with an index that is
	// already stored fails with errors.ErrDuplicate.
	AppendBlock(ctx context.Context, block *model.Block) error
	// LoadBlocks returns all stored blocks ordered by index.
	LoadBlocks(ctx context.Context) ([]model.Block, error)
}
