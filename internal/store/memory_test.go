package store

import (
	"context"
	"sync"
	"testing"

	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAccountStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAccountStore()

	id, err := s.Insert(ctx, &model.Account{
		Name:     "Alice",
		Email:    "alice@example.com",
		Identity: "alice-key",
		Balance:  decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	t.Run("lookups", func(t *testing.T) {
		byIdentity, err := s.FindByIdentity(ctx, "alice-key")
		require.NoError(t, err)
		assert.Equal(t, id, byIdentity.ID)
		assert.False(t, byIdentity.CreatedAt.IsZero())

		byEmail, err := s.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)

		byID, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.Name)

		_, err = s.FindByIdentity(ctx, "nobody")
		assert.True(t, errors.ErrNotFound.Is(err))
		_, err = s.FindByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.ErrNotFound.Is(err))
		_, err = s.FindByID(ctx, "missing")
		assert.True(t, errors.ErrNotFound.Is(err))
	})

	t.Run("duplicates", func(t *testing.T) {
		_, err := s.Insert(ctx, &model.Account{Identity: "alice-key", Email: "other@example.com"})
		assert.True(t, errors.ErrDuplicate.Is(err))
		_, err = s.Insert(ctx, &model.Account{Identity: "other-key", Email: "alice@example.com"})
		assert.True(t, errors.ErrDuplicate.Is(err))
		_, err = s.Insert(ctx, &model.Account{})
		assert.True(t, errors.ErrInvalidRequest.Is(err))
	})

	t.Run("returned accounts are copies", func(t *testing.T) {
		acc, err := s.FindByIdentity(ctx, "alice-key")
		require.NoError(t, err)
		acc.Balance = decimal.NewFromInt(1)
		again, err := s.FindByIdentity(ctx, "alice-key")
		require.NoError(t, err)
		assert.True(t, again.Balance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("adjust balance is idempotent per seq", func(t *testing.T) {
		require.NoError(t, s.AdjustBalance(ctx, "alice-key", decimal.NewFromInt(-30), 1))
		require.NoError(t, s.AdjustBalance(ctx, "alice-key", decimal.NewFromInt(-30), 1))

		acc, err := s.FindByIdentity(ctx, "alice-key")
		require.NoError(t, err)
		assert.Equal(t, "70", acc.Balance.String())
		assert.Equal(t, uint64(1), acc.BalanceSeq)
	})

	t.Run("adjust balance refuses overdraft", func(t *testing.T) {
		err := s.AdjustBalance(ctx, "alice-key", decimal.NewFromInt(-71), 2)
		assert.True(t, errors.ErrInsufficientFunds.Is(err))

		acc, err := s.FindByIdentity(ctx, "alice-key")
		require.NoError(t, err)
		assert.Equal(t, "70", acc.Balance.String())
		assert.Equal(t, uint64(1), acc.BalanceSeq)

		err = s.AdjustBalance(ctx, "nobody", decimal.NewFromInt(1), 2)
		assert.True(t, errors.ErrNotFound.Is(err))
	})

	t.Run("append transaction is idempotent per seq", func(t *testing.T) {
		tx := model.Transaction{Seq: 1, ID: "tx1", Amount: decimal.NewFromInt(30)}
		require.NoError(t, s.AppendTransaction(ctx, "alice-key", tx))
		require.NoError(t, s.AppendTransaction(ctx, "alice-key", tx))

		acc, err := s.FindByIdentity(ctx, "alice-key")
		require.NoError(t, err)
		require.Len(t, acc.Transactions, 1)
		assert.Equal(t, "tx1", acc.Transactions[0].ID)

		err = s.AppendTransaction(ctx, "nobody", tx)
		assert.True(t, errors.ErrNotFound.Is(err))
	})
}

func TestMemoryAccountStoreConcurrentAdjust(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAccountStore()
	_, err := s.Insert(ctx, &model.Account{Identity: "k", Balance: decimal.Zero})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			// out-of-order seqs are dropped, so only bounds can be checked
			_ = s.AdjustBalance(ctx, "k", decimal.NewFromInt(1), seq)
		}(uint64(i))
	}
	wg.Wait()

	acc, err := s.FindByIdentity(ctx, "k")
	require.NoError(t, err)
	assert.True(t, acc.Balance.LessThanOrEqual(decimal.NewFromInt(50)))
	assert.True(t, acc.Balance.IsPositive())
}

func TestMemoryBlockStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBlockStore()

	blocks, err := s.LoadBlocks(ctx)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	require.NoError(t, s.AppendBlock(ctx, &model.Block{Index: 1, Hash: "b1"}))
	require.NoError(t, s.AppendBlock(ctx, &model.Block{Index: 0, Hash: "b0"}))

	err = s.AppendBlock(ctx, &model.Block{Index: 1, Hash: "again"})
	assert.True(t, errors.ErrDuplicate.Is(err))

	blocks, err = s.LoadBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "b0", blocks[0].Hash)
	assert.Equal(t, "b1", blocks[1].Hash)
}
