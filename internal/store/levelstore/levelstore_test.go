package levelstore

import (
	"context"
	"testing"

	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	// insert out of order, including an index above 255 to check key ordering
	for _, idx := range []uint64{0, 300, 2, 1} {
		require.NoError(t, s.AppendBlock(ctx, &model.Block{
			Index: idx,
			Transactions: []model.Transaction{{
				Seq:    idx,
				Amount: decimal.RequireFromString("1.5"),
			}},
			Hash: "h",
		}))
	}

	err = s.AppendBlock(ctx, &model.Block{Index: 2})
	assert.True(t, errors.ErrDuplicate.Is(err))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	blocks, err := s.LoadBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	for i, want := range []uint64{0, 1, 2, 300} {
		assert.Equal(t, want, blocks[i].Index)
	}
	assert.Equal(t, "1.5", blocks[3].Transactions[0].Amount.String())
}

func TestBlockStoreEmpty(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	blocks, err := s.LoadBlocks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, blocks)
}
