package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDecimalConversion(t *testing.T) {
	for _, s := range []string{"0", "100", "69.5", "0.00000001", "123456789.12345678"} {
		d := decimal.RequireFromString(s)
		v, err := toDecimal128(d)
		require.NoError(t, err)
		back, err := fromDecimal128(v)
		require.NoError(t, err)
		assert.True(t, d.Equal(back), "%s != %s", d, back)
	}
}

func TestDecimalFromLegacyValues(t *testing.T) {
	raw := func(v interface{}) bson.RawValue {
		typ, data, err := bson.MarshalValue(v)
		require.NoError(t, err)
		return bson.RawValue{Type: typ, Value: data}
	}
	d128, err := decimalValue(decimal.RequireFromString("12.75"))
	require.NoError(t, err)

	cases := map[string]struct {
		in   bson.RawValue
		want string
	}{
		"decimal128": {in: d128, want: "12.75"},
		"double":     {in: raw(69.5), want: "69.5"},
		"int32":      {in: raw(int32(100)), want: "100"},
		"int64":      {in: raw(int64(7)), want: "7"},
		"missing":    {in: bson.RawValue{}, want: "0"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := decimalFromValue(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}

	_, err = decimalFromValue(raw("100"))
	require.Error(t, err)
}

func TestDocConversion(t *testing.T) {
	acc := &model.Account{
		Name:      "Alice",
		Email:     "alice@example.com",
		PublicKey: "PEM",
		Identity:  "id",
		Balance:   decimal.NewFromInt(100),
		Transactions: []model.Transaction{{
			Seq: 3, ID: "tx", Sender: "a", Recipient: "b",
			Amount: decimal.RequireFromString("2.5"), Signature: "ff", Timestamp: 42,
		}},
		BalanceSeq: 3,
		HistorySeq: 3,
	}
	doc, err := newAccountDoc(acc)
	require.NoError(t, err)
	assert.False(t, doc.CreatedAt.IsZero())

	back, err := doc.toModel()
	require.NoError(t, err)
	assert.Equal(t, acc.Identity, back.Identity)
	assert.True(t, acc.Balance.Equal(back.Balance))
	require.Len(t, back.Transactions, 1)
	assert.Equal(t, uint64(3), back.Transactions[0].Seq)
	assert.Equal(t, "2.5", back.Transactions[0].Amount.String())
}

// connect returns a client for QCHAU_TEST_MONGO_URI or skips the test.
func connect(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("QCHAU_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("QCHAU_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("qchau_test_%d", time.Now().UnixNano())
	c, err := Connect(ctx, uri, dbName, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.db.Drop(ctx)
		_ = c.Close(ctx)
	})
	return c
}

func TestAccountStoreMongo(t *testing.T) {
	c := connect(t)
	ctx := context.Background()
	s := c.Accounts()

	id, err := s.Insert(ctx, &model.Account{
		Name: "Alice", Email: "alice@example.com", Identity: "alice", Balance: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = s.Insert(ctx, &model.Account{Email: "alice@example.com", Identity: "other"})
	assert.True(t, errors.ErrDuplicate.Is(err))

	acc, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Identity)

	_, err = s.FindByID(ctx, "not-hex")
	assert.True(t, errors.ErrInvalidRequest.Is(err))

	require.NoError(t, s.AdjustBalance(ctx, "alice", decimal.NewFromInt(-30), 1))
	require.NoError(t, s.AdjustBalance(ctx, "alice", decimal.NewFromInt(-30), 1))
	err = s.AdjustBalance(ctx, "alice", decimal.NewFromInt(-71), 2)
	assert.True(t, errors.ErrInsufficientFunds.Is(err))
	err = s.AdjustBalance(ctx, "nobody", decimal.NewFromInt(1), 2)
	assert.True(t, errors.ErrNotFound.Is(err))

	tx := model.Transaction{Seq: 1, ID: "tx1", Amount: decimal.NewFromInt(30)}
	require.NoError(t, s.AppendTransaction(ctx, "alice", tx))
	require.NoError(t, s.AppendTransaction(ctx, "alice", tx))

	acc, err = s.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "70", acc.Balance.String())
	assert.Len(t, acc.Transactions, 1)
}

func TestBlockStoreMongo(t *testing.T) {
	c := connect(t)
	ctx := context.Background()
	s := c.Blocks()

	require.NoError(t, s.AppendBlock(ctx, &model.Block{Index: 1, Hash: "b1"}))
	require.NoError(t, s.AppendBlock(ctx, &model.Block{Index: 0, Hash: "b0", PreviousHash: "0"}))
	err := s.AppendBlock(ctx, &model.Block{Index: 1})
	assert.True(t, errors.ErrDuplicate.Is(err))

	blocks, err := s.LoadBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "b0", blocks[0].Hash)
	assert.Equal(t, "b1", blocks[1].Hash)
}
