package ledger

import (
	"testing"

	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChain() []model.Block {
	genesis := NewGenesisBlock(1000)
	b1 := NextBlock(&genesis, []model.Transaction{
		{Seq: 1, ID: "t1", Sender: "a", Recipient: "b", Amount: decimal.NewFromInt(30), Signature: "aa", Timestamp: 1001},
	}, 1002)
	b2 := NextBlock(&b1, []model.Transaction{
		{Seq: 2, ID: "t2", Sender: "b", Recipient: "a", Amount: decimal.RequireFromString("0.5"), Signature: "bb", Timestamp: 1003},
		{Seq: 3, ID: "t3", Sender: "a", Recipient: "c", Amount: decimal.NewFromInt(1), Signature: "cc", Timestamp: 1004},
	}, 1005)
	return []model.Block{genesis, b1, b2}
}

func TestHashBlockDeterministic(t *testing.T) {
	chain := sampleChain()
	for _, b := range chain {
		assert.Equal(t, b.Hash, HashBlock(&b))
		assert.Len(t, b.Hash, 64)
	}
	assert.Equal(t, chain[0].Hash, chain[1].PreviousHash)
	assert.NotEqual(t, chain[1].Hash, chain[2].Hash)

	// nil and empty transaction lists hash the same
	g := chain[0]
	g.Transactions = nil
	assert.Equal(t, chain[0].Hash, HashBlock(&g))
}

func TestVerifyChain(t *testing.T) {
	require.NoError(t, VerifyChain(sampleChain()))

	cases := map[string]func(c []model.Block) []model.Block{
		"empty": func(c []model.Block) []model.Block {
			return nil
		},
		"tampered amount": func(c []model.Block) []model.Block {
			c[1].Transactions[0].Amount = decimal.NewFromInt(300)
			return c
		},
		"tampered recipient": func(c []model.Block) []model.Block {
			c[2].Transactions[1].Recipient = "mallory"
			return c
		},
		"tampered hash": func(c []model.Block) []model.Block {
			c[2].Hash = "00"
			return c
		},
		"broken link": func(c []model.Block) []model.Block {
			c[2].PreviousHash = c[0].Hash
			c[2].Hash = HashBlock(&c[2])
			return c
		},
		"missing block": func(c []model.Block) []model.Block {
			return []model.Block{c[0], c[2]}
		},
		"genesis previous hash": func(c []model.Block) []model.Block {
			c[0].PreviousHash = "x"
			c[0].Hash = HashBlock(&c[0])
			return c[:1]
		},
		"genesis with transactions": func(c []model.Block) []model.Block {
			c[0].Transactions = c[1].Transactions
			c[0].Hash = HashBlock(&c[0])
			return c[:1]
		},
		"seq regression": func(c []model.Block) []model.Block {
			c[2].Transactions[1].Seq = 1
			c[2].Hash = HashBlock(&c[2])
			return c
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			err := VerifyChain(mutate(sampleChain()))
			require.Error(t, err)
			assert.True(t, errors.ErrCorruptChain.Is(err), "got %v", err)
		})
	}
}

func TestLastSeq(t *testing.T) {
	assert.Equal(t, uint64(3), lastSeq(sampleChain()))
	assert.Equal(t, uint64(0), lastSeq([]model.Block{NewGenesisBlock(1)}))
}
