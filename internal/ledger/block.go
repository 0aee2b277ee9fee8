package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/qchaucoin/ledger/internal/model"
)

// GenesisPreviousHash is the sentinel previous hash of block 0.
const GenesisPreviousHash = "0"

// hashedBlock fixes the field order of the hashed content.
type hashedBlock struct {
	Index        uint64              `json:"index"`
	Timestamp    int64               `json:"timestamp"`
	Transactions []model.Transaction `json:"transactions"`
	PreviousHash string              `json:"previousHash"`
}

// HashBlock returns the hex SHA-256 of the block content. The stored Hash
// field is not part of the input.
func HashBlock(b *model.Block) string {
	txs := b.Transactions
	if txs == nil {
		txs = []model.Transaction{}
	}
	// Marshaling plain strings, integers and decimals cannot fail.
	data, _ := json.Marshal(hashedBlock{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Transactions: txs,
		PreviousHash: b.PreviousHash,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewGenesisBlock returns block 0 with no transactions.
func NewGenesisBlock(timestamp int64) model.Block {
	b := model.Block{
		Index:        0,
		Timestamp:    timestamp,
		Transactions: []model.Transaction{},
		PreviousHash: GenesisPreviousHash,
	}
	b.Hash = HashBlock(&b)
	return b
}

// NextBlock seals txs into the block following prev.
func NextBlock(prev *model.Block, txs []model.Transaction, timestamp int64) model.Block {
	b := model.Block{
		Index:        prev.Index + 1,
		Timestamp:    timestamp,
		Transactions: append([]model.Transaction{}, txs...),
		PreviousHash: prev.Hash,
	}
	b.Hash = HashBlock(&b)
	return b
}
