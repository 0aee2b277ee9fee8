package ledger

import (
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
)

// VerifyChain checks that blocks form a valid hash chain starting at
// genesis: sequential indexes, every stored hash reproducible from the
// block content, every previous hash equal to the predecessor's hash, and
// transaction sequence numbers strictly increasing.
func VerifyChain(blocks []model.Block) error {
	if len(blocks) == 0 {
		return errors.ErrCorruptChain.New("chain is empty")
	}

	var lastSeq uint64
	for i := range blocks {
		b := &blocks[i]
		if b.Index != uint64(i) {
			return errors.ErrCorruptChain.Newf("block at position %d has index %d", i, b.Index)
		}
		if i == 0 {
			if b.PreviousHash != GenesisPreviousHash {
				return errors.ErrCorruptChain.New("genesis block has a previous hash")
			}
			if len(b.Transactions) != 0 {
				return errors.ErrCorruptChain.New("genesis block has transactions")
			}
		} else if b.PreviousHash != blocks[i-1].Hash {
			return errors.ErrCorruptChain.Newf("block %d does not link to block %d", b.Index, i-1)
		}
		if got := HashBlock(b); got != b.Hash {
			return errors.ErrCorruptChain.Newf("block %d hash mismatch: stored %s, computed %s", b.Index, b.Hash, got)
		}
		for _, tx := range b.Transactions {
			if tx.Seq == 0 {
				continue // recorded before sequence numbers existed
			}
			if tx.Seq <= lastSeq {
				return errors.ErrCorruptChain.Newf("block %d: transaction seq %d after %d", b.Index, tx.Seq, lastSeq)
			}
			lastSeq = tx.Seq
		}
	}
	return nil
}

// lastSeq returns the highest transaction sequence number in blocks.
func lastSeq(blocks []model.Block) uint64 {
	var seq uint64
	for _, b := range blocks {
		for _, tx := range b.Transactions {
			if tx.Seq > seq {
				seq = tx.Seq
			}
		}
	}
	return seq
}
