package mongostore

import (
	"context"

	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/qchaucoin/ledger/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type blockDoc struct {
	Index        int64   `bson:"indice"`
	Timestamp    int64   `bson:"timestamp"`
	Transactions []txDoc `bson:"transacciones"`
	PreviousHash string  `bson:"hashAnterior"`
	Hash         string  `bson:"hashActual"`
}

// BlockStore implements store.BlockStore on the "bloques" collection.
type BlockStore struct {
	c    *Client
	coll *mongo.Collection
}

var _ store.BlockStore = (*BlockStore)(nil)

func (s *BlockStore) AppendBlock(ctx context.Context, block *model.Block) error {
	txs := make([]txDoc, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		d, err := newTxDoc(tx)
		if err != nil {
			return err
		}
		txs = append(txs, *d)
	}
	doc := blockDoc{
		Index:        int64(block.Index),
		Timestamp:    block.Timestamp,
		Transactions: txs,
		PreviousHash: block.PreviousHash,
		Hash:         block.Hash,
	}

	ctx, cancel := s.c.opContext(ctx)
	defer cancel()

	_, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return errors.ErrDuplicate.Newf("block %d", block.Index)
	}
	if err != nil {
		return unavailable("insert block", err)
	}
	return nil
}

func (s *BlockStore) LoadBlocks(ctx context.Context) ([]model.Block, error) {
	ctx, cancel := s.c.opContext(ctx)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "indice", Value: 1}}))
	if err != nil {
		return nil, unavailable("find blocks", err)
	}
	var docs []blockDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable("decode blocks", err)
	}

	blocks := make([]model.Block, 0, len(docs))
	for _, d := range docs {
		txs := make([]model.Transaction, 0, len(d.Transactions))
		for _, t := range d.Transactions {
			tx, err := t.toModel()
			if err != nil {
				return nil, err
			}
			txs = append(txs, tx)
		}
		blocks = append(blocks, model.Block{
			Index:        uint64(d.Index),
			Timestamp:    d.Timestamp,
			Transactions: txs,
			PreviousHash: d.PreviousHash,
			Hash:         d.Hash,
		})
	}
	return blocks, nil
}
