// Package levelstore is a BlockStore backed by a LevelDB file database.
package levelstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/qchaucoin/ledger/internal/store"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var blockPrefix = []byte("block/")

// BlockStore stores each block as JSON under "block/" + big-endian index,
// so iteration order is index order.
type BlockStore struct {
	db *leveldb.DB
	wo *opt.WriteOptions
	ro *opt.ReadOptions
}

var _ store.BlockStore = (*BlockStore)(nil)

// Open opens or creates the database at path. Writes are synced.
func Open(path string) (*BlockStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStorageUnavailable, "open leveldb %s: %v", path, err)
	}
	return &BlockStore{
		db: db,
		wo: &opt.WriteOptions{Sync: true},
		ro: &opt.ReadOptions{},
	}, nil
}

func (s *BlockStore) Close() error {
	return s.db.Close()
}

func blockKey(index uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], index)
	return key
}

func (s *BlockStore) AppendBlock(_ context.Context, block *model.Block) error {
	key := blockKey(block.Index)

	// A transaction serializes the existence check with the write.
	tr, err := s.db.OpenTransaction()
	if err != nil {
		return errors.Wrapf(errors.ErrStorageUnavailable, "open transaction: %v", err)
	}
	defer tr.Discard()

	exists, err := tr.Has(key, s.ro)
	if err != nil {
		return errors.Wrapf(errors.ErrStorageUnavailable, "check block %d: %v", block.Index, err)
	}
	if exists {
		return errors.ErrDuplicate.Newf("block %d", block.Index)
	}

	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}
	if err := tr.Put(key, data, s.wo); err != nil {
		return errors.Wrapf(errors.ErrStorageUnavailable, "put block %d: %v", block.Index, err)
	}
	if err := tr.Commit(); err != nil {
		return errors.Wrapf(errors.ErrStorageUnavailable, "commit block %d: %v", block.Index, err)
	}
	return nil
}

func (s *BlockStore) LoadBlocks(_ context.Context) ([]model.Block, error) {
	iter := s.db.NewIterator(util.BytesPrefix(blockPrefix), s.ro)
	defer iter.Release()

	var blocks []model.Block
	for iter.Next() {
		var b model.Block
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, errors.Wrapf(errors.ErrCorruptChain, "decode block: %v", err)
		}
		blocks = append(blocks, b)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrapf(errors.ErrStorageUnavailable, "iterate blocks: %v", err)
	}
	return blocks, nil
}
