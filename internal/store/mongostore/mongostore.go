// Package mongostore implements the account and block stores on MongoDB.
//
// Accounts live in the "usuarios" collection and blocks in "bloques", with
// the field names of the original deployment. Balances and amounts are
// written as Decimal128; numeric values from older account documents are
// read as well. Blocks from the older deployment hash a different layout and
// do not pass chain verification, so the block log must start fresh.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/qchaucoin/ledger/internal/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	accountsCollection = "usuarios"
	blocksCollection   = "bloques"
)

// Client owns the MongoDB connection shared by the stores.
type Client struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Connect dials MongoDB, checks connectivity and ensures indexes.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Client, error) {
	if uri == "" {
		return nil, errors.ErrInvalidRequest.New("mongo uri is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(uri).SetTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStorageUnavailable, "connect: %v", err)
	}

	c := &Client{
		client:  client,
		db:      client.Database(database),
		timeout: timeout,
	}

	pingCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrapf(errors.ErrStorageUnavailable, "ping: %v", err)
	}

	if err := c.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return c, nil
}

// Accounts returns the account store.
func (c *Client) Accounts() *AccountStore {
	return &AccountStore{c: c, coll: c.db.Collection(accountsCollection)}
}

// Blocks returns the block store.
func (c *Client) Blocks() *BlockStore {
	return &BlockStore{c: c, coll: c.db.Collection(blocksCollection)}
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) ensureIndexes(ctx context.Context) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	accounts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "publicKeyCleaned", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := c.db.Collection(accountsCollection).Indexes().CreateMany(ctx, accounts); err != nil {
		return errors.Wrapf(errors.ErrStorageUnavailable, "create account indexes: %v", err)
	}

	blocks := mongo.IndexModel{
		Keys:    bson.D{{Key: "indice", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.db.Collection(blocksCollection).Indexes().CreateOne(ctx, blocks); err != nil {
		return errors.Wrapf(errors.ErrStorageUnavailable, "create block index: %v", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return errors.Wrap(errors.ErrStorageUnavailable, fmt.Sprintf("%s: %v", op, err))
}
