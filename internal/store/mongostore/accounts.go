package mongostore

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/qchaucoin/ledger/internal/store"
	"github.com/shopspring/decimal"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"nombre"`
	Email        string             `bson:"email"`
	Password     string             `bson:"password"`
	PublicKey    string             `bson:"publicKey"`
	Identity     string             `bson:"publicKeyCleaned"`
	Balance      bson.RawValue      `bson:"balance"`
	Transactions []txDoc            `bson:"transacciones"`
	BalanceSeq   int64              `bson:"balanceSeq"`
	HistorySeq   int64              `bson:"historySeq"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

type txDoc struct {
	Seq       int64         `bson:"seq"`
	ID        string        `bson:"id"`
	Sender    string        `bson:"remitente"`
	Recipient string        `bson:"destinatario"`
	Amount    bson.RawValue `bson:"monto"`
	Signature string        `bson:"signature"`
	Timestamp int64         `bson:"timestamp"`
}

// AccountStore implements store.AccountStore with single-document atomic
// updates. Sequence guards live in the update filters.
type AccountStore struct {
	c    *Client
	coll *mongo.Collection
}

var _ store.AccountStore = (*AccountStore)(nil)

func (s *AccountStore) FindByIdentity(ctx context.Context, identity string) (*model.Account, error) {
	return s.findOne(ctx, bson.M{"publicKeyCleaned": identity})
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (*model.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.ErrInvalidRequest.New("invalid user id format")
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *AccountStore) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	ctx, cancel := s.c.opContext(ctx)
	defer cancel()

	var doc accountDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.ErrNotFound.New("account")
	}
	if err != nil {
		return nil, unavailable("find account", err)
	}
	return doc.toModel()
}

func (s *AccountStore) Insert(ctx context.Context, account *model.Account) (string, error) {
	if account.Identity == "" {
		return "", errors.ErrInvalidRequest.New("account identity is empty")
	}
	doc, err := newAccountDoc(account)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.c.opContext(ctx)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", errors.ErrDuplicate.New("email or public key already registered")
	}
	if err != nil {
		return "", unavailable("insert account", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.ErrInternal.Newf("unexpected inserted id %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *AccountStore) AdjustBalance(ctx context.Context, identity string, delta decimal.Decimal, seq uint64) error {
	d128, err := toDecimal128(delta)
	if err != nil {
		return err
	}
	filter := bson.M{
		"publicKeyCleaned": identity,
		"$or":             seqBefore("balanceSeq", seq),
	}
	if delta.IsNegative() {
		need, err := toDecimal128(delta.Neg())
		if err != nil {
			return err
		}
		filter["balance"] = bson.M{"$gte": need}
	}
	update := bson.M{
		"$inc": bson.M{"balance": d128},
		"$set": bson.M{"balanceSeq": int64(seq)},
	}

	matched, err := s.updateOne(ctx, filter, update)
	if err != nil || matched {
		return err
	}

	// Nothing matched: unknown account, already applied, or overdraft.
	acc, err := s.FindByIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if seq <= acc.BalanceSeq {
		return nil
	}
	return errors.ErrInsufficientFunds.Newf("balance %s cannot cover %s", acc.Balance, delta.Neg())
}

func (s *AccountStore) AppendTransaction(ctx context.Context, identity string, tx model.Transaction) error {
	doc, err := newTxDoc(tx)
	if err != nil {
		return err
	}
	filter := bson.M{
		"publicKeyCleaned": identity,
		"$or":             seqBefore("historySeq", tx.Seq),
	}
	update := bson.M{
		"$push": bson.M{"transacciones": doc},
		"$set":  bson.M{"historySeq": int64(tx.Seq)},
	}

	matched, err := s.updateOne(ctx, filter, update)
	if err != nil || matched {
		return err
	}
	// Either already applied or the account is missing.
	_, err = s.FindByIdentity(ctx, identity)
	return err
}

// seqBefore matches documents whose guard field is below seq. Documents
// written before guards existed have no field at all.
func seqBefore(field string, seq uint64) bson.A {
	return bson.A{
		bson.M{field: bson.M{"$lt": int64(seq)}},
		bson.M{field: bson.M{"$exists": false}},
	}
}

func (s *AccountStore) updateOne(ctx context.Context, filter, update bson.M) (bool, error) {
	ctx, cancel := s.c.opContext(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, unavailable("update account", err)
	}
	return res.MatchedCount > 0, nil
}

func newAccountDoc(a *model.Account) (*accountDoc, error) {
	balance, err := decimalValue(a.Balance)
	if err != nil {
		return nil, err
	}
	txs := make([]txDoc, 0, len(a.Transactions))
	for _, tx := range a.Transactions {
		d, err := newTxDoc(tx)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *d)
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &accountDoc{
		Name:         a.Name,
		Email:        a.Email,
		Password:     a.PasswordHash,
		PublicKey:    a.PublicKey,
		Identity:     a.Identity,
		Balance:      balance,
		Transactions: txs,
		BalanceSeq:   int64(a.BalanceSeq),
		HistorySeq:   int64(a.HistorySeq),
		CreatedAt:    created,
	}, nil
}

func (d *accountDoc) toModel() (*model.Account, error) {
	balance, err := decimalFromValue(d.Balance)
	if err != nil {
		return nil, err
	}
	txs := make([]model.Transaction, 0, len(d.Transactions))
	for _, t := range d.Transactions {
		tx, err := t.toModel()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return &model.Account{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		PublicKey:    d.PublicKey,
		Identity:     d.Identity,
		Balance:      balance,
		Transactions: txs,
		BalanceSeq:   uint64(d.BalanceSeq),
		HistorySeq:   uint64(d.HistorySeq),
		CreatedAt:    d.CreatedAt,
	}, nil
}

func newTxDoc(tx model.Transaction) (*txDoc, error) {
	amount, err := decimalValue(tx.Amount)
	if err != nil {
		return nil, err
	}
	return &txDoc{
		Seq:       int64(tx.Seq),
		ID:        tx.ID,
		Sender:    tx.Sender,
		Recipient: tx.Recipient,
		Amount:    amount,
		Signature: tx.Signature,
		Timestamp: tx.Timestamp,
	}, nil
}

func (d txDoc) toModel() (model.Transaction, error) {
	amount, err := decimalFromValue(d.Amount)
	if err != nil {
		return model.Transaction{}, err
	}
	return model.Transaction{
		Seq:       uint64(d.Seq),
		ID:        d.ID,
		Sender:    d.Sender,
		Recipient: d.Recipient,
		Amount:    amount,
		Signature: d.Signature,
		Timestamp: d.Timestamp,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, errors.ErrInvalidRequest.Newf("amount %s: %v", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, errors.ErrInternal.Newf("stored decimal %s: %v", v, err)
	}
	return d, nil
}

// decimalValue encodes d as a Decimal128 field value.
func decimalValue(d decimal.Decimal) (bson.RawValue, error) {
	v, err := toDecimal128(d)
	if err != nil {
		return bson.RawValue{}, err
	}
	t, data, err := bson.MarshalValue(v)
	if err != nil {
		return bson.RawValue{}, errors.ErrInternal.Newf("encode decimal %s: %v", d, err)
	}
	return bson.RawValue{Type: t, Value: data}, nil
}

// decimalFromValue decodes a Decimal128 field. Documents written by the
// original server hold plain JavaScript numbers, stored as doubles or
// integers.
func decimalFromValue(v bson.RawValue) (decimal.Decimal, error) {
	if d128, ok := v.Decimal128OK(); ok {
		return fromDecimal128(d128)
	}
	if f, ok := v.DoubleOK(); ok {
		return decimal.NewFromFloat(f), nil
	}
	if n, ok := v.Int32OK(); ok {
		return decimal.NewFromInt32(n), nil
	}
	if n, ok := v.Int64OK(); ok {
		return decimal.NewFromInt(n), nil
	}
	if v.Type == 0 || v.Type == bson.TypeNull {
		return decimal.Zero, nil
	}
	return decimal.Zero, errors.ErrInternal.Newf("stored amount has type %s", v.Type)
}
