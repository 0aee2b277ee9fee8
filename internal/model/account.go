package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a registered ledger participant. Identity is the canonical
// form of PublicKey and is the primary lookup key.
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	PublicKey    string          `json:"publicKey"`
	Identity     string          `json:"identity"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
	// BalanceSeq and HistorySeq hold the Seq of the last transaction whose
	// balance delta and history entry were applied to this account.
	BalanceSeq uint64    `json:"-"`
	HistorySeq uint64    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone returns a deep copy so callers can't mutate store state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Transactions = append([]Transaction(nil), a.Transactions...)
	return &c
}
