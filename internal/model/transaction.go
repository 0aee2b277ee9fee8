package model

import (
	"fmt"
	"time"

	"github.com/qchaucoin/ledger/internal/common"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable signed transfer. Sender and Recipient hold the
// public keys as submitted by the client.
type Transaction struct {
	Seq       uint64          `json:"seq"`
	ID        string          `json:"id"`
	Sender    string          `json:"sender"`
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	Signature string          `json:"signature"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// Time returns the transaction timestamp as time.Time.
func (tx Transaction) Time() time.Time {
	return time.UnixMilli(tx.Timestamp).UTC()
}

// TransactionType is the direction of a transaction relative to an account.
type TransactionType string

const (
	// TransactionTypeDebit marks funds leaving the account.
	TransactionTypeDebit TransactionType = "DEBIT"
	// TransactionTypeCredit marks funds arriving at the account.
	TransactionTypeCredit TransactionType = "CREDIT"
)

// HistoryEntry is a transaction as seen from one account.
type HistoryEntry struct {
	Type         TransactionType `json:"type"`
	ID           string          `json:"id"`
	Seq          uint64          `json:"seq"`
	Counterparty string          `json:"counterparty"`
	Amount       string          `json:"amount"`
	Timestamp    time.Time       `json:"timestamp"`
}

// HistoryResponse represents response for GET /transactions
type HistoryResponse struct {
	PublicKey     string         `json:"publicKey"`
	TotalReceived string         `json:"totalReceived"`
	TotalSent     string         `json:"totalSent"`
	Transactions  []HistoryEntry `json:"transactions"`
}

// HistoryRequest represents filter parameters for GET /transactions
type HistoryRequest struct {
	Type      *TransactionType `form:"type"`
	From      *time.Time       `form:"from"`
	To        *time.Time       `form:"to"`
	MinAmount *string          `form:"minAmount"`
	MaxAmount *string          `form:"maxAmount"`
}

// Validate validates HistoryRequest filter parameters.
func (r *HistoryRequest) Validate() error {
	if r.Type != nil && *r.Type != TransactionTypeDebit && *r.Type != TransactionTypeCredit {
		return fmt.Errorf("type must be DEBIT or CREDIT")
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return fmt.Errorf("to date must be after or equal to from date")
	}
	if r.MinAmount != nil {
		if _, err := common.ParseDecimal(*r.MinAmount); err != nil {
			return fmt.Errorf("invalid minAmount: %w", err)
		}
	}
	if r.MaxAmount != nil {
		if _, err := common.ParseDecimal(*r.MaxAmount); err != nil {
			return fmt.Errorf("invalid maxAmount: %w", err)
		}
	}
	if r.MinAmount != nil && r.MaxAmount != nil {
		cmp, err := common.CompareAmounts(*r.MinAmount, *r.MaxAmount)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		if cmp == 1 {
			return fmt.Errorf("minAmount must be less than or equal to maxAmount")
		}
	}
	return nil
}
