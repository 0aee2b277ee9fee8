package coin

import (
	"context"
	"sort"

	"github.com/qchaucoin/ledger/internal/common"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/shopspring/decimal"
)

// GetTransactions returns the history of the account owning publicKey,
// newest first. Only the owner may read it.
func (s *Service) GetTransactions(ctx context.Context, publicKey, callerIdentity string, req *model.HistoryRequest) (*model.HistoryResponse, error) {
	identity := crypto.Canonicalize(publicKey)
	if identity == "" {
		return nil, errors.ErrInvalidRequest.New("publicKey is required")
	}
	if req == nil {
		req = &model.HistoryRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, errors.ErrInvalidRequest.New(err.Error())
	}
	if identity != callerIdentity {
		return nil, errors.ErrUnauthorized.New("history belongs to another account")
	}

	account, err := s.accounts.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, errors.Wrap(err, "find account")
	}

	var minAmount, maxAmount *decimal.Decimal
	if req.MinAmount != nil {
		d, _ := common.ParseDecimal(*req.MinAmount)
		minAmount = &d
	}
	if req.MaxAmount != nil {
		d, _ := common.ParseDecimal(*req.MaxAmount)
		maxAmount = &d
	}

	entries := make([]model.HistoryEntry, 0, len(account.Transactions))
	for _, tx := range account.Transactions {
		entry := historyEntry(identity, tx)

		if req.Type != nil && *req.Type != entry.Type {
			continue
		}
		if req.From != nil && entry.Timestamp.Before(*req.From) {
			continue
		}
		if req.To != nil && entry.Timestamp.After(*req.To) {
			continue
		}
		if minAmount != nil && tx.Amount.LessThan(*minAmount) {
			continue
		}
		if maxAmount != nil && tx.Amount.GreaterThan(*maxAmount) {
			continue
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Seq > entries[j].Seq
	})

	received, sent := decimal.Zero, decimal.Zero
	for _, e := range entries {
		amount, err := common.ParseDecimal(e.Amount)
		if err != nil {
			continue
		}
		switch e.Type {
		case model.TransactionTypeCredit:
			received = received.Add(amount)
		case model.TransactionTypeDebit:
			sent = sent.Add(amount)
		}
	}

	return &model.HistoryResponse{
		PublicKey:     account.PublicKey,
		TotalReceived: common.FormatAmount(received),
		TotalSent:     common.FormatAmount(sent),
		Transactions:  entries,
	}, nil
}

func historyEntry(identity string, tx model.Transaction) model.HistoryEntry {
	entry := model.HistoryEntry{
		Type:         model.TransactionTypeCredit,
		ID:           tx.ID,
		Seq:          tx.Seq,
		Counterparty: tx.Sender,
		Amount:       common.FormatAmount(tx.Amount),
		Timestamp:    tx.Time(),
	}
	if crypto.Canonicalize(tx.Sender) == identity {
		entry.Type = model.TransactionTypeDebit
		entry.Counterparty = tx.Recipient
	}
	return entry
}
