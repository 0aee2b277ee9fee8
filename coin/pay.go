package coin

import (
	"context"
	"strings"

	"github.com/qchaucoin/ledger/internal/common"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"

	"go.uber.org/zap"
)

// SubmitTransfer validates a signed transfer and records it in the ledger.
//
// The checks run in a fixed order: request fields and amount, caller owns
// the sender key, signature, then sender existence, funds and recipient
// existence inside the ledger. The signature covers the canonical message
// built from the keys exactly as submitted and the parsed amount.
func (s *Service) SubmitTransfer(ctx context.Context, req *model.TransferRequest, callerIdentity string) (*model.TransferResponse, error) {
	if strings.TrimSpace(req.SenderPublicKey) == "" ||
		strings.TrimSpace(req.RecipientPublicKey) == "" ||
		strings.TrimSpace(req.Amount) == "" ||
		strings.TrimSpace(req.Signature) == "" {
		return nil, errors.ErrInvalidRequest.New("senderPublicKey, recipientPublicKey, amount and signature are required")
	}

	amount, err := common.ParseAmount(req.Amount)
	if err != nil {
		return nil, errors.ErrInvalidRequest.Newf("invalid amount: %v", err)
	}

	senderID := crypto.Canonicalize(req.SenderPublicKey)
	if senderID == crypto.Canonicalize(req.RecipientPublicKey) {
		return nil, errors.ErrInvalidRequest.New("cannot transfer to the same account")
	}

	if callerIdentity == "" || senderID != callerIdentity {
		return nil, errors.ErrUnauthorized.New("sender key does not belong to the session")
	}

	signature := strings.TrimSpace(req.Signature)
	message := crypto.BuildCanonicalMessage(req.SenderPublicKey, req.RecipientPublicKey, amount)
	if !crypto.Verify(message, signature, req.SenderPublicKey) {
		return nil, errors.ErrInvalidSignature.New("signature does not match transfer")
	}

	tx := model.Transaction{
		ID:        crypto.TransactionID(message, signature),
		Sender:    req.SenderPublicKey,
		Recipient: req.RecipientPublicKey,
		Amount:    amount,
		Signature: signature,
	}

	receipt, err := s.ledger.Submit(ctx, tx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer accepted",
		zap.String("tx_id", receipt.Transaction.ID),
		zap.Uint64("seq", receipt.Transaction.Seq),
		zap.String("amount", common.FormatAmount(amount)),
		zap.Bool("mined", receipt.Mined),
	)

	resp := &model.TransferResponse{
		Message:     "transfer queued",
		TxID:        receipt.Transaction.ID,
		Seq:         receipt.Transaction.Seq,
		Mined:       receipt.Mined,
		Transaction: receipt.Transaction,
	}
	if receipt.Mined {
		resp.Message = "transfer recorded"
		index := receipt.BlockIndex
		resp.BlockIndex = &index
	}
	return resp, nil
}
