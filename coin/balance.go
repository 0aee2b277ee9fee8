package coin

import (
	"context"
	"strings"

	"github.com/qchaucoin/ledger/internal/common"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
)

// GetBalance returns the balance of the account owning publicKey. Any armor
// or whitespace variant of the key is accepted.
func (s *Service) GetBalance(ctx context.Context, publicKey string) (*model.BalanceResponse, error) {
	identity := crypto.Canonicalize(publicKey)
	if identity == "" {
		return nil, errors.ErrInvalidRequest.New("publicKey is required")
	}

	account, err := s.accounts.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, errors.Wrap(err, "find account")
	}

	return &model.BalanceResponse{
		PublicKey: account.PublicKey,
		Balance:   common.FormatBalance(account.Balance),
	}, nil
}

// GetAccount returns the account profile. Only the owner may read it.
func (s *Service) GetAccount(ctx context.Context, userID, callerUserID string) (*model.AccountResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.ErrInvalidRequest.New("userId is required")
	}
	if userID != callerUserID {
		return nil, errors.ErrUnauthorized.New("account belongs to another user")
	}

	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "find account")
	}

	return &model.AccountResponse{
		UserID:    account.ID,
		Name:      account.Name,
		Email:     account.Email,
		PublicKey: account.PublicKey,
		Balance:   common.FormatBalance(account.Balance),
	}, nil
}
