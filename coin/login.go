package coin

import (
	"context"

	"github.com/qchaucoin/ledger/internal/common"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"

	"go.uber.org/zap"
)

// Login checks the credentials and issues a session token. Unknown emails
// and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, errors.ErrInvalidRequest.New("email and password are required")
	}

	password := []byte(req.Password)
	defer clear(password)

	account, err := s.accounts.FindByEmail(ctx, email)
	if errors.ErrNotFound.Is(err) {
		return nil, errors.ErrUnauthorized.New("invalid credentials")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find account by email")
	}

	if !crypto.CheckPassword(account.PasswordHash, password) {
		s.logger.Debug("login rejected", zap.String("user_id", account.ID))
		return nil, errors.ErrUnauthorized.New("invalid credentials")
	}

	token, err := s.issuer.Issue(account)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Message:   "login successful",
		UserID:    account.ID,
		PublicKey: account.PublicKey,
		Balance:   common.FormatBalance(account.Balance),
		Token:     token,
	}, nil
}
