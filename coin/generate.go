package coin

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/qchaucoin/ledger/internal/common"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Register creates an account with a fresh key pair and the welcome grant.
// The private key is returned in the response and never stored; the
// keystore field carries the same key sealed with the registration password.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.RegisterResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, errors.ErrInvalidRequest.New("nombre, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, errors.ErrInvalidRequest.New("email is not valid")
	}

	// Unique index enforces this too; checking first avoids a wasted key pair.
	_, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, errors.ErrDuplicate.New("email already registered")
	case !errors.ErrNotFound.Is(err):
		return nil, errors.Wrap(err, "find account by email")
	}

	password := []byte(req.Password)
	defer clear(password)

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, err.Error())
	}
	identity := crypto.Canonicalize(kp.PublicKeyPEM)

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, err.Error())
	}

	account := &model.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PublicKey:    kp.PublicKeyPEM,
		Identity:     identity,
		Balance:      s.welcomeGrant,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.accounts.Insert(ctx, account)
	if err != nil {
		return nil, errors.Wrap(err, "insert account")
	}
	account.ID = id

	ks, err := crypto.SealPrivateKey(kp.PrivateKeyPEM, identity, password, s.keystoreParams)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, err.Error())
	}
	keystore, err := crypto.EncodeKeystore(ks)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, err.Error())
	}

	// The QR is a convenience for sharing the receiving key.
	qr, err := generateQRCode(identity)
	if err != nil {
		s.logger.Warn("failed to generate QR code", zap.String("user_id", id), zap.Error(err))
	}

	token, err := s.issuer.Issue(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered",
		zap.String("user_id", id),
		zap.String("email", email),
	)

	return &model.RegisterResponse{
		Message:    "account created",
		UserID:     id,
		PublicKey:  kp.PublicKeyPEM,
		PrivateKey: kp.PrivateKeyPEM,
		Keystore:   keystore,
		QR:         qr,
		Balance:    common.FormatBalance(account.Balance),
		Token:      token,
	}, nil
}

// generateQRCode returns a base64 PNG QR code of content.
func generateQRCode(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
