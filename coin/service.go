// Package coin implements the QchauCoin account and transfer operations on
// top of the ledger.
package coin

import (
	"github.com/qchaucoin/ledger/internal/auth"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/ledger"
	"github.com/qchaucoin/ledger/internal/store"
	"github.com/shopspring/decimal"

	"go.uber.org/zap"
)

// DefaultWelcomeGrant is the balance credited to every new account.
var DefaultWelcomeGrant = decimal.NewFromInt(100)

// Service holds the collaborators of the coin operations.
type Service struct {
	ledger   *ledger.Ledger
	accounts store.AccountStore
	issuer   *auth.Issuer
	logger   *zap.Logger

	welcomeGrant   decimal.Decimal
	keystoreParams crypto.ScryptParams
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithWelcomeGrant sets the initial balance of new accounts.
func WithWelcomeGrant(amount decimal.Decimal) Option {
	return func(s *Service) {
		s.welcomeGrant = amount
	}
}

// WithKeystoreParams sets the scrypt parameters of the keystore returned at
// registration.
func WithKeystoreParams(params crypto.ScryptParams) Option {
	return func(s *Service) {
		s.keystoreParams = params
	}
}

// NewService returns a Service. The ledger must already be open.
func NewService(l *ledger.Ledger, accounts store.AccountStore, issuer *auth.Issuer, opts ...Option) *Service {
	s := &Service{
		ledger:         l,
		accounts:       accounts,
		issuer:         issuer,
		logger:         zap.NewNop(),
		welcomeGrant:   DefaultWelcomeGrant,
		keystoreParams: crypto.ServerScrypt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issuer returns the token issuer used for sessions.
func (s *Service) Issuer() *auth.Issuer {
	return s.issuer
}
