// Package auth issues and validates session tokens. A token carries the
// account ID, public key and email of the caller.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"
)

// DefaultTTL is the session lifetime.
const DefaultTTL = time.Hour

// Claims are the JWT claims of a session.
type Claims struct {
	UserID    string `json:"userId"`
	PublicKey string `json:"publicKey"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Identity returns the canonical form of the session public key.
func (c *Claims) Identity() string {
	return crypto.Canonicalize(c.PublicKey)
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer for secret. A non-positive ttl selects
// DefaultTTL.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.ErrInvalidRequest.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for account.
func (i *Issuer) Issue(account *model.Account) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:    account.ID,
		PublicKey: account.PublicKey,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(errors.ErrInternal, err.Error())
	}
	return token, nil
}

// Parse validates token and returns its claims. Expired, malformed or
// foreign tokens yield ErrUnauthenticated.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.ErrUnauthenticated.New(err.Error())
	}
	if claims.UserID == "" || claims.PublicKey == "" {
		return nil, errors.ErrUnauthenticated.New("token is missing claims")
	}
	return claims, nil
}

type contextKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// FromContext returns the session claims stored by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Middleware rejects requests without a valid bearer token. onError writes
// the rejection so the response matches the rest of the API.
func Middleware(issuer *Issuer, onError func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				onError(w, errors.ErrUnauthenticated.New("missing bearer token"))
				return
			}
			claims, err := issuer.Parse(token)
			if err != nil {
				onError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}
