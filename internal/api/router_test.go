package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qchaucoin/ledger/coin"
	"github.com/qchaucoin/ledger/internal/auth"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/handler"
	"github.com/qchaucoin/ledger/internal/ledger"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/qchaucoin/ledger/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	crypto.PasswordCost = 4
	logger := zaptest.NewLogger(t)

	accounts := store.NewMemoryAccountStore()
	l := ledger.New(accounts, store.NewMemoryBlockStore(), ledger.WithLogger(logger))
	require.NoError(t, l.Open(context.Background()))
	issuer, err := auth.NewIssuer([]byte("router-secret"), time.Minute)
	require.NoError(t, err)

	svc := coin.NewService(l, accounts, issuer,
		coin.WithLogger(logger),
		coin.WithKeystoreParams(crypto.ScryptParams{N: 1 << 10, R: 8, P: 1}),
	)
	srv := httptest.NewServer(SetupRouter(handler.NewCoinHandler(svc, logger), issuer))
	t.Cleanup(srv.Close)
	return srv
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/account?userId=x"},
		{http.MethodPost, "/transfer"},
		{http.MethodGet, "/transactions?publicKey=x"},
	} {
		req, err := http.NewRequest(tc.method, srv.URL+tc.path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
	}
}

func TestRegisterThenAccount(t *testing.T) {
	srv := newTestServer(t)

	body, err := json.Marshal(model.RegisterRequest{Name: "alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reg model.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/account?userId="+reg.UserID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	accResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer accResp.Body.Close()
	require.Equal(t, http.StatusOK, accResp.StatusCode)

	var acc model.AccountResponse
	require.NoError(t, json.NewDecoder(accResp.Body).Decode(&acc))
	assert.Equal(t, "alice@example.com", acc.Email)
	assert.Equal(t, "100.00", acc.Balance)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/transfer", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://wallet.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	get, err := http.NewRequest(http.MethodGet, srv.URL+"/chain", nil)
	require.NoError(t, err)
	get.Header.Set("Origin", "http://wallet.example")
	chainResp, err := http.DefaultClient.Do(get)
	require.NoError(t, err)
	defer chainResp.Body.Close()
	assert.Equal(t, http.StatusOK, chainResp.StatusCode)
	assert.Equal(t, "*", chainResp.Header.Get("Access-Control-Allow-Origin"))
}
