package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/ledger"
	"github.com/qchaucoin/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignTransfer(t *testing.T) {
	sender, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	req, err := signTransfer(sender.PrivateKeyPEM, recipient.PublicKeyPEM, "30.50")
	require.NoError(t, err)
	assert.Equal(t, sender.PublicKeyPEM, req.SenderPublicKey)
	assert.Equal(t, "30.5", req.Amount)

	msg := crypto.BuildCanonicalMessage(req.SenderPublicKey, req.RecipientPublicKey, decimal.RequireFromString(req.Amount))
	assert.True(t, crypto.Verify(msg, req.Signature, sender.PublicKeyPEM))

	_, err = signTransfer(sender.PrivateKeyPEM, recipient.PublicKeyPEM, "0")
	require.Error(t, err)
}

func TestLoadKeys(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	dir := t.TempDir()

	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, writeNewFile(keyPath, []byte(kp.PrivateKeyPEM)))
	require.Error(t, writeNewFile(keyPath, []byte("again")), "must not overwrite")

	got, err := loadPrivateKey(keyPath, "")
	require.NoError(t, err)
	assert.Equal(t, kp.PrivateKeyPEM, got)

	_, err = loadPrivateKey("", "")
	require.Error(t, err)
	_, err = loadPrivateKey(keyPath, keyPath)
	require.Error(t, err)

	keystoreParams = crypto.ScryptParams{N: 1 << 10, R: 8, P: 1}
	t.Setenv(passwordEnv, "pw")
	ks, err := crypto.SealPrivateKey(kp.PrivateKeyPEM, crypto.Canonicalize(kp.PublicKeyPEM), []byte("pw"), keystoreParams)
	require.NoError(t, err)
	ksPath := filepath.Join(dir, "key.json")
	require.NoError(t, crypto.WriteKeystoreFile(ksPath, ks))

	got, err = loadPrivateKey("", ksPath)
	require.NoError(t, err)
	assert.Equal(t, kp.PrivateKeyPEM, got)

	pubPath := filepath.Join(dir, "pub.pem")
	require.NoError(t, os.WriteFile(pubPath, []byte(kp.PublicKeyPEM), 0o600))
	to, err := resolveKey(pubPath)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKeyPEM, to)

	to, err = resolveKey(crypto.Canonicalize(kp.PublicKeyPEM))
	require.NoError(t, err)
	assert.Equal(t, crypto.Canonicalize(kp.PublicKeyPEM), to)

	_, err = resolveKey("no-such-file-or-key")
	require.Error(t, err)
}

func TestRekey(t *testing.T) {
	keystoreParams = crypto.ScryptParams{N: 1 << 10, R: 8, P: 1}
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	ks, err := crypto.SealPrivateKey(kp.PrivateKeyPEM, "id", []byte("old"), keystoreParams)
	require.NoError(t, err)

	resealed, err := rekey(ks, []byte("old"), []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, "id", resealed.Identity)

	data, err := crypto.OpenKeystore(resealed, []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, kp.PrivateKeyPEM, string(data.PrivateKey))

	_, err = rekey(ks, []byte("wrong"), []byte("new"))
	require.ErrorIs(t, err, crypto.ErrInvalidPassword)
}

func TestVerifyBlocks(t *testing.T) {
	genesis := ledger.NewGenesisBlock(1)
	next := ledger.NextBlock(&genesis, []model.Transaction{{Seq: 1, ID: "t", Amount: decimal.NewFromInt(1)}}, 2)

	result := verifyBlocks([]model.Block{genesis, next})
	assert.True(t, result.Valid)
	assert.Equal(t, uint64(2), result.Height)
	assert.Equal(t, next.Hash, result.Head)

	next.Transactions[0].Amount = decimal.NewFromInt(2)
	result = verifyBlocks([]model.Block{genesis, next})
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Error)
}
