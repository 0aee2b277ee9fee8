package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/qchaucoin/ledger/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	keystoreVersion = 1
	scryptKeyLen    = 32
	saltLen         = 32
	nonceLen        = 12
)

// ScryptParams are the key derivation parameters of a keystore.
type ScryptParams struct {
	N, R, P int
}

var (
	// ServerScrypt is used when the server seals a freshly issued key into
	// the registration response. N=2^15 (~32MB, well under a second) keeps
	// registration responsive.
	ServerScrypt = ScryptParams{N: 1 << 15, R: 8, P: 1}

	// LocalScrypt is used by the CLI for keystore files kept on disk.
	// N=2^18 (~256MB RAM, 0.5-2s).
	LocalScrypt = ScryptParams{N: 1 << 18, R: 8, P: 1}
)

// allowed reports whether p is positive and no costlier than LocalScrypt, the
// strongest setting this package writes.
func (p ScryptParams) allowed() bool {
	return p.N > 1 && p.R > 0 && p.P > 0 &&
		p.N <= LocalScrypt.N && p.R <= LocalScrypt.R && p.P <= LocalScrypt.P
}

// SealPrivateKey encrypts a PEM private key with password.
// password must be []byte for security (caller should zero it after use)
func SealPrivateKey(privateKeyPEM, identity string, password []byte, params ScryptParams) (*model.Keystore, error) {
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	// Generate salt and nonce
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt, params)
	if err != nil {
		return nil, err
	}

	keyData := &model.KeyData{
		PrivateKey: []byte(privateKeyPEM),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	defer clear(keyData.PrivateKey)

	plaintext, err := json.Marshal(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, []byte(identity))

	return &model.Keystore{
		Version:    keystoreVersion,
		Identity:   identity,
		N:          params.N,
		R:          params.R,
		P:          params.P,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// EncodeKeystore serializes a keystore to compact JSON.
func EncodeKeystore(ks *model.Keystore) (string, error) {
	data, err := json.Marshal(ks)
	if err != nil {
		return "", fmt.Errorf("failed to marshal keystore: %w", err)
	}
	return string(data), nil
}

// WriteKeystoreFile writes ks to filePath. An existing non-empty file is
// never overwritten.
func WriteKeystoreFile(filePath string, ks *model.Keystore) error {
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return fmt.Errorf("file is not empty: %w", os.ErrExist)
	}

	fileData, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore: %w", err)
	}

	if err := os.WriteFile(filePath, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func newGCM(password, salt []byte, params ScryptParams) (cipher.AEAD, error) {
	// Derive key from password
	key, err := scrypt.Key(password, salt, params.N, params.R, params.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
