package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/qchaucoin/ledger/internal/model"
)

// ErrInvalidPassword is returned when a keystore cannot be opened.
var ErrInvalidPassword = errors.New("invalid password")

// OpenKeystore decrypts ks and returns the sealed key data.
// password must be []byte for security (caller should zero it after use)
func OpenKeystore(ks *model.Keystore, password []byte) (*model.KeyData, error) {
	if ks.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", ks.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(ks.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(ks.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ks.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	params := ScryptParams{N: ks.N, R: ks.R, P: ks.P}
	if !params.allowed() {
		return nil, fmt.Errorf("keystore scrypt parameters N=%d r=%d p=%d exceed the supported limits", ks.N, ks.R, ks.P)
	}
	aesGCM, err := newGCM(password, salt, params)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, errors.New("invalid nonce length")
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, []byte(ks.Identity))
	if err != nil {
		return nil, ErrInvalidPassword
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var keyData model.KeyData
	if err := json.Unmarshal(plaintext, &keyData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key data: %w", err)
	}
	return &keyData, nil
}

// DecodeKeystore parses keystore JSON. A UTF-8 BOM is tolerated.
func DecodeKeystore(data []byte) (*model.Keystore, error) {
	// Skip UTF-8 BOM if present
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	var ks model.Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore: %w", err)
	}
	return &ks, nil
}

// ReadKeystoreFile reads a keystore file without decrypting it.
func ReadKeystoreFile(filePath string) (*model.Keystore, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file does not exist")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return DecodeKeystore(fileData)
}
