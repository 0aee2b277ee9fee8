package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Sign signs message with RSASSA-PKCS1-v1_5 over SHA-256 and returns the
// signature hex encoded.
func Sign(message []byte, privateKeyPEM string) (string, error) {
	key, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Verify reports whether signature was produced over message by the private
// half of publicKey. Signatures may be hex or standard base64. Malformed
// input yields false.
func Verify(message []byte, signature string, publicKey string) bool {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false
	}
	sig, ok := decodeSignature(signature)
	if !ok {
		return false
	}
	digest := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil
}

func decodeSignature(s string) ([]byte, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if sig, err := hex.DecodeString(s); err == nil {
		return sig, true
	}
	if sig, err := base64.StdEncoding.DecodeString(s); err == nil {
		return sig, true
	}
	return nil, false
}

// TransactionID derives the transaction id from its signed message and
// signature.
func TransactionID(message []byte, signature string) string {
	h := sha256.New()
	h.Write(message)
	h.Write([]byte(strings.TrimSpace(signature)))
	return hex.EncodeToString(h.Sum(nil))
}
