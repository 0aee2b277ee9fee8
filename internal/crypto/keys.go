package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// KeyBits is the RSA modulus size for issued key pairs.
const KeyBits = 2048

// KeyPair holds PEM encoded RSA keys. PublicKeyPEM is SPKI ("PUBLIC KEY"),
// PrivateKeyPEM is PKCS#8 ("PRIVATE KEY").
type KeyPair struct {
	PublicKeyPEM  string
	PrivateKeyPEM string
}

// GenerateKeyPair creates a fresh RSA key pair. The caller hands the private
// key to its owner once and drops it.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	defer clear(privDER)

	return &KeyPair{
		PublicKeyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
		PrivateKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
	}, nil
}

var (
	armorRe      = regexp.MustCompile(`-----(BEGIN|END) [A-Z0-9 ]*KEY-----`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Canonicalize strips PEM armor lines (RSA or not, public or private) and
// all whitespace from key material. The result is the account identity.
func Canonicalize(keyMaterial string) string {
	s := armorRe.ReplaceAllString(keyMaterial, "")
	return whitespaceRe.ReplaceAllString(s, "")
}

// ParsePublicKey accepts a PEM block (SPKI or PKCS#1) or a bare canonical
// base64 body.
func ParsePublicKey(material string) (*rsa.PublicKey, error) {
	der, err := keyDER(material)
	if err != nil {
		return nil, err
	}
	if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("public key is not RSA")
		}
		return rsaPub, nil
	}
	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// ParsePrivateKey accepts a PKCS#8 or PKCS#1 PEM private key.
func ParsePrivateKey(material string) (*rsa.PrivateKey, error) {
	der, err := keyDER(material)
	if err != nil {
		return nil, err
	}
	defer clear(der)

	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key is not RSA")
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

func keyDER(material string) ([]byte, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, errors.New("empty key")
	}
	if strings.Contains(material, "-----BEGIN") {
		block, _ := pem.Decode([]byte(material))
		if block == nil {
			return nil, errors.New("invalid PEM block")
		}
		return block.Bytes, nil
	}
	der, err := base64.StdEncoding.DecodeString(Canonicalize(material))
	if err != nil {
		return nil, fmt.Errorf("invalid key encoding: %w", err)
	}
	return der, nil
}

// PublicKeyPEM re-armors a canonical identity as an SPKI PEM block.
func PublicKeyPEM(identity string) (string, error) {
	der, err := keyDER(identity)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// PublicKeyOf returns the SPKI PEM of the public half of a private key. It
// matches the PublicKeyPEM of the KeyPair the key was issued with.
func PublicKeyOf(privateKeyPEM string) (string, error) {
	key, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
