package model

// Keystore is an exported private key encrypted with a user password.
// N, R and P are the scrypt parameters used to derive the key.
type Keystore struct {
	Version    int    `json:"version"`
	Identity   string `json:"identity"`
	N          int    `json:"n"`
	R          int    `json:"r"`
	P          int    `json:"p"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// KeyData is the plaintext sealed inside a Keystore.
type KeyData struct {
	PrivateKey []byte `json:"privateKey"` // PEM bytes (base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}
