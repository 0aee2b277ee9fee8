package model

// RegisterRequest represents request for POST /auth/register
type RegisterRequest struct {
	Name     string `json:"nombre" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse represents response for POST /auth/register. PrivateKey
// is only ever sent in this response.
type RegisterResponse struct {
	Message    string `json:"msg"`
	UserID     string `json:"userId"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	Keystore   string `json:"keystore,omitempty"`
	QR         string `json:"qr,omitempty"`
	Balance    string `json:"balance"`
	Token      string `json:"token"`
}

// LoginRequest represents request for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents response for POST /auth/login
type LoginResponse struct {
	Message   string `json:"msg"`
	UserID    string `json:"userId"`
	PublicKey string `json:"publicKey"`
	Balance   string `json:"balance"`
	Token     string `json:"token"`
}
