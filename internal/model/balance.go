package model

// BalanceResponse represents response for GET /balance
type BalanceResponse struct {
	PublicKey string `json:"publicKey"`
	Balance   string `json:"balance"`
}

// AccountResponse represents response for GET /account
type AccountResponse struct {
	UserID    string `json:"userId"`
	Name      string `json:"nombre"`
	Email     string `json:"email"`
	PublicKey string `json:"publicKey"`
	Balance   string `json:"balance"`
}
