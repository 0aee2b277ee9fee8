package model

// TransferRequest represents request for POST /transfer. Amount is the
// decimal amount exactly as it was signed.
type TransferRequest struct {
	SenderPublicKey    string `json:"senderPublicKey" binding:"required"`
	RecipientPublicKey string `json:"recipientPublicKey" binding:"required"`
	Amount             string `json:"amount" binding:"required"`
	Signature          string `json:"signature" binding:"required"`
}

// TransferResponse represents response for POST /transfer
type TransferResponse struct {
	Message     string      `json:"msg"`
	TxID        string      `json:"txId"`
	Seq         uint64      `json:"seq"`
	Mined       bool        `json:"mined"`
	BlockIndex  *uint64     `json:"blockIndex,omitempty"`
	Transaction Transaction `json:"transaction"`
}
