package model

// Block seals an ordered list of transactions. Hash is derived from Index,
// Timestamp, Transactions and PreviousHash.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"` // unix milliseconds
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previousHash"`
	Hash         string        `json:"hash"`
}

// Clone returns a copy with its own transaction slice.
func (b Block) Clone() Block {
	b.Transactions = append([]Transaction{}, b.Transactions...)
	return b
}

// ChainResponse represents response for GET /chain
type ChainResponse struct {
	Height uint64  `json:"height"`
	Blocks []Block `json:"blocks"`
}

// ChainVerifyResponse represents response for GET /chain/verify
type ChainVerifyResponse struct {
	Valid  bool   `json:"valid"`
	Height uint64 `json:"height"`
	Head   string `json:"head"`
	Error  string `json:"error,omitempty"`
}
