package crypto

import (
	"bytes"
	"encoding/json"

	"github.com/qchaucoin/ledger/internal/common"
	"github.com/shopspring/decimal"
)

// canonicalTransfer fixes the key order of the signed message.
type canonicalTransfer struct {
	Sender    string      `json:"remitente"`
	Recipient string      `json:"destinatario"`
	Amount    json.Number `json:"monto"`
}

// BuildCanonicalMessage returns the bytes a transfer signature covers:
//
//	{"remitente":"<sender>","destinatario":"<recipient>","monto":<amount>}
//
// Keys appear in that order with no whitespace. Strings use JSON escaping
// without HTML escaping. Amount is a bare number in shortest form (10, not
// 10.0). For amounts accepted by common.ParseAmount this is what
// JSON.stringify produces; outside those bounds JavaScript would switch to
// exponent notation (1e-7) or round, and the two forms differ.
func BuildCanonicalMessage(sender, recipient string, amount decimal.Decimal) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings and a valid number cannot fail.
	_ = enc.Encode(canonicalTransfer{
		Sender:    sender,
		Recipient: recipient,
		Amount:    json.Number(common.FormatAmount(amount)),
	})
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}
