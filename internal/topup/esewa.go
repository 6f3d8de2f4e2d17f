package topup

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// esewaCallback is the decoded payment confirmation payload.
type esewaCallback struct {
	TransactionCode  string `json:"transaction_code"`
	Status           string `json:"status"`
	TotalAmount      string `json:"total_amount"`
	TransactionUUID  string `json:"transaction_uuid"`
	ProductCode      string `json:"product_code"`
	SignedFieldNames string `json:"signed_field_names"`
	Signature        string `json:"signature"`
}

// esewaSignature computes the base64 HMAC-SHA256 over a comma-joined
// field list, e.g. "total_amount=100,transaction_uuid=abc,product_code=EPAYTEST".
func esewaSignature(message, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signatureMessage rebuilds the signed message from the callback's own
// signed_field_names, preserving field order and raw values.
func (c *esewaCallback) signatureMessage() string {
	values := map[string]string{
		"transaction_code":   c.TransactionCode,
		"status":             c.Status,
		"total_amount":       c.TotalAmount,
		"transaction_uuid":   c.TransactionUUID,
		"product_code":       c.ProductCode,
		"signed_field_names": c.SignedFieldNames,
	}

	names := strings.Split(c.SignedFieldNames, ",")
	parts := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		parts = append(parts, name+"="+values[name])
	}
	return strings.Join(parts, ",")
}

func (c *esewaCallback) verify(secretKey string) bool {
	expected := esewaSignature(c.signatureMessage(), secretKey)
	return hmac.Equal([]byte(expected), []byte(c.Signature))
}

func decodeCallbackData(encoded string) ([]byte, error) {
	// the gateway is inconsistent about which base64 alphabet it uses
	if data, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(encoded)
}
