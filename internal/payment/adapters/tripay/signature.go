package tripay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// TransactionSignature signs merchant_code + merchant_ref + amount for
// transaction creation.
func TransactionSignature(privateKey, merchantCode, merchantRef string, amount int64) string {
	return Sign([]byte(merchantCode+merchantRef+strconv.FormatInt(amount, 10)), privateKey)
}

// Sign returns the lowercase hex HMAC-SHA256 of payload.
func Sign(payload []byte, privateKey string) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is exactly the lowercase hex HMAC of
// payload, compared in constant time.
func Verify(payload []byte, signature, privateKey string) bool {
	if len(signature) != hex.EncodedLen(sha256.Size) {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(Sign(payload, privateKey)))
}
