package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HeaderSignature is the conventional header carrying the delivery signature.
const HeaderSignature = "X-Signature"

// Sign returns the lowercase hex HMAC-SHA256 of payload keyed with secret.
func Sign(secret string, payload []byte) string {
	return sign([]byte(secret), payload)
}

func sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// equalSignatures compares in constant time.
func equalSignatures(expected, actual string) bool {
	return hmac.Equal([]byte(expected), []byte(actual))
}
