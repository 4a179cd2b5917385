package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HTTP headers carried on every outbound delivery.
const (
	// SignatureHeader carries the hex HMAC-SHA256 signature of the request body.
	SignatureHeader = "X-Taskflow-Signature"

	// EventHeader carries the notification's event kind.
	EventHeader = "X-Taskflow-Event"
)

// Sign computes the hex-encoded HMAC-SHA256 signature of payload using the
// subscription secret. The signature is computed over the exact bytes sent as
// the request body, so receivers can verify it without re-serializing.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is a valid HMAC-SHA256 signature
// of payload under secret. Comparison is constant-time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
