package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

func HMACSHA256(secret string, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

func HMACHex(secret string, parts ...[]byte) string {
	return hex.EncodeToString(HMACSHA256(secret, parts...))
}

func HMACBase64(secret string, parts ...[]byte) string {
	return base64.StdEncoding.EncodeToString(HMACSHA256(secret, parts...))
}

// VerifyHex compares a hex-encoded signature in constant time.
func VerifyHex(secret, signature string, parts ...[]byte) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, HMACSHA256(secret, parts...))
}

// VerifyBase64 compares a base64-encoded signature in constant time.
func VerifyBase64(secret, signature string, parts ...[]byte) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, HMACSHA256(secret, parts...))
}
