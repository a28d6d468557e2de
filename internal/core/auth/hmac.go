package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyPrefix starts every editcheck API key.
const KeyPrefix = "ec-v1-"

// ParseAPIKey splits an ec-v1-<secret_id>-<random_data> key, 103 chars in
// all, into its hex parts. Any other shape is ErrInvalidKeyFormat.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != "ec" || parts[1] != "v1" {
		return "", "", ErrInvalidKeyFormat
	}

	secretID = parts[2]
	randomData = parts[3]

	// secret_id is 32 hex chars (UUID without hyphens), random_data 64 (256 bits)
	if len(secretID) != 32 || len(randomData) != 64 {
		return "", "", ErrInvalidKeyFormat
	}
	if !isLowerHex(secretID + randomData) {
		return "", "", ErrInvalidKeyFormat
	}

	return secretID, randomData, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ComputeHMAC signs the whole key with HMAC-SHA256.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// HashAPIKey returns the hex HMAC stored for apiKey.
func HashAPIKey(secret []byte, apiKey string) string {
	return hex.EncodeToString(ComputeHMAC(secret, apiKey))
}

// VerifyHMAC compares two digests in constant time.
func VerifyHMAC(expectedHash, computedHash []byte) bool {
	return hmac.Equal(expectedHash, computedHash)
}

// FormatAPIKey joins the key parts behind KeyPrefix.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s%s-%s", KeyPrefix, secretID, randomData)
}

// GenerateAPIKey creates a new key bound to secretID with 256 random bits.
func GenerateAPIKey(secretID string) (string, error) {
	if len(secretID) != 32 || !isLowerHex(secretID) {
		return "", fmt.Errorf("secret_id must be 32 lowercase hex chars")
	}
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return FormatAPIKey(secretID, hex.EncodeToString(random)), nil
}
