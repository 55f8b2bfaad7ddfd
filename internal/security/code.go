package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// ConfirmationCodeBytes is the entropy of an ownership transfer confirmation code.
	ConfirmationCodeBytes = 8
	// JoinCodeBytes is the entropy of an organization join code.
	JoinCodeBytes = 6
)

// GenerateCode returns a base58 string encoding n random bytes.
func GenerateCode(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base58.Encode(b), nil
}

// HashCode returns the hex-encoded SHA-256 of code with surrounding space removed.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(h[:])
}

// CodeEqual compares the hash of the provided code with storedHash in constant time.
func CodeEqual(provided, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashCode(provided)), []byte(storedHash)) == 1
}
