package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash returns the hex encoded SHA-256 digest of value after lowercasing and trimming it.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(value))))
	return hex.EncodeToString(sum[:])
}

// IsDigest reports whether value already looks like an output of Hash.
func IsDigest(value string) bool {
	if len(value) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
