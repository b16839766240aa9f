package hash

import (
	"crypto/sha256"
	"fmt"
)

// Sum returns the hex-encoded sha256 digest of data.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return fmt.Sprintf("%x", digest)
}
