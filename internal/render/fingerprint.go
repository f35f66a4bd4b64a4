package render

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the stable content hash used for idempotence decisions:
// the lowercase hex SHA-256 of the rendered note bytes.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
