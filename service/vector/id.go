package vector

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// UniqueID derives a stable point ID from an article's position and URL, so
// re-running the pipeline over the same listing never duplicates vectors.
func UniqueID(index int, articleURL string) string {
	digest := sha256.Sum256([]byte(articleURL))
	return fmt.Sprintf("article_%d_%s", index, hex.EncodeToString(digest[:])[:8])
}
