package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// fingerprintLen is the number of hex characters kept from the text hash.
const fingerprintLen = 8

// ChunkID derives a stable identifier from the document filename, the chunk's
// sequence index and its trimmed text, e.g. "guide-standard-1-chunk-0003-9f2c41ab".
// The same inputs always produce the same ID, so re-ingesting unchanged text
// is recognised as a duplicate while edited text gets a new ID.
func ChunkID(filename string, index int, text string) string {
	return fmt.Sprintf("%s-chunk-%04d-%s", SanitizeFilename(filename), index, Fingerprint(text))
}

// Fingerprint returns the truncated SHA-256 hex digest of text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// SanitizeFilename lowercases a filename, drops a ".pdf" suffix and replaces
// spaces with hyphens. Other extensions are kept so that "guide.pdf" and
// "guide.docx" do not share an ID prefix.
func SanitizeFilename(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ".pdf")
	return strings.ReplaceAll(name, " ", "-")
}
