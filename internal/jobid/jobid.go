// Package jobid derives the stable identifier for a job record.
package jobid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// idLength truncates the digest to keep ids index-friendly while leaving
// collisions negligible.
const idLength = 32

// FromPosting hashes (title, company, url) into a deterministic id. The same
// listing extracted twice, on any process, yields the same id. The site's
// native listing id is deliberately not part of the hash; it is carried
// separately on the record.
func FromPosting(title, company, url string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{title, company, url}, "|")))
	return hex.EncodeToString(sum[:])[:idLength]
}
