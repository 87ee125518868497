package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Delimiter separates the two inputs in fingerprints produced by
// DelimiterFingerprinter. Inputs that contain this sequence can
// collide with other input pairs; use HashFingerprinter when that
// matters.
const Delimiter = "|||"

// Fingerprinter derives the cache key for one (prompt, invocation
// parameters) pair.
//
// Contract:
// - Determinism: the same inputs must produce the same fingerprint.
// - Order sensitivity: Fingerprint(a, b) and Fingerprint(b, a) are
//   distinct in general; callers must keep the inputs in a fixed order.
// - Concurrency: implementations must be safe for concurrent use.
type Fingerprinter interface {
	// Fingerprint returns the cache key for prompt and llmString.
	// llmString is the serialized invocation parameters (model name,
	// temperature, stop tokens, and so on).
	Fingerprint(prompt, llmString string) string
}

// DelimiterFingerprinter joins the two inputs with Delimiter. The
// fingerprint keeps the inputs readable, at the cost of possible
// collisions when an input contains the delimiter sequence.
type DelimiterFingerprinter struct{}

// NewDelimiterFingerprinter creates the default fingerprinter.
func NewDelimiterFingerprinter() *DelimiterFingerprinter {
	return &DelimiterFingerprinter{}
}

// Fingerprint returns prompt and llmString joined with Delimiter.
func (*DelimiterFingerprinter) Fingerprint(prompt, llmString string) string {
	return prompt + Delimiter + llmString
}

// HashFingerprinter produces SHA-256 based fingerprints. Each input is
// length-prefixed before hashing, so no pair of inputs can collide
// with a different pair regardless of their content.
// Format: fp:<32 hex chars>.
type HashFingerprinter struct{}

// NewHashFingerprinter creates a collision-resistant fingerprinter.
func NewHashFingerprinter() *HashFingerprinter {
	return &HashFingerprinter{}
}

// Fingerprint returns a fixed-length hash of the two inputs.
func (*HashFingerprinter) Fingerprint(prompt, llmString string) string {
	h := sha256.New()

	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(prompt)))
	h.Write(n[:])
	h.Write([]byte(prompt))
	binary.BigEndian.PutUint64(n[:], uint64(len(llmString)))
	h.Write(n[:])
	h.Write([]byte(llmString))

	return "fp:" + hex.EncodeToString(h.Sum(nil)[:16])
}

// Ensure both fingerprinters implement Fingerprinter
var (
	_ Fingerprinter = (*DelimiterFingerprinter)(nil)
	_ Fingerprinter = (*HashFingerprinter)(nil)
)
