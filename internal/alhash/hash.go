package alhash

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const bom = "\uFEFF"

// digestSize is fixed at 8 bytes (64 bits), per spec.md §4.4.
const digestSize = 8

// StripBOM removes a leading UTF-8 byte-order mark, if present, returning
// the rest of text unchanged. Callers that need the BOM-stripped source for
// both hashing and parsing should call this once and reuse the result.
func StripBOM(text string) string {
	return strings.TrimPrefix(text, bom)
}

// HashSource computes the 16-character lowercase hex BLAKE2b-8 fingerprint
// of text, after stripping a leading BOM. Two inputs differing only by BOM
// hash equal.
func HashSource(text string) string {
	stripped := StripBOM(text)
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		// digestSize is a compile-time constant within blake2b's supported
		// range (1..64); New only fails for invalid size or key length.
		panic(fmt.Sprintf("alhash: blake2b.New: %v", err))
	}
	_, _ = h.Write([]byte(stripped))
	return hex.EncodeToString(h.Sum(nil))
}
