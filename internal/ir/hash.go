package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm changes.
const (
	DomainRecord = "jsconform/record/v1"
	DomainSource = "jsconform/source/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordID computes the content-addressed ID of one assertion record.
// The run ID is deliberately excluded so identical scripts produce identical
// record IDs across runs.
func RecordID(script string, seq int64, kind, expected, actual string) (string, error) {
	obj := Object{
		"script":   String(script),
		"seq":      Int(seq),
		"kind":     String(kind),
		"expected": String(expected),
		"actual":   String(actual),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RecordID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// SourceDigest hashes script source text after NFC normalization.
func SourceDigest(source string) string {
	return hashWithDomain(DomainSource, []byte(norm.NFC.String(source)))
}
