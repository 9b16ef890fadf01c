package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRecord is the domain prefix for record content hashes.
// The version suffix allows a later change of encoding.
const DomainRecord = "recordsync/record/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash computes the content-addressed hash of a record.
// Two projections of the same object snapshot always hash equal, which is
// what lets the outbox skip unchanged upserts.
func ContentHash(r *Record) (string, error) {
	canonical, err := MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// MustContentHash is like ContentHash but panics on error.
// Use only in tests or when the record is known to be encodable.
func MustContentHash(r *Record) string {
	h, err := ContentHash(r)
	if err != nil {
		panic(err)
	}
	return h
}
