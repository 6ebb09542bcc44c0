package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRelation tags relation IDs so they can never collide with a
// digest of some other canonical value.
const DomainRelation = "fixgraph/relation/v1"

// digest returns hex(SHA-256(domain || 0x00 || payload)).
func digest(domain string, payload []byte) string {
	buf := make([]byte, 0, len(domain)+1+len(payload))
	buf = append(buf, domain...)
	buf = append(buf, 0)
	buf = append(buf, payload...)
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// RelationID is the row key of a relation in the store: the digest of its
// canonical encoding. Inserting the same relation twice hits the same key.
func RelationID(r Relation) (string, error) {
	canonical, err := MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("relation id: %w", err)
	}
	return digest(DomainRelation, canonical), nil
}

// MustRelationID panics if r cannot be encoded.
func MustRelationID(r Relation) string {
	id, err := RelationID(r)
	if err != nil {
		panic(err)
	}
	return id
}
