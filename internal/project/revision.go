// revision.go — Revision tokens from stable structural hashes.
// A revision identifies one distinct semantic state of a project: it changes
// iff the normalized semantic state changes, and the same mutation sequence
// from the same starting point always lands on the same revision. Entity ids
// are minted at random and the dirty flag is transport bookkeeping, so
// neither feeds the digest.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// revisionLen is the number of hex characters exposed in revision tokens.
const revisionLen = 16

// ComputeRevision hashes the normalized state. The state is round-tripped
// through a generic map so the digest input has lexicographic object keys
// regardless of struct field order, then stripped of volatile fields.
func ComputeRevision(s *State) string {
	structured, err := json.Marshal(s)
	if err != nil {
		return "r-unhashable"
	}
	var generic any
	if err := json.Unmarshal(structured, &generic); err != nil {
		return "r-unhashable"
	}
	if doc, ok := generic.(map[string]any); ok {
		delete(doc, "dirty")
		stripIDs(doc)
	}
	// encoding/json sorts map keys, so this marshal is canonical.
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "r-unhashable"
	}
	sum := sha256.Sum256(canonical)
	return "r" + hex.EncodeToString(sum[:])[:revisionLen]
}

// stripIDs removes entity ids from the digest input. Replaying the same
// mutation sequence mints fresh ids each time; hashing them would break
// replay determinism.
func stripIDs(v any) {
	switch val := v.(type) {
	case map[string]any:
		delete(val, "id")
		for _, inner := range val {
			stripIDs(inner)
		}
	case []any:
		for _, inner := range val {
			stripIDs(inner)
		}
	}
}
