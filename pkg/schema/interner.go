package schema

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// StringInterner deduplicates the identifier strings (type names, property
// names, edge names, rollup names) a Schema is built from. Two calls to
// Intern with equal strings return the identical Go string value, so
// callers that compare interned names can use == instead of a byte
// comparison, and a schema with many repeated identifiers (every TypeDef
// referencing "name", every EdgeDef referencing a handful of reverse
// names) keeps exactly one backing array per distinct identifier.
//
// Thread Safety: Intern is safe for concurrent use. Schemas are normally
// built once during startup, so contention is not a concern in practice.
type StringInterner struct {
	mu      sync.RWMutex
	buckets map[uint64][]string
}

// NewStringInterner returns an empty interner ready for use.
func NewStringInterner() *StringInterner {
	return &StringInterner{buckets: make(map[uint64][]string)}
}

// Intern returns the canonical copy of s, recording s as canonical the
// first time it is seen.
func (si *StringInterner) Intern(s string) string {
	h := xxhash.Sum64String(s)

	si.mu.RLock()
	for _, existing := range si.buckets[h] {
		if existing == s {
			si.mu.RUnlock()
			return existing
		}
	}
	si.mu.RUnlock()

	si.mu.Lock()
	defer si.mu.Unlock()
	for _, existing := range si.buckets[h] {
		if existing == s {
			return existing
		}
	}
	si.buckets[h] = append(si.buckets[h], s)
	return s
}

// Len reports the number of distinct strings interned.
func (si *StringInterner) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	n := 0
	for _, bucket := range si.buckets {
		n += len(bucket)
	}
	return n
}
