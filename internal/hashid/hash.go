// Package hashid implements the default 32-bit name hash used by the
// codec's IdMapper (see the root package's idmapper.go).
//
// The algorithm is a 32-bit fold of 64-bit FNV-1a, computed over the
// lower-cased UTF-8 bytes of a name: a simple, dependency-free, stable
// string hash (the same family hash/fnv in the standard library
// implements), avoiding an unsafe-pointer-based hash over raw bytes since
// type/field/schema ids are computed once per type, not once per parsed
// field the way a hash-table probe is — raw hashing throughput does not
// matter here and a portable, alloc-free algorithm is the better trade.
//
// The exact constants below are part of the wire contract: two processes
// (or two versions of this module) must compute the same typeId/fieldId
// for the same name, so this algorithm must never change without a
// version bump to the wire format's protocol version byte.
package hashid

import "strings"

const (
	offset64 uint64 = 0xcbf29ce484222325
	prime64  uint64 = 0x100000001b3

	// schemaOffset64 seeds the schema-id hash (see Schema below) with a
	// different FNV offset basis than Name, so that a typeId and a
	// schemaId computed from coincidentally identical byte sequences can
	// never collide by construction: they start from different points in
	// the hash's state space.
	schemaOffset64 uint64 = 0x84222325cbf29ce4
)

// fold32 XORs the upper and lower 32 bits of a 64-bit accumulator, producing
// a 32-bit hash that still depends on every input byte.
func fold32(h uint64) uint32 {
	return uint32(h>>32) ^ uint32(h)
}

// fnv1a64 runs the stock FNV-1a recurrence starting from seed.
func fnv1a64(seed uint64, data []byte) uint64 {
	h := seed
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}

// Name hashes a type or field name into a stable 32-bit id.
//
// Names are lower-cased before hashing, and writer and reader must agree
// on this canonical form. Lower-casing happens here so callers never need
// to remember to do it themselves.
func Name(name string) uint32 {
	lower := strings.ToLower(name)
	return fold32(fnv1a64(offset64, []byte(lower)))
}

// Field hashes a (typeId, fieldName) pair into a stable 32-bit fieldId.
//
// The typeId is mixed in as four big-endian bytes ahead of the lower-cased
// field name, so that the same field name in two different types does not
// necessarily collide.
func Field(typeID uint32, fieldName string) uint32 {
	lower := strings.ToLower(fieldName)
	seed := fnv1a64(offset64, []byte{
		byte(typeID >> 24), byte(typeID >> 16), byte(typeID >> 8), byte(typeID),
	})
	return fold32(fnv1a64(seed, []byte(lower)))
}

// Schema hashes an ordered sequence of fieldIds into a stable 32-bit
// schemaId. Two schemas with equal sequences always produce equal ids;
// schemas are not order-independent, since field order is observable in the
// encoded footer.
func Schema(fieldIDs []uint32) uint32 {
	h := schemaOffset64
	for _, id := range fieldIDs {
		b := []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
		h = fnv1a64(h, b)
	}
	return fold32(h)
}
