// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package portable

import "sync"

// SchemaRegistry is a per-typeId concurrent map of schemaId -> Schema.
// Lookups are lock-free on the hot path; inserts are idempotent and
// serialized.
//
// A hand-rolled open-addressing table relying on unsafe.Pointer generics
// to avoid boxing would buy throughput on a path that runs millions of
// times per second inside a hot inner loop, but a SchemaRegistry lookup
// happens once per user-type object written (and once per COMPACT_FOOTER
// object whose footer is read), not once per field, so we use
// sync.Map instead, which already gives lock-free reads for a read-mostly
// key set and handles the per-typeId sharding for us (see shardFor).
type SchemaRegistry struct {
	shards sync.Map // int32 (typeId) -> *registryShard
}

type registryShard struct {
	mu      sync.Mutex
	byID    sync.Map // int32 (schemaId) -> Schema
}

// NewSchemaRegistry returns an empty, ready-to-use registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{}
}

func (r *SchemaRegistry) shardFor(typeID int32) *registryShard {
	v, _ := r.shards.LoadOrStore(typeID, &registryShard{})
	return v.(*registryShard)
}

// Lookup returns the schema registered under schemaId for typeID, if any.
func (r *SchemaRegistry) Lookup(typeID, schemaID int32) (Schema, bool) {
	shard := r.shardFor(typeID)
	v, ok := shard.byID.Load(schemaID)
	if !ok {
		return Schema{}, false
	}
	return v.(Schema), true
}

// Insert registers schema under typeID. A second insert of an
// equal schema is a no-op; inserting an unequal schema under an
// already-registered schemaId is a fatal invariant violation,
// reported as an error the caller should treat as unrecoverable
// (ErrMetadataConflict), since it can only happen if the hash collided or
// a caller mixed up typeIds.
func (r *SchemaRegistry) Insert(typeID int32, schema Schema) error {
	shard := r.shardFor(typeID)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if existing, ok := shard.byID.Load(schema.ID()); ok {
		if existing.(Schema).Equal(schema) {
			return nil
		}
		return &MetadataError{
			TypeID: typeID,
			Field:  "<schema>",
		}
	}
	shard.byID.Store(schema.ID(), schema)
	return nil
}

// Schemas returns every schema registered for typeID, in no particular
// order. Used by the MetadataCoordinator when publishing merged metadata.
func (r *SchemaRegistry) Schemas(typeID int32) []Schema {
	shard := r.shardFor(typeID)
	var out []Schema
	shard.byID.Range(func(_, v any) bool {
		out = append(out, v.(Schema))
		return true
	})
	return out
}

// Clear removes every schema known for every type. Exposed for tests that
// exercise the UnknownSchema recovery path.
func (r *SchemaRegistry) Clear() {
	r.shards.Range(func(k, _ any) bool {
		r.shards.Delete(k)
		return true
	})
}
