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

import (
	"slices"

	"github.com/nimbusgrid/portable/internal/hashid"
)

// Schema is an ordered sequence of fieldIds describing one observed
// layout of a user type. Two schemas with equal sequences
// always have equal SchemaID; order matters, since field order is
// reflected in the wire footer.
type Schema struct {
	fieldIDs []int32
	id       int32
}

// NewSchema builds a Schema from an ordered slice of fieldIds, computing
// its SchemaID. The slice is copied; callers may reuse or mutate it
// afterwards.
func NewSchema(fieldIDs []int32) Schema {
	cp := slices.Clone(fieldIDs)
	return Schema{fieldIDs: cp, id: computeSchemaID(cp)}
}

func computeSchemaID(fieldIDs []int32) int32 {
	u := make([]uint32, len(fieldIDs))
	for i, id := range fieldIDs {
		u[i] = uint32(id)
	}
	return int32(hashid.Schema(u))
}

// ID returns this schema's schemaId.
func (s Schema) ID() int32 { return s.id }

// FieldIDs returns the ordered field ids. The returned slice must not be
// mutated by the caller.
func (s Schema) FieldIDs() []int32 { return s.fieldIDs }

// Len returns the number of fields in this schema.
func (s Schema) Len() int { return len(s.fieldIDs) }

// IndexOf returns the position of fieldID within this schema's order, or
// -1 if it is not present.
func (s Schema) IndexOf(fieldID int32) int {
	return slices.Index(s.fieldIDs, fieldID)
}

// Equal reports whether two schemas have identical field sequences.
func (s Schema) Equal(other Schema) bool {
	return slices.Equal(s.fieldIDs, other.fieldIDs)
}

func (s Schema) String() string {
	return dbgSchema(s)
}
