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

import "github.com/nimbusgrid/portable/internal/hashid"

// IdMapper derives the stable typeId for a type name, and the stable
// fieldId for a field within a type.
//
// Implementations MUST be deterministic and stable across processes and
// versions: two nodes in the same cluster that disagree on an IdMapper
// will silently talk past each other. A Context's default mapper is
// DefaultIDMapper; a custom one can be supplied per type via
// WithIDMapper.
type IdMapper interface {
	TypeID(typeName string) int32
	FieldID(typeID int32, fieldName string) int32
}

// defaultIDMapper implements IdMapper using the frozen hash in
// internal/hashid (see that package's doc comment for the rationale and
// the exact algorithm).
type defaultIDMapper struct{}

// DefaultIDMapper is the IdMapper used by a Context unless overridden.
var DefaultIDMapper IdMapper = defaultIDMapper{}

func (defaultIDMapper) TypeID(typeName string) int32 {
	return int32(hashid.Name(typeName))
}

func (defaultIDMapper) FieldID(typeID int32, fieldName string) int32 {
	return int32(hashid.Field(uint32(typeID), fieldName))
}
