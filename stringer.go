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
	"fmt"

	"github.com/nimbusgrid/portable/internal/dbg"
)

// dbgSchema renders a Schema as schemaId plus its ordered fieldIds, the
// same shape a log line needs to explain why two writes produced
// different layouts.
func dbgSchema(s Schema) string {
	return dbg.Fprintf("schema{id: %#x, fields: %v}", uint32(s.id), s.fieldIDs).String()
}

// Format implements fmt.Formatter so %v on a *TypeDescriptor prints its
// identity and mode instead of a raw struct dump.
func (d *TypeDescriptor) Format(s fmt.State, verb rune) {
	dbg.Dict(fmt.Sprintf("TypeDescriptor(%s)", d.typeName),
		"typeId", fmt.Sprintf("%#x", uint32(d.typeID)),
		"mode", d.mode,
		"fields", len(d.fields),
		"metadata", d.metadataEnabled,
	).Format(s, verb)
}

func (m Mode) String() string {
	switch m {
	case ModeReflected:
		return "REFLECTED"
	case ModeCustom:
		return "CUSTOM"
	case ModeExternal:
		return "EXTERNAL"
	case ModeExcluded:
		return "EXCLUDED"
	default:
		return "MODE(?)"
	}
}

// Format implements fmt.Formatter so %v on a *Writer shows how many
// bytes it has produced and how deep its object stack is, without
// dumping the whole backing buffer.
func (w *Writer) Format(s fmt.State, verb rune) {
	dbg.Dict("Writer",
		"bytes", w.arena.Len(),
		"depth", len(w.stack),
		"handles", len(w.handles),
		"compactFooter", w.compactFooter,
	).Format(s, verb)
}

// Format implements fmt.Formatter so %v on a *BinaryObject shows its
// identity without forcing a full field decode.
func (bo *BinaryObject) Format(s fmt.State, verb rune) {
	name, hasName := bo.TypeName()
	dbg.Dict("BinaryObject",
		"typeId", fmt.Sprintf("%#x", uint32(bo.header.typeID)),
		"typeName", func() any {
			if hasName {
				return name
			}
			return nil
		}(),
		"schemaId", fmt.Sprintf("%#x", uint32(bo.header.schemaID)),
		"start", bo.start,
		"len", bo.header.totalLength,
		"raw", bo.isRaw(),
	).Format(s, verb)
}
