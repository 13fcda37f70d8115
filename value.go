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
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Decimal is the wire representation of the DECIMAL primitive:
// a scale and a big-endian two's-complement magnitude, with the sign
// folded into the top bit of a negative scale.
type Decimal struct {
	Scale    int32
	Unscaled *big.Int
}

func (d Decimal) String() string {
	if d.Unscaled == nil {
		return "0"
	}
	return fmt.Sprintf("%se%d", d.Unscaled.String(), -d.Scale)
}

// Enum is the wire representation of the ENUM primitive: a reference to a
// registered enum type plus the ordinal of the value.
type Enum struct {
	TypeID  int32
	Ordinal int32
}

// MapEntry is one key/value pair of a Map value. Used both as the
// in-memory representation of the MAP_ENTRY tag and as the element type of
// a decoded Map's Entries slice.
type MapEntry struct {
	Key, Value any
}

// Map is the wire representation of the MAP primitive: an ordered
// (insertion-order) sequence of key/value pairs. A Go map isn't used here
// because wire order must be preserved for round-tripping and because keys may not be Go-comparable (e.g. a nested
// object).
type Map struct {
	Entries []MapEntry
}

// Collection is the wire representation of the COL primitive: an ordered
// list of values, analogous to a user-type COL tag wrapping an
// OBJECT_ARR-like payload.
type Collection struct {
	Values []any
}

// ClassRef is the wire representation of the CLASS primitive: a reference
// to a type by name, used when a value slot holds a type token rather than
// an instance (e.g. java.lang.Class-style metadata fields).
type ClassRef struct {
	TypeName string
	TypeID   int32
}

// Null names the NULL tag as a value type. The Reader does not produce
// it: a NULL tag decodes to a bare Go nil, and BinaryObject.Field's ok
// result is what tells "the field is present and explicitly null" apart
// from "the field was never written".
type Null struct{}

// Handle describes a back-reference by the absolute offset of its
// referent's header. The Reader does not return it: field and ReadRoot
// access resolve a HANDLE tag to a *BinaryObject over the referent.
type Handle struct {
	// HeaderOffset is the absolute offset of the referent's header.
	HeaderOffset int
}

// UUID re-exports uuid.UUID as the codec's UUID value type, so callers
// don't need to import google/uuid themselves just to build a value tree.
type UUID = uuid.UUID

// Date represents the wire DATE primitive: whole milliseconds since the
// Unix epoch. Time of day is kept to the millisecond; anything finer is
// dropped, matching the one-field wire layout.
type Date struct {
	Millis int64
}

// AsTime converts a Date to a UTC time.Time.
func (d Date) AsTime() time.Time {
	return time.UnixMilli(d.Millis).UTC()
}

// DateFromTime truncates t to a whole-millisecond Unix timestamp.
func DateFromTime(t time.Time) Date {
	return Date{Millis: t.UnixMilli()}
}

// Timestamp represents the wire TIMESTAMP primitive: milliseconds since
// the Unix epoch plus additional nanoseconds within that millisecond.
type Timestamp struct {
	Millis         int64
	AdditionalNanos int32
}

// AsTime converts a Timestamp to a UTC time.Time.
func (t Timestamp) AsTime() time.Time {
	return time.UnixMilli(t.Millis).UTC().Add(time.Duration(t.AdditionalNanos))
}

// TimestampFromTime splits t into milliseconds and the leftover
// nanoseconds within that millisecond.
func TimestampFromTime(t time.Time) Timestamp {
	ms := t.UnixMilli()
	nanosInMilli := t.UnixNano() - ms*int64(time.Millisecond)
	return Timestamp{Millis: ms, AdditionalNanos: int32(nanosInMilli)}
}
