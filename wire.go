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

// Tag is the one-byte value that precedes every encoded field and every
// user-type object header.
type Tag byte

const (
	TagNull Tag = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagChar
	TagBool
	TagDecimal
	TagString
	TagUUID
	TagDate
	TagTimestamp

	TagByteArr
	TagShortArr
	TagIntArr
	TagLongArr
	TagFloatArr
	TagDoubleArr
	TagCharArr
	TagBoolArr
	TagDecimalArr
	TagStringArr
	TagUUIDArr
	TagDateArr
	TagTimestampArr

	TagObjectArr
	TagCollection
	TagMap
	TagMapEntry
	TagEnum
	TagEnumArr
	TagClass
	TagPortableObj
	TagHandle

	// TagUserType marks the start of a user-defined object (the header
	// layout below).
	TagUserType
)

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "TAG(?)"
}

var tagNames = [...]string{
	TagNull:        "NULL",
	TagByte:        "BYTE",
	TagShort:       "SHORT",
	TagInt:         "INT",
	TagLong:        "LONG",
	TagFloat:       "FLOAT",
	TagDouble:      "DOUBLE",
	TagChar:        "CHAR",
	TagBool:        "BOOLEAN",
	TagDecimal:     "DECIMAL",
	TagString:      "STRING",
	TagUUID:        "UUID",
	TagDate:        "DATE",
	TagTimestamp:   "TIMESTAMP",
	TagByteArr:     "BYTE[]",
	TagShortArr:    "SHORT[]",
	TagIntArr:      "INT[]",
	TagLongArr:     "LONG[]",
	TagFloatArr:    "FLOAT[]",
	TagDoubleArr:   "DOUBLE[]",
	TagCharArr:     "CHAR[]",
	TagBoolArr:     "BOOLEAN[]",
	TagDecimalArr:  "DECIMAL[]",
	TagStringArr:   "STRING[]",
	TagUUIDArr:     "UUID[]",
	TagDateArr:     "DATE[]",
	TagTimestampArr: "TIMESTAMP[]",
	TagObjectArr:   "OBJECT_ARR",
	TagCollection:  "COL",
	TagMap:         "MAP",
	TagMapEntry:    "MAP_ENTRY",
	TagEnum:        "ENUM",
	TagEnumArr:     "ENUM_ARR",
	TagClass:       "CLASS",
	TagPortableObj: "PORTABLE_OBJ",
	TagHandle:      "HANDLE",
	TagUserType:    "USER_TYPE_HDR",
}

// header tag and protocol version.
const (
	headerTag     byte = 0x67
	protoVersion  byte = 1
	headerSize         = 24
)

// Flags is the header flags bitfield.
type Flags uint16

const (
	FlagUserType Flags = 1 << iota
	FlagHasSchema
	FlagHasRaw
	FlagOffset1
	FlagOffset2
	FlagCompactFooter
)

// footerWidth returns the number of bytes used by each footer entry's
// offset field, given the flags.
func (f Flags) footerWidth() int {
	switch {
	case f&FlagOffset1 != 0:
		return 1
	case f&FlagOffset2 != 0:
		return 2
	default:
		return 4
	}
}

// widthFlag returns the Offset-width flag bit appropriate for n, the
// largest field offset that needs to be represented: 1
// byte if it fits in 8 bits, 2 if it fits in 16, else 4 (no flag bit; the
// absence of OFFSET_1/OFFSET_2 means 4-byte offsets).
func widthFlag(maxOffset int) Flags {
	switch {
	case maxOffset < 1<<8:
		return FlagOffset1
	case maxOffset < 1<<16:
		return FlagOffset2
	default:
		return 0
	}
}

// unregisteredTypeID is the sentinel typeId that tells a
// reader the type name follows in the header as a length-prefixed string,
// because no typeId has been assigned cluster-wide yet.
const unregisteredTypeID int32 = 0
