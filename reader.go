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
	"encoding/binary"
	"math/big"

	"github.com/nimbusgrid/portable/internal/primitiveio"
)

// ReadOption configures a Reader.
type ReadOption func(*Reader)

// WithStrictSchema makes field access fail with ErrUnknownSchema instead
// of silently reporting "not found" when a COMPACT_FOOTER object's
// schemaId isn't in the Context's SchemaRegistry. Off by default, so lazily reading a field
// that happens to need no resolution (FieldByOrder) keeps working even
// against a registry a caller hasn't warmed up yet.
func WithStrictSchema(strict bool) ReadOption {
	return func(r *Reader) { r.strictSchema = strict }
}

// Reader decodes a byte stream produced by a Writer. Like
// Writer, a Reader is not safe for concurrent use; the BinaryObject views
// it hands out share its underlying state and inherit the same
// restriction.
type Reader struct {
	state *readState
}

// readState is shared by a Reader and every BinaryObject it produces, so
// that a HANDLE anywhere in the stream can be resolved against the same
// buffer regardless of which view encountered it.
type readState struct {
	ctx          *Context
	buf          []byte
	strictSchema bool

	// readStack tracks the BinaryObject currently being materialized via
	// a CustomSerializer, so the named-field Read*Field methods on Reader
	// know which object's footer to consult.
	readStack []*BinaryObject

	// materialized maps a header's absolute byte offset to the Go value
	// already built for it, so that Deserialize/DeserializeAny can
	// resolve a HANDLE pointing back into an object still being filled
	// in instead of recursing into it again. Installed before a field
	// walk starts and consulted before starting another one; a cycle or
	// shared reference to the same offset then returns the same value
	// instead of a fresh copy.
	materialized map[int]any
}

func (st *readState) currentObject() *BinaryObject {
	if len(st.readStack) == 0 {
		return nil
	}
	return st.readStack[len(st.readStack)-1]
}

// NewReader wraps buf, a complete encoded stream, for decoding against
// ctx's registered types.
func NewReader(ctx *Context, buf []byte, opts ...ReadOption) *Reader {
	r := &Reader{state: &readState{ctx: ctx, buf: buf, materialized: make(map[int]any)}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadRoot decodes the value starting at offset 0. A primitive or
// container root is returned as the corresponding Go value (int32,
// string, Map, ...); a user-type root is returned as a *BinaryObject, a
// lazy view callers read fields from or fully materialize with
// Deserialize/DeserializeAny.
func (r *Reader) ReadRoot() (any, error) {
	v, _, err := decodeAt(r.state, 0)
	return v, err
}

// ReadRootFrom decodes the value starting at the given byte offset into
// the Reader's buffer and also returns the offset immediately past it,
// letting a caller walk a buffer holding several back-to-back root
// values (as cmd/portable-inspect does) without re-slicing and
// re-wrapping the buffer in a new Reader for each one.
func (r *Reader) ReadRootFrom(offset int) (value any, next int, err error) {
	return decodeAt(r.state, offset)
}

// --- CUSTOM-mode named-field API ---------------------------------------------------
//
// These are only meaningful while a CustomSerializer's ReadBinary is
// running; r.state.currentObject() is nil otherwise and every method
// returns the zero value with no error, mirroring a field that was never
// written.

func (r *Reader) readField(name string) (any, bool, error) {
	bo := r.state.currentObject()
	if bo == nil {
		return nil, false, nil
	}
	return bo.Field(name)
}

func (r *Reader) ReadByteField(name string) (int8, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return 0, err
	}
	iv, _ := v.(int8)
	return iv, nil
}

func (r *Reader) ReadShortField(name string) (int16, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return 0, err
	}
	iv, _ := v.(int16)
	return iv, nil
}

func (r *Reader) ReadIntField(name string) (int32, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return 0, err
	}
	iv, _ := v.(int32)
	return iv, nil
}

func (r *Reader) ReadLongField(name string) (int64, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return 0, err
	}
	iv, _ := v.(int64)
	return iv, nil
}

func (r *Reader) ReadFloatField(name string) (float32, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return 0, err
	}
	fv, _ := v.(float32)
	return fv, nil
}

func (r *Reader) ReadDoubleField(name string) (float64, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return 0, err
	}
	fv, _ := v.(float64)
	return fv, nil
}

func (r *Reader) ReadBoolField(name string) (bool, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return false, err
	}
	bv, _ := v.(bool)
	return bv, nil
}

func (r *Reader) ReadStringField(name string) (string, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return "", err
	}
	sv, _ := v.(string)
	return sv, nil
}

func (r *Reader) ReadBytesField(name string) ([]byte, error) {
	v, ok, err := r.readField(name)
	if !ok || err != nil {
		return nil, err
	}
	bv, _ := v.([]byte)
	return bv, nil
}

// ReadObjectField reads an arbitrary field, exactly as it would have been
// returned from BinaryObject.Field: a nested user type comes back as
// *BinaryObject, still lazy.
func (r *Reader) ReadObjectField(name string) (any, error) {
	v, _, err := r.readField(name)
	return v, err
}

// --- generic value decode ----------------------------------------------------------

// decodeAt decodes one value at offset and returns it along with the
// offset immediately following it.
func decodeAt(st *readState, offset int) (any, int, error) {
	if !primitiveio.Bounds(st.buf, offset, 1) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}

	b := st.buf[offset]
	if b == headerTag {
		return decodeUserType(st, offset)
	}

	switch Tag(b) {
	case TagNull:
		return nil, offset + 1, nil
	case TagHandle:
		if !primitiveio.Bounds(st.buf, offset+1, 4) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		rel := primitiveio.Int32(st.buf, offset+1)
		referent := offset + int(rel)
		if !primitiveio.Bounds(st.buf, referent, headerSize) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		bo, err := newBinaryObject(st, referent)
		if err != nil {
			return nil, 0, err
		}
		return bo, offset + 1 + 4, nil

	case TagByte:
		if !primitiveio.Bounds(st.buf, offset+1, 1) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return int8(st.buf[offset+1]), offset + 2, nil
	case TagShort:
		if !primitiveio.Bounds(st.buf, offset+1, 2) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return primitiveio.Int16(st.buf, offset+1), offset + 3, nil
	case TagInt:
		if !primitiveio.Bounds(st.buf, offset+1, 4) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return primitiveio.Int32(st.buf, offset+1), offset + 5, nil
	case TagLong:
		if !primitiveio.Bounds(st.buf, offset+1, 8) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return primitiveio.Int64(st.buf, offset+1), offset + 9, nil
	case TagFloat:
		if !primitiveio.Bounds(st.buf, offset+1, 4) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return primitiveio.Float32(st.buf, offset+1), offset + 5, nil
	case TagDouble:
		if !primitiveio.Bounds(st.buf, offset+1, 8) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return primitiveio.Float64(st.buf, offset+1), offset + 9, nil
	case TagChar:
		if !primitiveio.Bounds(st.buf, offset+1, 2) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return Char(primitiveio.Uint16(st.buf, offset+1)), offset + 3, nil
	case TagBool:
		if !primitiveio.Bounds(st.buf, offset+1, 1) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return st.buf[offset+1] != 0, offset + 2, nil
	case TagString:
		return decodeString(st, offset+1)
	case TagByteArr:
		return decodeByteArr(st, offset+1)
	case TagUUID:
		if !primitiveio.Bounds(st.buf, offset+1, 16) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		var u UUID
		binary.BigEndian.PutUint64(u[0:8], primitiveio.Uint64(st.buf, offset+1))
		binary.BigEndian.PutUint64(u[8:16], primitiveio.Uint64(st.buf, offset+9))
		return u, offset + 17, nil
	case TagDate:
		if !primitiveio.Bounds(st.buf, offset+1, 8) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return Date{Millis: primitiveio.Int64(st.buf, offset+1)}, offset + 9, nil
	case TagTimestamp:
		if !primitiveio.Bounds(st.buf, offset+1, 12) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return Timestamp{
			Millis:          primitiveio.Int64(st.buf, offset+1),
			AdditionalNanos: primitiveio.Int32(st.buf, offset+9),
		}, offset + 13, nil
	case TagDecimal:
		return decodeDecimal(st, offset+1)
	case TagEnum:
		if !primitiveio.Bounds(st.buf, offset+1, 8) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		return Enum{TypeID: primitiveio.Int32(st.buf, offset+1), Ordinal: primitiveio.Int32(st.buf, offset+5)}, offset + 9, nil
	case TagClass:
		if !primitiveio.Bounds(st.buf, offset+1, 4) {
			return nil, 0, decodeErr(ErrCorruptFrame, offset)
		}
		typeID := primitiveio.Int32(st.buf, offset+1)
		name, next, err := decodeString(st, offset+5)
		if err != nil {
			return nil, 0, err
		}
		return ClassRef{TypeName: name.(string), TypeID: typeID}, next, nil
	case TagMap:
		return decodeMap(st, offset+1)
	case TagCollection:
		return decodeCollection(st, offset+1)
	case TagObjectArr:
		return decodeObjectArr(st, offset+1)

	case TagShortArr, TagIntArr, TagLongArr, TagFloatArr, TagDoubleArr,
		TagCharArr, TagBoolArr, TagStringArr, TagUUIDArr, TagDateArr,
		TagTimestampArr, TagDecimalArr, TagEnumArr:
		return decodeTypedArr(st, Tag(b), offset+1)

	default:
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
}

func decodeString(st *readState, offset int) (any, int, error) {
	if !primitiveio.Bounds(st.buf, offset, 4) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	n := int(primitiveio.Int32(st.buf, offset))
	if n < 0 || !primitiveio.Bounds(st.buf, offset+4, n) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	return string(st.buf[offset+4 : offset+4+n]), offset + 4 + n, nil
}

func decodeByteArr(st *readState, offset int) (any, int, error) {
	if !primitiveio.Bounds(st.buf, offset, 4) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	n := int(primitiveio.Int32(st.buf, offset))
	if n < 0 || !primitiveio.Bounds(st.buf, offset+4, n) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	out := make([]byte, n)
	copy(out, st.buf[offset+4:offset+4+n])
	return out, offset + 4 + n, nil
}

func decodeDecimal(st *readState, offset int) (any, int, error) {
	if !primitiveio.Bounds(st.buf, offset, 8) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	scale := primitiveio.Int32(st.buf, offset)
	neg := scale < 0
	scale = int32(uint32(scale) &^ (1 << 31))
	n := int(primitiveio.Int32(st.buf, offset+4))
	if n < 0 || !primitiveio.Bounds(st.buf, offset+8, n) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	mag := new(big.Int).SetBytes(st.buf[offset+8 : offset+8+n])
	if neg {
		mag.Neg(mag)
	}
	return Decimal{Scale: scale, Unscaled: mag}, offset + 8 + n, nil
}

func decodeMap(st *readState, offset int) (any, int, error) {
	if !primitiveio.Bounds(st.buf, offset, 4) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	n := int(primitiveio.Int32(st.buf, offset))
	next := offset + 4
	m := Map{Entries: make([]MapEntry, 0, n)}
	for i := 0; i < n; i++ {
		if !primitiveio.Bounds(st.buf, next, 1) || st.buf[next] != byte(TagMapEntry) {
			return nil, 0, decodeErr(ErrCorruptFrame, next)
		}
		next++
		key, after, err := decodeAt(st, next)
		if err != nil {
			return nil, 0, err
		}
		val, after2, err := decodeAt(st, after)
		if err != nil {
			return nil, 0, err
		}
		m.Entries = append(m.Entries, MapEntry{Key: key, Value: val})
		next = after2
	}
	return m, next, nil
}

func decodeCollection(st *readState, offset int) (any, int, error) {
	if !primitiveio.Bounds(st.buf, offset, 4) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	n := int(primitiveio.Int32(st.buf, offset))
	next := offset + 4
	c := Collection{Values: make([]any, 0, n)}
	for i := 0; i < n; i++ {
		v, after, err := decodeAt(st, next)
		if err != nil {
			return nil, 0, err
		}
		c.Values = append(c.Values, v)
		next = after
	}
	return c, next, nil
}

func decodeObjectArr(st *readState, offset int) (any, int, error) {
	if !primitiveio.Bounds(st.buf, offset, 4) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	n := int(primitiveio.Int32(st.buf, offset))
	next := offset + 4
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, after, err := decodeAt(st, next)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
		next = after
	}
	return out, next, nil
}

// decodeTypedArr decodes one of the fixed-width *_ARR tags into a native
// Go slice ([]int16, []float64, ...), or []any for the element kinds that
// still need their own tag+payload per element (STRING[], UUID[], ...).
func decodeTypedArr(st *readState, tag Tag, offset int) (any, int, error) {
	if !primitiveio.Bounds(st.buf, offset, 4) {
		return nil, 0, decodeErr(ErrCorruptFrame, offset)
	}
	n := int(primitiveio.Int32(st.buf, offset))
	next := offset + 4

	switch tag {
	case TagShortArr:
		out := make([]int16, n)
		for i := range out {
			if !primitiveio.Bounds(st.buf, next, 2) {
				return nil, 0, decodeErr(ErrCorruptFrame, next)
			}
			out[i] = primitiveio.Int16(st.buf, next)
			next += 2
		}
		return out, next, nil
	case TagIntArr:
		out := make([]int32, n)
		for i := range out {
			if !primitiveio.Bounds(st.buf, next, 4) {
				return nil, 0, decodeErr(ErrCorruptFrame, next)
			}
			out[i] = primitiveio.Int32(st.buf, next)
			next += 4
		}
		return out, next, nil
	case TagLongArr:
		out := make([]int64, n)
		for i := range out {
			if !primitiveio.Bounds(st.buf, next, 8) {
				return nil, 0, decodeErr(ErrCorruptFrame, next)
			}
			out[i] = primitiveio.Int64(st.buf, next)
			next += 8
		}
		return out, next, nil
	case TagFloatArr:
		out := make([]float32, n)
		for i := range out {
			if !primitiveio.Bounds(st.buf, next, 4) {
				return nil, 0, decodeErr(ErrCorruptFrame, next)
			}
			out[i] = primitiveio.Float32(st.buf, next)
			next += 4
		}
		return out, next, nil
	case TagDoubleArr:
		out := make([]float64, n)
		for i := range out {
			if !primitiveio.Bounds(st.buf, next, 8) {
				return nil, 0, decodeErr(ErrCorruptFrame, next)
			}
			out[i] = primitiveio.Float64(st.buf, next)
			next += 8
		}
		return out, next, nil
	case TagCharArr:
		out := make([]Char, n)
		for i := range out {
			if !primitiveio.Bounds(st.buf, next, 2) {
				return nil, 0, decodeErr(ErrCorruptFrame, next)
			}
			out[i] = Char(primitiveio.Uint16(st.buf, next))
			next += 2
		}
		return out, next, nil
	case TagBoolArr:
		out := make([]bool, n)
		for i := range out {
			if !primitiveio.Bounds(st.buf, next, 1) {
				return nil, 0, decodeErr(ErrCorruptFrame, next)
			}
			out[i] = st.buf[next] != 0
			next++
		}
		return out, next, nil
	default:
		// STRING[], UUID[], DATE[], TIMESTAMP[], DECIMAL[], ENUM[]: each
		// element still carries its own tag+payload, so fall back to the
		// generic element decoder and box the result.
		out := make([]any, n)
		for i := range out {
			v, after, err := decodeAt(st, next)
			if err != nil {
				return nil, 0, err
			}
			out[i] = v
			next = after
		}
		return out, next, nil
	}
}

// --- user-type header + footer ------------------------------------------------------

type decodedHeader struct {
	flags             Flags
	typeID            int32
	hashCode          int32
	totalLength       int32
	schemaID          int32
	schemaOrRawOffset int32
}

func readHeader(buf []byte, start int) (decodedHeader, error) {
	if !primitiveio.Bounds(buf, start, headerSize) {
		return decodedHeader{}, decodeErr(ErrCorruptFrame, start)
	}
	if buf[start] != headerTag || buf[start+1] != protoVersion {
		return decodedHeader{}, decodeErr(ErrCorruptFrame, start)
	}
	return decodedHeader{
		flags:             Flags(primitiveio.Uint16(buf, start+2)),
		typeID:            primitiveio.Int32(buf, start+4),
		hashCode:          primitiveio.Int32(buf, start+8),
		totalLength:       primitiveio.Int32(buf, start+12),
		schemaID:          primitiveio.Int32(buf, start+16),
		schemaOrRawOffset: primitiveio.Int32(buf, start+20),
	}, nil
}

func decodeUserType(st *readState, offset int) (any, int, error) {
	bo, err := newBinaryObject(st, offset)
	if err != nil {
		return nil, 0, err
	}
	return bo, offset + int(bo.header.totalLength), nil
}

// BinaryObject is a lazy view over one encoded user-type object: the
// header is parsed eagerly, but field values are decoded only on demand
//. It stays valid as long as the byte slice it was built from
// does.
type BinaryObject struct {
	state  *readState
	start  int
	header decodedHeader

	fieldsCached bool
	cachedFields []footerField
	typeName     string // only set for the unregistered-type fallback

	deserialized any // cache, set when DeserializeAny succeeds for a WithKeepDeserialized type
}

type footerField struct {
	fieldID int32 // -1 under COMPACT_FOOTER until resolved against a Schema
	offset  int32
}

func newBinaryObject(st *readState, start int) (*BinaryObject, error) {
	h, err := readHeader(st.buf, start)
	if err != nil {
		return nil, err
	}
	bo := &BinaryObject{state: st, start: start, header: h}

	if h.typeID == unregisteredTypeID {
		name, _, err := decodeString(st, start+headerSize)
		if err != nil {
			return nil, err
		}
		bo.typeName = name.(string)
	}
	return bo, nil
}

// TypeID returns the object's typeId. Zero means the
// unregistered-type fallback; see TypeName.
func (bo *BinaryObject) TypeID() int32 { return bo.header.typeID }

// SchemaID returns the schemaId of the layout this object was written
// with.
func (bo *BinaryObject) SchemaID() int32 { return bo.header.schemaID }

// HashCode returns the writer-computed hash code stored in the header.
func (bo *BinaryObject) HashCode() int32 { return bo.header.hashCode }

// TypeName returns the wire type name for an unregistered-type object,
// and false for anything else (look the name up via Context instead).
func (bo *BinaryObject) TypeName() (string, bool) {
	if bo.header.typeID != unregisteredTypeID {
		return "", false
	}
	return bo.typeName, true
}

// Bytes returns this object's own byte range: [header, footer/raw-tail
// end). The returned slice aliases the Reader's buffer.
func (bo *BinaryObject) Bytes() []byte {
	return bo.state.buf[bo.start : bo.start+int(bo.header.totalLength)]
}

// Detach copies this object's byte range out into a standalone buffer a
// new Reader can wrap independently. Any HANDLE inside the copied range
// that referred to an object outside it becomes unresolvable and
// surfaces as ErrCorruptFrame the first time it's followed; a fully
// self-contained object (no outside back-references) detaches cleanly.
func (bo *BinaryObject) Detach() []byte {
	cp := make([]byte, bo.header.totalLength)
	copy(cp, bo.Bytes())
	return cp
}

func (bo *BinaryObject) isRaw() bool { return bo.header.flags&FlagHasRaw != 0 }
func (bo *BinaryObject) hasSchema() bool { return bo.header.flags&FlagHasSchema != 0 }
func (bo *BinaryObject) isCompact() bool { return bo.header.flags&FlagCompactFooter != 0 }

// RawBytes returns the externally-serialized payload of an EXTERNAL-mode
// object. ok is false for anything else.
func (bo *BinaryObject) RawBytes() (raw []byte, ok bool) {
	if !bo.isRaw() {
		return nil, false
	}
	rawStart := bo.start + int(bo.header.schemaOrRawOffset)
	return bo.state.buf[rawStart : bo.start+int(bo.header.totalLength)], true
}

// fields parses (and memoizes) this object's footer into footerField
// entries. Under COMPACT_FOOTER, fieldID is left at -1 until resolveCompactIDs
// is able to look the schema up in the registry.
func (bo *BinaryObject) fields() ([]footerField, error) {
	if bo.fieldsCached {
		return bo.cachedFields, nil
	}
	if !bo.hasSchema() {
		bo.fieldsCached = true
		return nil, nil
	}

	footerStart := bo.start + int(bo.header.schemaOrRawOffset)
	width := bo.header.flags.footerWidth()
	compact := bo.isCompact()

	entryWidth := width
	if !compact {
		entryWidth += 4
	}

	footerEnd := bo.start + int(bo.header.totalLength)
	n := (footerEnd - footerStart) / entryWidth

	out := make([]footerField, n)
	pos := footerStart
	for i := 0; i < n; i++ {
		fieldID := int32(-1)
		if !compact {
			if !primitiveio.Bounds(bo.state.buf, pos, 4) {
				return nil, decodeErr(ErrCorruptFrame, pos)
			}
			fieldID = primitiveio.Int32(bo.state.buf, pos)
			pos += 4
		}
		var offset int32
		switch width {
		case 1:
			offset = int32(primitiveio.Uint8(bo.state.buf, pos))
		case 2:
			offset = int32(primitiveio.Uint16(bo.state.buf, pos))
		default:
			offset = primitiveio.Int32(bo.state.buf, pos)
		}
		pos += width
		out[i] = footerField{fieldID: fieldID, offset: offset}
	}

	if compact {
		if err := bo.resolveCompactIDs(out); err != nil {
			return nil, err
		}
	}

	bo.fieldsCached = true
	bo.cachedFields = out
	return out, nil
}

func (bo *BinaryObject) resolveCompactIDs(entries []footerField) error {
	schema, ok := bo.state.ctx.Registry().Lookup(bo.header.typeID, bo.header.schemaID)
	if !ok {
		if bo.state.strictSchema {
			return decodeErr(ErrUnknownSchema, bo.start)
		}
		return nil // leave fieldID == -1; FieldByOrder still works.
	}
	ids := schema.FieldIDs()
	for i := range entries {
		if i < len(ids) {
			entries[i].fieldID = ids[i]
		}
	}
	return nil
}

// resolveFieldID computes the fieldId for name using the registered
// descriptor's IdMapper when one exists, falling back to the Context's
// default mapper for unregistered types.
func (bo *BinaryObject) resolveFieldID(name string) int32 {
	if d, ok := bo.state.ctx.DescriptorByID(bo.header.typeID); ok {
		return d.idMapper.FieldID(bo.header.typeID, name)
	}
	return bo.state.ctx.idMapper.FieldID(bo.header.typeID, name)
}

// Field decodes the named field. ok is false if the field is absent
// (never written, or excluded by an older schema); a present-but-null
// field decodes to nil with ok true.
func (bo *BinaryObject) Field(name string) (value any, ok bool, err error) {
	return bo.fieldByID(bo.resolveFieldID(name))
}

func (bo *BinaryObject) fieldByID(fieldID int32) (any, bool, error) {
	entries, err := bo.fields()
	if err != nil {
		return nil, false, err
	}
	for _, e := range entries {
		if e.fieldID == fieldID {
			v, _, err := decodeAt(bo.state, bo.start+int(e.offset))
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		}
	}
	return nil, false, nil
}

// FieldByOrder decodes the i'th field in schema order, regardless of
// footer layout. Works even when a COMPACT_FOOTER schema
// can't be resolved against the registry, since position doesn't depend
// on fieldId.
func (bo *BinaryObject) FieldByOrder(i int) (value any, ok bool, err error) {
	entries, err := bo.fields()
	if err != nil {
		return nil, false, err
	}
	if i < 0 || i >= len(entries) {
		return nil, false, nil
	}
	v, _, err := decodeAt(bo.state, bo.start+int(entries[i].offset))
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}
