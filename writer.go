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
	"hash/fnv"
	"math/big"
	"reflect"

	"github.com/nimbusgrid/portable/internal/arena"
	"github.com/nimbusgrid/portable/internal/primitiveio"
)

// Char is a single UTF-16-sized wire character. Go has
// no 16-bit character type of its own; this stands in for it so that
// CHAR/CHAR[] can round-trip without being confused with a 32-bit rune or
// a one-element string.
type Char uint16

// WriteOption configures a Writer.
type WriteOption func(*Writer)

// WithCompactFooter selects the COMPACT_FOOTER layout:
// the footer omits fieldIds, and readers must resolve them via the
// SchemaRegistry. Off by default, since it requires the reader's registry
// to already know the schema.
func WithCompactFooter(compact bool) WriteOption {
	return func(w *Writer) { w.compactFooter = compact }
}

// WithHashFunc supplies a function the Writer asks for every user-type
// object's semantic hash code, instead of the
// default (an FNV-1a hash of that object's encoded field bytes). Return
// ok=false to fall back to the default for a particular value.
func WithHashFunc(fn func(v any) (hash int32, ok bool)) WriteOption {
	return func(w *Writer) { w.hashFunc = fn }
}

// Writer encodes one or more root values into a single byte stream. A
// Writer is not safe for concurrent use; callers typically keep one per
// goroutine or per request.
type Writer struct {
	ctx   *Context
	arena arena.Arena

	compactFooter bool
	hashFunc      func(v any) (int32, bool)

	// handles maps a pointer's address to the absolute offset of the
	// header it was encoded at, so a second encounter can emit HANDLE
	// instead of re-encoding.
	handles map[uintptr]int

	stack []*schemaRecorder
}

// schemaRecorder accumulates (fieldId, offset) pairs for one in-progress
// object, and tracks which TypeDescriptor (and therefore which IdMapper)
// is active, so CUSTOM-mode named-field writes can compute fieldIds.
type schemaRecorder struct {
	headerOffset int
	typeID       int32
	mapper       IdMapper

	fieldIDs []int32
	offsets  []int32

	raw      bool // true once switched into EXTERNAL/raw mode
	rawStart int

	source any // the Go value this object was built from, for WithHashFunc
}

// NewWriter returns a Writer that encodes against ctx's registered types.
func NewWriter(ctx *Context, opts ...WriteOption) *Writer {
	w := &Writer{ctx: ctx, handles: make(map[uintptr]int)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Bytes returns everything written to this Writer so far.
func (w *Writer) Bytes() []byte { return w.arena.Bytes() }

// Reset clears the Writer so it can be reused for a new stream.
func (w *Writer) Reset() {
	w.arena.Free()
	w.handles = make(map[uintptr]int)
	w.stack = nil
}

// Write encodes v as a root value and returns the absolute offset at
// which its header (or, for a bare primitive root, its tag byte) begins.
func (w *Writer) Write(v any) (int, error) {
	return w.writeRoot(v)
}

func (w *Writer) writeRoot(v any) (int, error) {
	offset := w.arena.Len()
	if err := w.writeValue(reflect.ValueOf(v)); err != nil {
		return 0, err
	}
	return offset, nil
}

// --- primitive emission helpers -------------------------------------------------

func (w *Writer) putTag(t Tag) {
	w.arena.Append([]byte{byte(t)})
}

func (w *Writer) putInt32(v int32) {
	off := w.arena.Alloc(4)
	primitiveio.PutInt32(w.arena.Bytes(), off, v)
}

func (w *Writer) putInt64(v int64) {
	off := w.arena.Alloc(8)
	primitiveio.PutInt64(w.arena.Bytes(), off, v)
}

func (w *Writer) putBytesRaw(b []byte) {
	w.arena.Append(b)
}

func (w *Writer) putString(s string) {
	w.putInt32(int32(len(s)))
	w.putBytesRaw([]byte(s))
}

// --- value dispatch --------------------------------------------------------------

// writeValue encodes v (tag + payload). It does not record a
// (fieldId, offset) pair; that's the job of the field-writing call sites
// (writeReflectedFields, the WriteXxxField methods).
func (w *Writer) writeValue(v reflect.Value) error {
	if !v.IsValid() {
		w.putTag(TagNull)
		return nil
	}

	switch x := v.Interface().(type) {
	case nil:
		w.putTag(TagNull)
		return nil
	case UUID:
		w.putTag(TagUUID)
		msb, lsb := uuidToLongs(x)
		w.putInt64(msb)
		w.putInt64(lsb)
		return nil
	case Date:
		w.putTag(TagDate)
		w.putInt64(x.Millis)
		return nil
	case Timestamp:
		w.putTag(TagTimestamp)
		w.putInt64(x.Millis)
		w.putInt32(x.AdditionalNanos)
		return nil
	case Decimal:
		w.putTag(TagDecimal)
		return w.writeDecimalPayload(x)
	case Enum:
		w.putTag(TagEnum)
		w.putInt32(x.TypeID)
		w.putInt32(x.Ordinal)
		return nil
	case ClassRef:
		w.putTag(TagClass)
		w.putInt32(x.TypeID)
		w.putString(x.TypeName)
		return nil
	case Map:
		return w.writeMap(x)
	case Collection:
		return w.writeCollection(x)
	case Char:
		w.putTag(TagChar)
		off := w.arena.Alloc(2)
		primitiveio.PutUint16(w.arena.Bytes(), off, uint16(x))
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			w.putTag(TagNull)
			return nil
		}
		if v.Elem().Kind() == reflect.Struct {
			// Keep the pointer itself so writeUserType can use its address
			// as the handle-table key; dereferencing here would discard
			// the identity a repeated or cyclic reference depends on.
			return w.writeUserType(v)
		}
		return w.writeValue(v.Elem())

	case reflect.Interface:
		if v.IsNil() {
			w.putTag(TagNull)
			return nil
		}
		return w.writeValue(v.Elem())

	case reflect.Int8:
		w.putTag(TagByte)
		w.arena.Append([]byte{byte(v.Int())})
		return nil
	case reflect.Int16:
		w.putTag(TagShort)
		off := w.arena.Alloc(2)
		primitiveio.PutInt16(w.arena.Bytes(), off, int16(v.Int()))
		return nil
	case reflect.Int32, reflect.Int:
		w.putTag(TagInt)
		w.putInt32(int32(v.Int()))
		return nil
	case reflect.Int64:
		w.putTag(TagLong)
		w.putInt64(v.Int())
		return nil
	case reflect.Float32:
		w.putTag(TagFloat)
		off := w.arena.Alloc(4)
		primitiveio.PutFloat32(w.arena.Bytes(), off, float32(v.Float()))
		return nil
	case reflect.Float64:
		w.putTag(TagDouble)
		off := w.arena.Alloc(8)
		primitiveio.PutFloat64(w.arena.Bytes(), off, v.Float())
		return nil
	case reflect.Bool:
		w.putTag(TagBool)
		b := byte(0)
		if v.Bool() {
			b = 1
		}
		w.arena.Append([]byte{b})
		return nil
	case reflect.String:
		w.putTag(TagString)
		w.putString(v.String())
		return nil

	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			w.putTag(TagByteArr)
			w.putInt32(int32(v.Len()))
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			w.putBytesRaw(b)
			return nil
		}
		return w.writeSlice(v)

	case reflect.Map:
		return w.writeReflectMap(v)

	case reflect.Struct:
		return w.writeUserType(v)

	default:
		return &UnsupportedValueError{GoType: v.Type().String()}
	}
}

// UnsupportedValueError wraps ErrUnsupportedValue with the offending Go
// type's name.
type UnsupportedValueError struct {
	GoType string
}

func (e *UnsupportedValueError) Error() string {
	return "portable: cannot encode value of type " + e.GoType
}

func (e *UnsupportedValueError) Unwrap() error { return ErrUnsupportedValue }

func (w *Writer) writeDecimalPayload(d Decimal) error {
	mag := []byte{0}
	neg := false
	if d.Unscaled != nil && d.Unscaled.Sign() != 0 {
		neg = d.Unscaled.Sign() < 0
		mag = new(big.Int).Abs(d.Unscaled).Bytes()
		if len(mag) == 0 || mag[0]&0x80 != 0 {
			mag = append([]byte{0}, mag...) // keep the sign bit out of the magnitude
		}
	}
	scale := d.Scale
	if neg {
		scale = int32(uint32(scale) | (1 << 31))
	}
	w.putInt32(scale)
	w.putInt32(int32(len(mag)))
	w.putBytesRaw(mag)
	return nil
}

func (w *Writer) writeMap(m Map) error {
	w.putTag(TagMap)
	w.putInt32(int32(len(m.Entries)))
	for _, e := range m.Entries {
		w.putTag(TagMapEntry)
		if err := w.writeValue(reflect.ValueOf(e.Key)); err != nil {
			return err
		}
		if err := w.writeValue(reflect.ValueOf(e.Value)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeReflectMap(v reflect.Value) error {
	w.putTag(TagMap)
	w.putInt32(int32(v.Len()))
	iter := v.MapRange()
	for iter.Next() {
		w.putTag(TagMapEntry)
		if err := w.writeValue(iter.Key()); err != nil {
			return err
		}
		if err := w.writeValue(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeCollection(c Collection) error {
	w.putTag(TagCollection)
	w.putInt32(int32(len(c.Values)))
	for _, elem := range c.Values {
		if err := w.writeValue(reflect.ValueOf(elem)); err != nil {
			return err
		}
	}
	return nil
}

// fixedWidthArrayTags are the *_ARR tags whose elements are packed as raw
// fixed-width values with no per-element tag byte; every
// other array tag (STRING[], UUID[], ...) stores each element as a
// normal tag+payload pair, the same shape writeValue already produces.
var fixedWidthArrayTags = map[Tag]bool{
	TagShortArr: true, TagIntArr: true, TagLongArr: true,
	TagFloatArr: true, TagDoubleArr: true, TagCharArr: true, TagBoolArr: true,
}

func (w *Writer) writeSlice(v reflect.Value) error {
	elemKind := v.Type().Elem().Kind()
	if elemKind == reflect.Interface || elemKind == reflect.Pointer || elemKind == reflect.Struct {
		w.putTag(TagObjectArr)
		w.putInt32(int32(v.Len()))
		for i := 0; i < v.Len(); i++ {
			if err := w.writeValue(v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}

	tag := arrayTagFor(v.Type().Elem())
	w.putTag(tag)
	w.putInt32(int32(v.Len()))

	if !fixedWidthArrayTags[tag] {
		for i := 0; i < v.Len(); i++ {
			if err := w.writeValue(v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}

	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		switch elemKind {
		case reflect.Int16:
			off := w.arena.Alloc(2)
			primitiveio.PutInt16(w.arena.Bytes(), off, int16(elem.Int()))
		case reflect.Int32, reflect.Int:
			w.putInt32(int32(elem.Int()))
		case reflect.Int64:
			w.putInt64(elem.Int())
		case reflect.Float32:
			off := w.arena.Alloc(4)
			primitiveio.PutFloat32(w.arena.Bytes(), off, float32(elem.Float()))
		case reflect.Float64:
			off := w.arena.Alloc(8)
			primitiveio.PutFloat64(w.arena.Bytes(), off, elem.Float())
		case reflect.Uint16:
			off := w.arena.Alloc(2)
			primitiveio.PutUint16(w.arena.Bytes(), off, uint16(elem.Uint()))
		case reflect.Bool:
			b := byte(0)
			if elem.Bool() {
				b = 1
			}
			w.arena.Append([]byte{b})
		}
	}
	return nil
}

// --- user-type objects -------------------------------------------------------------

// writeUserType encodes v, which must be a struct value or a pointer to
// one. Pointers carry identity for the handle table; plain struct values
// never do, since Go passes them by copy.
func (w *Writer) writeUserType(v reflect.Value) error {
	ptr, hasIdentity := identityOf(v)
	if hasIdentity {
		if headerOffset, ok := w.handles[ptr]; ok {
			w.emitHandle(headerOffset)
			return nil
		}
	}

	structVal := v
	if v.Kind() == reflect.Pointer {
		structVal = v.Elem()
	}

	d, ok := w.ctx.DescriptorFor(structVal.Type())
	if !ok {
		return w.writeUnregistered(structVal, ptr, hasIdentity)
	}

	if d.mode == ModeExcluded {
		w.putTag(TagNull)
		return nil
	}

	// writeReplace: substitute before encoding.
	if wr, ok := addrIfPossible(v).Interface().(WriteReplacer); ok {
		replacement := wr.WriteReplace()
		return w.writeValue(reflect.ValueOf(replacement))
	}

	headerOffset := w.arena.Alloc(headerSize)
	if hasIdentity {
		w.handles[ptr] = headerOffset
	}

	rec := &schemaRecorder{headerOffset: headerOffset, typeID: d.typeID, mapper: d.idMapper, source: v.Interface()}
	w.stack = append(w.stack, rec)

	var encErr error
	switch d.mode {
	case ModeExternal:
		ext, _ := addrIfPossible(v).Interface().(ExternalSerializer)
		raw, err := ext.WriteExternal()
		if err != nil {
			encErr = &HookError{Hook: "writeExternal", Err: err}
		} else {
			rec.raw = true
			rec.rawStart = w.arena.Len()
			w.putBytesRaw(raw)
		}
	case ModeCustom:
		custom, _ := addrIfPossible(v).Interface().(CustomSerializer)
		if err := custom.WriteBinary(w); err != nil {
			encErr = &HookError{Hook: "writeBinary", Err: err}
		}
	default: // ModeReflected
		encErr = w.writeReflectedFields(structVal, d)
	}

	w.stack = w.stack[:len(w.stack)-1]
	if encErr != nil {
		return encErr
	}

	// Computed now, before the footer is appended, so the default hash
	// covers exactly the field payload (or exactly the raw tail) and
	// nothing past it.
	hashCode := w.hashCodeFor(rec)
	return w.postWrite(d, rec, hashCode)
}

func (w *Writer) writeReflectedFields(structVal reflect.Value, d *TypeDescriptor) error {
	for _, f := range d.fields {
		fv := structVal.FieldByIndex(f.index)
		w.recordField(f.fieldID, w.arena.Len()-w.currentHeaderOffset())
		if err := w.writeValue(fv); err != nil {
			return err
		}
	}
	return nil
}

// writeUnregistered implements the unregistered-type fallback:
// a sentinel typeId of zero, followed by the fully-qualified type name,
// then the field region exactly as ModeReflected would have written it.
func (w *Writer) writeUnregistered(structVal reflect.Value, ptr uintptr, hasIdentity bool) error {
	headerOffset := w.arena.Alloc(headerSize)
	if hasIdentity {
		w.handles[ptr] = headerOffset
	}

	name := structVal.Type().PkgPath() + "." + structVal.Type().Name()
	w.putString(name)

	fields, err := collectFields(structVal.Type(), unregisteredTypeID, DefaultIDMapper)
	if err != nil {
		return err
	}

	rec := &schemaRecorder{headerOffset: headerOffset, typeID: unregisteredTypeID, mapper: DefaultIDMapper}
	w.stack = append(w.stack, rec)
	for _, f := range fields {
		fv := structVal.FieldByIndex(f.index)
		w.recordField(f.fieldID, w.arena.Len()-headerOffset)
		if err := w.writeValue(fv); err != nil {
			w.stack = w.stack[:len(w.stack)-1]
			return err
		}
	}
	w.stack = w.stack[:len(w.stack)-1]

	hashCode := w.hashCodeFor(rec)
	return w.postWriteRaw(headerOffset, unregisteredTypeID, rec, false, hashCode)
}

func (w *Writer) currentHeaderOffset() int {
	return w.stack[len(w.stack)-1].headerOffset
}

// recordField appends one (fieldId, offset) pair to the currently active
// recorder. offset is relative to that object's header start.
func (w *Writer) recordField(fieldID int32, offset int) {
	rec := w.stack[len(w.stack)-1]
	rec.fieldIDs = append(rec.fieldIDs, fieldID)
	rec.offsets = append(rec.offsets, int32(offset))
}

func (w *Writer) emitHandle(referentHeaderOffset int) {
	pos := w.arena.Len()
	w.putTag(TagHandle)
	off := w.arena.Alloc(4)
	primitiveio.PutInt32(w.arena.Bytes(), off, int32(referentHeaderOffset-pos))
}

// postWrite finishes the object started at rec.headerOffset: computes the
// schemaId, emits the footer (or nothing, for raw objects), and
// back-patches the header.
func (w *Writer) postWrite(d *TypeDescriptor, rec *schemaRecorder, hashCode int32) error {
	if rec.raw {
		return w.postWriteRaw(rec.headerOffset, d.typeID, rec, true, hashCode)
	}

	schema := NewSchema(rec.fieldIDs)
	// Only REFLECTED's schema is guaranteed equal to d.Schema(); CUSTOM
	// mode's shape is observed dynamically and may legitimately differ
	// between calls.
	footerOffset := w.emitFooter(rec)

	if err := w.ctx.coordinatorFor().observe(d, schema, d.MetadataMap()); err != nil {
		return err
	}

	w.patchHeader(rec.headerOffset, headerPatch{
		typeID:            d.typeID,
		hashCode:          hashCode,
		totalLength:       int32(w.arena.Len() - rec.headerOffset),
		schemaID:          schema.ID(),
		schemaOrRawOffset: int32(footerOffset - rec.headerOffset),
		flags:             w.flagsFor(rec, true),
	})
	return nil
}

func (w *Writer) postWriteRaw(headerOffset int, typeID int32, rec *schemaRecorder, isExternal bool, hashCode int32) error {
	flags := FlagUserType | FlagHasRaw
	schemaOrRaw := int32(rec.rawStart - headerOffset)
	if !isExternal {
		// Unregistered-type fallback: no raw tail, no schema; rawOffset
		// points at the start of the field region (right after the name).
		flags = FlagUserType
		schemaOrRaw = int32(w.arena.Len() - headerOffset)
		if len(rec.fieldIDs) > 0 {
			flags |= FlagHasSchema
			footerOffset := w.emitFooter(rec)
			schemaOrRaw = int32(footerOffset - headerOffset)
			schema := NewSchema(rec.fieldIDs)
			w.patchHeader(headerOffset, headerPatch{
				typeID: typeID, hashCode: hashCode,
				totalLength: int32(w.arena.Len() - headerOffset), schemaID: schema.ID(),
				schemaOrRawOffset: schemaOrRaw, flags: flags,
			})
			return nil
		}
	}

	w.patchHeader(headerOffset, headerPatch{
		typeID: typeID, hashCode: hashCode,
		totalLength: int32(w.arena.Len() - headerOffset), schemaID: 0,
		schemaOrRawOffset: schemaOrRaw, flags: flags,
	})
	return nil
}

// emitFooter appends the (fieldId?, offset) table and returns its
// absolute start offset.
func (w *Writer) emitFooter(rec *schemaRecorder) int {
	maxOffset := 0
	for _, o := range rec.offsets {
		if int(o) > maxOffset {
			maxOffset = int(o)
		}
	}
	wf := widthFlag(maxOffset)
	var width int
	switch wf {
	case FlagOffset1:
		width = 1
	case FlagOffset2:
		width = 2
	default:
		width = 4
	}

	footerOffset := w.arena.Len()
	for i, off := range rec.offsets {
		if !w.compactFooter {
			fOff := w.arena.Alloc(4)
			primitiveio.PutInt32(w.arena.Bytes(), fOff, rec.fieldIDs[i])
		}
		oOff := w.arena.Alloc(width)
		switch width {
		case 1:
			primitiveio.PutUint8(w.arena.Bytes(), oOff, uint8(off))
		case 2:
			primitiveio.PutUint16(w.arena.Bytes(), oOff, uint16(off))
		default:
			primitiveio.PutInt32(w.arena.Bytes(), oOff, off)
		}
	}
	return footerOffset
}

func (w *Writer) flagsFor(rec *schemaRecorder, hasSchema bool) Flags {
	flags := FlagUserType
	if hasSchema {
		flags |= FlagHasSchema
	}
	if w.compactFooter {
		flags |= FlagCompactFooter
	}
	maxOffset := 0
	for _, o := range rec.offsets {
		if int(o) > maxOffset {
			maxOffset = int(o)
		}
	}
	flags |= widthFlag(maxOffset)
	return flags
}

// hashCodeFor computes rec's default hash code. It must be called with
// the arena's current length exactly at the end of rec's field payload
// (or, for a raw/EXTERNAL object, the end of its raw tail) — i.e. before
// any footer has been appended, since the footer is never part of the
// hashed payload.
func (w *Writer) hashCodeFor(rec *schemaRecorder) int32 {
	if w.hashFunc != nil && rec.source != nil {
		if h, ok := w.hashFunc(rec.source); ok {
			return h
		}
	}
	start := rec.headerOffset + headerSize
	if rec.raw {
		start = rec.rawStart
	}
	h := fnv.New32a()
	h.Write(w.arena.Bytes()[start:])
	return int32(h.Sum32())
}

type headerPatch struct {
	typeID            int32
	hashCode          int32
	totalLength       int32
	schemaID          int32
	schemaOrRawOffset int32
	flags             Flags
}

func (w *Writer) patchHeader(headerOffset int, p headerPatch) {
	buf := w.arena.Bytes()
	primitiveio.PutUint8(buf, headerOffset+0, headerTag)
	primitiveio.PutUint8(buf, headerOffset+1, protoVersion)
	primitiveio.PutUint16(buf, headerOffset+2, uint16(p.flags))
	primitiveio.PutInt32(buf, headerOffset+4, p.typeID)
	primitiveio.PutInt32(buf, headerOffset+8, p.hashCode)
	primitiveio.PutInt32(buf, headerOffset+12, p.totalLength)
	primitiveio.PutInt32(buf, headerOffset+16, p.schemaID)
	primitiveio.PutInt32(buf, headerOffset+20, p.schemaOrRawOffset)
}

// --- CUSTOM-mode named-field API ---------------------------------------------------

func (w *Writer) field(name string) int32 {
	rec := w.stack[len(w.stack)-1]
	return rec.mapper.FieldID(rec.typeID, name)
}

func (w *Writer) WriteByteField(name string, v int8) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

func (w *Writer) WriteShortField(name string, v int16) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

func (w *Writer) WriteIntField(name string, v int32) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

func (w *Writer) WriteLongField(name string, v int64) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

func (w *Writer) WriteFloatField(name string, v float32) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

func (w *Writer) WriteDoubleField(name string, v float64) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

func (w *Writer) WriteBoolField(name string, v bool) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

func (w *Writer) WriteStringField(name string, v string) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

func (w *Writer) WriteBytesField(name string, v []byte) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

// WriteObjectField writes an arbitrary (possibly nested, possibly nil)
// value under name, exactly as ModeReflected would for a field of
// interface{} type.
func (w *Writer) WriteObjectField(name string, v any) error {
	w.recordField(w.field(name), w.arena.Len()-w.currentHeaderOffset())
	return w.writeValue(reflect.ValueOf(v))
}

// --- helpers -----------------------------------------------------------------------

// identityOf returns a stable identity for v if it is a non-nil pointer
// (handle-table keys are pointer addresses); plain struct values have no
// such identity and are always re-encoded in full.
func identityOf(v reflect.Value) (uintptr, bool) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return 0, false
		}
		return v.Pointer(), true
	default:
		return 0, false
	}
}

// addrIfPossible returns a pointer to v if v is addressable or already a
// pointer, so that pointer-receiver methods (CustomSerializer,
// WriteReplacer, ...) can be found via an interface assertion.
func addrIfPossible(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer {
		return v
	}
	if v.CanAddr() {
		return v.Addr()
	}
	// Not addressable (e.g. came from inside an interface{} or a
	// just-constructed reflect.Value): copy to a heap value so we can
	// take its address, which is always legal for interface dispatch
	// purposes even though it won't alias the original.
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

func uuidToLongs(u UUID) (msb, lsb int64) {
	b := u[:]
	msb = int64(binary.BigEndian.Uint64(b[0:8]))
	lsb = int64(binary.BigEndian.Uint64(b[8:16]))
	return msb, lsb
}
