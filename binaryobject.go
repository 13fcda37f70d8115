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
	"reflect"
	"strconv"
)

// DynamicObject is the type-agnostic view of an object: what Inspect
// always returns, and what DeserializeAny falls back to when bo's typeId
// has no registered descriptor in this Context (either the unregistered-
// type wire fallback, or a typeId nobody has called Context.Register for
// yet).
type DynamicObject struct {
	TypeID   int32
	TypeName string
	Fields   map[string]any
}

// Deserialize materializes bo into dest, which must be a non-nil pointer
// to the Go type registered for bo's typeId. Unlike DeserializeAny, it
// does not apply a ReadResolver substitution: dest's concrete type is
// fixed by the caller, so there's nowhere to install a different type.
//
// dest is installed in the reader's handle table before its fields are
// filled in, so a HANDLE elsewhere in the stream that points back to
// bo's own offset (a self-reference, or a second field sharing this
// object) resolves to dest itself instead of recursing into it again.
func (bo *BinaryObject) Deserialize(dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return &ConfigError{TypeName: "<nil>", Reason: "Deserialize requires a non-nil pointer"}
	}

	d, ok := bo.state.ctx.DescriptorFor(dv.Type().Elem())
	if !ok || d.typeID != bo.header.typeID {
		return decodeErr(ErrUnknownType, bo.start)
	}

	if _, already := bo.state.materialized[bo.start]; !already {
		bo.state.materialized[bo.start] = dest
	}
	if err := bo.deserializeInto(dv, d); err != nil {
		delete(bo.state.materialized, bo.start)
		return err
	}
	return nil
}

// DeserializeAny materializes bo into a freshly allocated instance of the
// Go type registered for its typeId, applies any ReadResolver
// substitution, and caches the result if the type asked for
// WithKeepDeserialized. Unregistered types decode to a
// *DynamicObject instead of failing.
//
// If bo's offset is already in the reader's handle table (this object is
// being materialized higher up the same call stack, or was already
// materialized earlier), that value is returned directly instead of
// decoding bo again, which is what lets a cyclic or shared object graph
// terminate instead of recursing forever.
func (bo *BinaryObject) DeserializeAny() (any, error) {
	if bo.deserialized != nil {
		return bo.deserialized, nil
	}
	if v, ok := bo.state.materialized[bo.start]; ok {
		return v, nil
	}

	d, ok := bo.state.ctx.DescriptorByID(bo.header.typeID)
	if !ok {
		return bo.Inspect()
	}

	ptr := reflect.New(d.goType)
	var result any = ptr.Interface()
	bo.state.materialized[bo.start] = result

	if err := bo.deserializeInto(ptr, d); err != nil {
		delete(bo.state.materialized, bo.start)
		return nil, err
	}

	if rr, ok := result.(ReadResolver); ok {
		result = rr.ReadResolve()
		// Update the entry so a back-reference decoded after this point
		// sees the resolved replacement rather than the pre-resolve
		// pointer.
		bo.state.materialized[bo.start] = result
	}
	if d.keepDeserialized {
		bo.deserialized = result
	}
	return result, nil
}

// Inspect decodes every field into a DynamicObject, independent of
// whether a Go type is registered for this object's typeId. Field keys
// are field names when a descriptor for the typeId is registered; they
// fall back to the numeric fieldId for an unregistered type, and to "?"
// plus the footer position for a COMPACT_FOOTER object whose schema
// isn't in the registry. Tools that want to browse an encoded
// stream without compiling in every type it might contain use this
// instead of DeserializeAny.
func (bo *BinaryObject) Inspect() (*DynamicObject, error) {
	entries, err := bo.fields()
	if err != nil {
		return nil, err
	}
	name := bo.typeName
	var fieldNames map[int32]string
	if d, ok := bo.state.ctx.DescriptorByID(bo.header.typeID); ok {
		if name == "" {
			name = d.typeName
		}
		fieldNames = make(map[int32]string, len(d.fields))
		for _, f := range d.fields {
			fieldNames[f.fieldID] = f.name
		}
	}
	dyn := &DynamicObject{TypeID: bo.header.typeID, TypeName: name, Fields: make(map[string]any, len(entries))}
	for i, e := range entries {
		v, _, err := decodeAt(bo.state, bo.start+int(e.offset))
		if err != nil {
			return nil, err
		}
		dyn.Fields[namedOrNumeric(fieldNames, e.fieldID, i)] = v
	}
	return dyn, nil
}

// namedOrNumeric returns the field's name when names has it, else its
// decimal fieldId, else (fieldId unknown) "?" followed by its footer
// position.
func namedOrNumeric(names map[int32]string, fieldID int32, pos int) string {
	if name, ok := names[fieldID]; ok {
		return name
	}
	if fieldID < 0 {
		return "?" + strconv.Itoa(pos)
	}
	return strconv.FormatInt(int64(fieldID), 10)
}

// deserializeInto fills *dv.Elem() (a struct of d.goType) according to
// d.mode.
func (bo *BinaryObject) deserializeInto(dv reflect.Value, d *TypeDescriptor) error {
	switch d.mode {
	case ModeExcluded:
		return nil

	case ModeExternal:
		raw, ok := bo.RawBytes()
		if !ok {
			return decodeErr(ErrCorruptFrame, bo.start)
		}
		ext, ok := dv.Interface().(ExternalSerializer)
		if !ok {
			return &ConfigError{TypeName: d.typeName, Reason: "does not implement ExternalSerializer"}
		}
		if err := ext.ReadExternal(raw); err != nil {
			return &HookError{Hook: "readExternal", Err: err}
		}
		return nil

	case ModeCustom:
		custom, ok := dv.Interface().(CustomSerializer)
		if !ok {
			return &ConfigError{TypeName: d.typeName, Reason: "does not implement CustomSerializer"}
		}
		bo.state.readStack = append(bo.state.readStack, bo)
		err := custom.ReadBinary(&Reader{state: bo.state})
		bo.state.readStack = bo.state.readStack[:len(bo.state.readStack)-1]
		if err != nil {
			return &HookError{Hook: "readBinary", Err: err}
		}
		return nil

	default: // ModeReflected
		structVal := dv.Elem()
		for _, f := range d.fields {
			v, ok, err := bo.fieldByID(f.fieldID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := assign(structVal.FieldByIndex(f.index), v); err != nil {
				return err
			}
		}
		return nil
	}
}

// assign stores decoded (the result of decodeAt) into dst, converting
// between the generic wire representation and dst's concrete Go type.
func assign(dst reflect.Value, decoded any) error {
	if decoded == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if bo, ok := decoded.(*BinaryObject); ok {
		return assignBinaryObject(dst, bo)
	}

	dv := reflect.ValueOf(decoded)

	// Direct-assignable well-known value types (UUID, Date, Timestamp,
	// Decimal, Enum, ClassRef, Map, Collection) and exact scalar matches.
	if dv.Type().AssignableTo(dst.Type()) {
		dst.Set(dv)
		return nil
	}

	switch dst.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		if iv, ok := asInt64(decoded); ok {
			dst.SetInt(iv)
			return nil
		}
	case reflect.Float32, reflect.Float64:
		switch x := decoded.(type) {
		case float32:
			dst.SetFloat(float64(x))
			return nil
		case float64:
			dst.SetFloat(x)
			return nil
		}
	case reflect.Uint16:
		if c, ok := decoded.(Char); ok {
			dst.SetUint(uint64(c))
			return nil
		}
	case reflect.Bool:
		if b, ok := decoded.(bool); ok {
			dst.SetBool(b)
			return nil
		}
	case reflect.String:
		if s, ok := decoded.(string); ok {
			dst.SetString(s)
			return nil
		}
	case reflect.Slice:
		return assignSlice(dst, decoded)
	case reflect.Map:
		return assignMap(dst, decoded)
	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), decoded)
	case reflect.Interface:
		dst.Set(reflect.ValueOf(decoded))
		return nil
	}

	return &UnsupportedValueError{GoType: dst.Type().String()}
}

func assignBinaryObject(dst reflect.Value, bo *BinaryObject) error {
	switch dst.Kind() {
	case reflect.Pointer:
		// A back-reference into an object already being filled in (a
		// cycle, or a second field sharing the same offset) must land on
		// that same pointer rather than allocate and decode a copy.
		if v, ok := bo.state.materialized[bo.start]; ok {
			pv := reflect.ValueOf(v)
			if !pv.Type().AssignableTo(dst.Type()) {
				return decodeErr(ErrUnknownType, bo.start)
			}
			dst.Set(pv)
			return nil
		}

		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		d, ok := bo.state.ctx.DescriptorFor(dst.Type().Elem())
		if !ok {
			return decodeErr(ErrUnknownType, bo.start)
		}

		bo.state.materialized[bo.start] = dst.Interface()
		if err := bo.deserializeInto(dst, d); err != nil {
			delete(bo.state.materialized, bo.start)
			return err
		}
		return nil
	case reflect.Struct:
		d, ok := bo.state.ctx.DescriptorFor(dst.Type())
		if !ok {
			return decodeErr(ErrUnknownType, bo.start)
		}
		return bo.deserializeInto(dst.Addr(), d)
	case reflect.Interface:
		v, err := bo.DeserializeAny()
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	default:
		return &UnsupportedValueError{GoType: dst.Type().String()}
	}
}

func assignSlice(dst reflect.Value, decoded any) error {
	if dst.Type().Elem().Kind() == reflect.Uint8 {
		if b, ok := decoded.([]byte); ok {
			dst.SetBytes(b)
			return nil
		}
	}

	src := reflect.ValueOf(decoded)
	switch decoded.(type) {
	case []any:
	default:
		if src.Kind() != reflect.Slice {
			return &UnsupportedValueError{GoType: dst.Type().String()}
		}
	}

	out := reflect.MakeSlice(dst.Type(), src.Len(), src.Len())
	for i := 0; i < src.Len(); i++ {
		elem := src.Index(i)
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue // nil element: leave the zero value MakeSlice already produced.
		}
		if err := assign(out.Index(i), elem.Interface()); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func assignMap(dst reflect.Value, decoded any) error {
	m, ok := decoded.(Map)
	if !ok {
		return &UnsupportedValueError{GoType: dst.Type().String()}
	}
	out := reflect.MakeMapWithSize(dst.Type(), len(m.Entries))
	keyType, valType := dst.Type().Key(), dst.Type().Elem()
	for _, e := range m.Entries {
		k := reflect.New(keyType).Elem()
		if err := assign(k, e.Key); err != nil {
			return err
		}
		v := reflect.New(valType).Elem()
		if err := assign(v, e.Value); err != nil {
			return err
		}
		out.SetMapIndex(k, v)
	}
	dst.Set(out)
	return nil
}

func asInt64(decoded any) (int64, bool) {
	switch x := decoded.(type) {
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	default:
		return 0, false
	}
}
