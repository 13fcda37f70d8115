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
	"strings"
)

// Mode selects how a TypeDescriptor encodes and decodes values of its Go
// type.
type Mode int

const (
	// ModeReflected walks the type's fields by reflection, in declaration
	// order with embedded (super-type) fields first.
	ModeReflected Mode = iota
	// ModeCustom defers to a CustomSerializer the type implements.
	ModeCustom
	// ModeExternal defers entirely to an ExternalSerializer; the writer
	// switches to raw mode and no schema footer is produced.
	ModeExternal
	// ModeExcluded types are never encoded; the writer emits a NULL tag
	// in their place, which reads back as a Go nil.
	ModeExcluded
)

// CustomSerializer lets a type take over field-by-field encoding while
// still participating in schema discovery. Write/Read are called with a
// Writer/Reader scoped to the current object; calls to the named-field
// methods on them each record one (fieldId, offset) pair.
type CustomSerializer interface {
	WriteBinary(w *Writer) error
	ReadBinary(r *Reader) error
}

// ExternalSerializer lets a type take over the entire byte range for an
// object, bypassing the schema/footer machinery entirely.
type ExternalSerializer interface {
	WriteExternal() ([]byte, error)
	ReadExternal([]byte) error
}

// WriteReplacer lets a type substitute a different value to encode in its
// place.
type WriteReplacer interface {
	WriteReplace() any
}

// ReadResolver lets a type substitute a different value after decoding.
// The substitute is installed in the reader's handle table so that later
// back-references see it too.
type ReadResolver interface {
	ReadResolve() any
}

// fieldAccessor is one entry of a REFLECTED TypeDescriptor's field table:
// a stable fieldId plus the reflect.Value.FieldByIndex path to reach it.
type fieldAccessor struct {
	name    string
	fieldID int32
	index   []int
}

// TypeDescriptor is everything the codec needs to know about one user
// type: its identity, its affinity key, its field table, its
// encoding Mode, and its stable schema.
type TypeDescriptor struct {
	typeID   int32
	typeName string

	goType reflect.Type // always a struct type, never a pointer

	affinityKeyField string
	idMapper         IdMapper
	mode             Mode
	fields           []fieldAccessor
	stableSchema     Schema
	metadataMap      map[string]Tag

	metadataEnabled  bool
	keepDeserialized bool
	registered       bool
	predefined       bool
}

// DescriptorOption configures BuildDescriptor.
type DescriptorOption func(*descriptorOptions)

type descriptorOptions struct {
	typeName         string
	affinityKeyField string
	idMapper         IdMapper
	metadataEnabled  bool
	keepDeserialized bool
	registered       bool
	predefined       bool
	mode             *Mode
}

// WithTypeName overrides the type name used to compute typeId; by default
// it is the Go type's name.
func WithTypeName(name string) DescriptorOption {
	return func(o *descriptorOptions) { o.typeName = name }
}

// WithAffinityKeyField names the field whose value determines partition
// placement. This codec treats it as metadata only; it plays no role in
// encoding or decoding.
func WithAffinityKeyField(name string) DescriptorOption {
	return func(o *descriptorOptions) { o.affinityKeyField = name }
}

// WithIDMapper overrides the IdMapper used for this type only.
func WithIDMapper(m IdMapper) DescriptorOption {
	return func(o *descriptorOptions) { o.idMapper = m }
}

// WithMetadataEnabled controls whether a name->typeTag map is built for
// publication to the MetadataCoordinator.
func WithMetadataEnabled(enabled bool) DescriptorOption {
	return func(o *descriptorOptions) { o.metadataEnabled = enabled }
}

// WithKeepDeserialized caches BinaryObject.DeserializeAny's result on the
// view. Deserialize, which fills a caller-supplied value, does not cache.
func WithKeepDeserialized(keep bool) DescriptorOption {
	return func(o *descriptorOptions) { o.keepDeserialized = keep }
}

// WithMode forces a specific Mode instead of auto-detecting one from the
// Go type (see modeFor).
func WithMode(m Mode) DescriptorOption {
	return func(o *descriptorOptions) { o.mode = &m }
}

// WithExcluded marks the type ModeExcluded: never encoded, decodes as nil.
func WithExcluded() DescriptorOption {
	m := ModeExcluded
	return func(o *descriptorOptions) { o.mode = &m }
}

// BuildDescriptor constructs a TypeDescriptor for goType (a struct type,
// or a pointer to one) using mapper to assign ids.
//
// For ModeReflected (the default unless goType implements
// CustomSerializer or ExternalSerializer), fields are discovered by
// walking the inheritance chain: embedded struct fields are collected
// depth-first ahead of the type's own declared fields, so that a
// super-type's fields occupy the earlier schema positions, with Go's
// anonymous embedding standing in for class inheritance.
func BuildDescriptor(goType reflect.Type, mapper IdMapper, opts ...DescriptorOption) (*TypeDescriptor, error) {
	o := descriptorOptions{idMapper: mapper}
	for _, opt := range opts {
		opt(&o)
	}
	if o.idMapper == nil {
		o.idMapper = DefaultIDMapper
	}

	for goType.Kind() == reflect.Pointer {
		goType = goType.Elem()
	}

	typeName := o.typeName
	if typeName == "" {
		typeName = goType.Name()
	}

	d := &TypeDescriptor{
		typeID:           o.idMapper.TypeID(typeName),
		typeName:         typeName,
		goType:           goType,
		affinityKeyField: o.affinityKeyField,
		idMapper:         o.idMapper,
		metadataEnabled:  o.metadataEnabled,
		keepDeserialized: o.keepDeserialized,
		registered:       true,
		predefined:       o.predefined,
	}

	d.mode = modeFor(goType, o.mode)

	if d.mode == ModeExcluded || d.mode == ModeExternal {
		return d, nil
	}

	fields, err := collectFields(goType, d.typeID, o.idMapper)
	if err != nil {
		return nil, err
	}
	d.fields = fields

	ids := make([]int32, len(fields))
	for i, f := range fields {
		ids[i] = f.fieldID
	}
	d.stableSchema = NewSchema(ids)

	if d.metadataEnabled {
		d.metadataMap = make(map[string]Tag, len(fields))
		for _, f := range fields {
			ft, _ := goType.FieldByIndex(f.index)
			d.metadataMap[f.name] = tagForGoType(ft.Type)
		}
	}

	return d, nil
}

// modeFor picks a Mode for goType, honoring an explicit override.
func modeFor(goType reflect.Type, override *Mode) Mode {
	if override != nil {
		return *override
	}
	ptrType := reflect.PointerTo(goType)
	switch {
	case ptrType.Implements(reflect.TypeOf((*ExternalSerializer)(nil)).Elem()):
		return ModeExternal
	case ptrType.Implements(reflect.TypeOf((*CustomSerializer)(nil)).Elem()):
		return ModeCustom
	default:
		return ModeReflected
	}
}

// collectFields walks goType's embedded-then-own fields, in
// embedded-before-own order, rejecting duplicate names or colliding fieldIds.
func collectFields(goType reflect.Type, typeID int32, mapper IdMapper) ([]fieldAccessor, error) {
	var out []fieldAccessor
	seenNames := map[string]bool{}
	seenIDs := map[int32]string{}

	var walk func(t reflect.Type, prefix []int) error
	walk = func(t reflect.Type, prefix []int) error {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" && !f.Anonymous {
				continue // unexported, non-promotable
			}
			if tagVal, ok := f.Tag.Lookup("portable"); ok && tagVal == "-" {
				continue // transient
			}

			index := append(append([]int{}, prefix...), i)

			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				if err := walk(f.Type, index); err != nil {
					return err
				}
				continue
			}
			if f.PkgPath != "" {
				continue // unexported, not embeddable
			}

			name := fieldName(f)
			if seenNames[name] {
				return &ConfigError{TypeName: t.Name(), Reason: "duplicate field name " + name}
			}
			seenNames[name] = true

			fieldID := mapper.FieldID(typeID, name)
			if other, ok := seenIDs[fieldID]; ok {
				return &ConfigError{TypeName: t.Name(), Reason: "fieldId collision between " + other + " and " + name}
			}
			seenIDs[fieldID] = name

			out = append(out, fieldAccessor{name: name, fieldID: fieldID, index: index})
		}
		return nil
	}

	if err := walk(goType, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func fieldName(f reflect.StructField) string {
	if tagVal, ok := f.Tag.Lookup("portable"); ok && tagVal != "" && tagVal != "-" {
		return strings.ToLower(tagVal)
	}
	return strings.ToLower(f.Name)
}

// TypeID returns this type's stable identifier.
func (d *TypeDescriptor) TypeID() int32 { return d.typeID }

// TypeName returns the name used to compute TypeID.
func (d *TypeDescriptor) TypeName() string { return d.typeName }

// Schema returns the stable schema derived from reflection (REFLECTED
// mode only; CUSTOM mode's schema varies per-call and is discovered by
// the MetadataCoordinator instead).
func (d *TypeDescriptor) Schema() Schema { return d.stableSchema }

// MetadataMap returns the name->typeTag map built for publication, or nil
// if metadata was not requested for this type.
func (d *TypeDescriptor) MetadataMap() map[string]Tag { return d.metadataMap }

// tagForGoType infers a wire Tag from a Go type, for the metadata map of
// REFLECTED fields and, through arrayTagFor, for the array tag the Writer
// emits for a slice. Struct types (other than the
// well-known value types below) are treated as nested user-type objects
// and use TagUserType; the caller is responsible for having registered a
// descriptor for them.
func tagForGoType(t reflect.Type) Tag {
	switch t {
	case reflect.TypeOf(UUID{}):
		return TagUUID
	case reflect.TypeOf(Date{}):
		return TagDate
	case reflect.TypeOf(Timestamp{}):
		return TagTimestamp
	case reflect.TypeOf(Decimal{}):
		return TagDecimal
	case reflect.TypeOf(Enum{}):
		return TagEnum
	case reflect.TypeOf(ClassRef{}):
		return TagClass
	case reflect.TypeOf(Map{}):
		return TagMap
	case reflect.TypeOf(Collection{}):
		return TagCollection
	}

	switch t.Kind() {
	case reflect.Int8:
		return TagByte
	case reflect.Int16:
		return TagShort
	case reflect.Int32, reflect.Int:
		return TagInt
	case reflect.Int64:
		return TagLong
	case reflect.Float32:
		return TagFloat
	case reflect.Float64:
		return TagDouble
	case reflect.Bool:
		return TagBool
	case reflect.String:
		return TagString
	case reflect.Uint16:
		return TagChar
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return TagByteArr
		}
		return arrayTagFor(t.Elem())
	case reflect.Pointer, reflect.Struct:
		return TagUserType
	default:
		return TagNull
	}
}

func arrayTagFor(elem reflect.Type) Tag {
	switch tagForGoType(elem) {
	case TagByte:
		return TagByteArr
	case TagShort:
		return TagShortArr
	case TagInt:
		return TagIntArr
	case TagLong:
		return TagLongArr
	case TagFloat:
		return TagFloatArr
	case TagDouble:
		return TagDoubleArr
	case TagBool:
		return TagBoolArr
	case TagString:
		return TagStringArr
	case TagChar:
		return TagCharArr
	case TagUUID:
		return TagUUIDArr
	case TagDate:
		return TagDateArr
	case TagTimestamp:
		return TagTimestampArr
	case TagDecimal:
		return TagDecimalArr
	default:
		return TagObjectArr
	}
}
